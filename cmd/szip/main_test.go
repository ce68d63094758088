// Copyright (C) 2025 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/syncthing/szip/lib/stream"
)

func TestOutputName(t *testing.T) {
	cases := []struct {
		infile     string
		format     stream.Format
		decompress bool
		want       string
		wantErr    bool
	}{
		{"data.txt", stream.Framing2, false, "data.txt.sz", false},
		{"data", stream.Snzip, false, "data.snz", false},
		{"data.txt.sz", stream.Framing2, true, "data.txt", false},
		{"archive.snz", stream.Snzip, true, "archive", false},
		{"noext", stream.Framing2, true, "", true},
	}
	for _, tc := range cases {
		got, err := outputName(tc.infile, tc.format, tc.decompress)
		if tc.wantErr {
			if err == nil {
				t.Errorf("outputName(%q) should fail", tc.infile)
			}
			continue
		}
		if err != nil {
			t.Errorf("outputName(%q): %v", tc.infile, err)
			continue
		}
		if got != tc.want {
			t.Errorf("outputName(%q) = %q, expected %q", tc.infile, got, tc.want)
		}
	}
}

func TestFileSuffix(t *testing.T) {
	cases := []struct{ name, want string }{
		{"file.sz", "sz"},
		{"file.tar.snz", "snz"},
		{"file", ""},
		{"dir.d/file", ""},
	}
	for _, tc := range cases {
		if got := fileSuffix(tc.name); got != tc.want {
			t.Errorf("fileSuffix(%q) = %q, expected %q", tc.name, got, tc.want)
		}
	}
}

func TestProcessFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	infile := filepath.Join(dir, "data.txt")
	content := bytes.Repeat([]byte("file round trip data "), 1000)
	if err := os.WriteFile(infile, content, 0o644); err != nil {
		t.Fatal(err)
	}

	// compress; input kept
	cli := &CLI{Keep: true}
	if err := processFile(cli, stream.Framing2, 0, infile); err != nil {
		t.Fatal(err)
	}
	compressed := infile + ".sz"
	if _, err := os.Stat(compressed); err != nil {
		t.Fatalf("compressed output missing: %v", err)
	}

	// remove the original, then decompress via autodetection
	if err := os.Remove(infile); err != nil {
		t.Fatal(err)
	}
	cli = &CLI{Decompress: true}
	if err := processFile(cli, stream.Default, 0, compressed); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(infile)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Error("round trip through files mismatch")
	}
	// without -k the compressed input is removed
	if _, err := os.Stat(compressed); !os.IsNotExist(err) {
		t.Errorf("compressed input should have been removed, stat: %v", err)
	}
}

func TestProcessFileSkipsKnownSuffix(t *testing.T) {
	dir := t.TempDir()
	infile := filepath.Join(dir, "data.sz")
	if err := os.WriteFile(infile, []byte("not really compressed"), 0o644); err != nil {
		t.Fatal(err)
	}

	// compressing a file that already carries a format suffix is a no-op
	cli := &CLI{Keep: true}
	if err := processFile(cli, stream.Framing2, 0, infile); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(infile + ".sz"); !os.IsNotExist(err) {
		t.Error("no output should have been produced")
	}
}

func TestProcessFileCleansUpOnError(t *testing.T) {
	dir := t.TempDir()
	infile := filepath.Join(dir, "data.sz")
	if err := os.WriteFile(infile, []byte("garbage, not a stream"), 0o644); err != nil {
		t.Fatal(err)
	}

	cli := &CLI{Decompress: true, Keep: true}
	if err := processFile(cli, stream.Default, 0, infile); err == nil {
		t.Fatal("decompressing garbage should fail")
	}
	if _, err := os.Stat(filepath.Join(dir, "data")); !os.IsNotExist(err) {
		t.Error("partial output should have been removed")
	}
}

// Copyright (C) 2025 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package stream

import (
	"bufio"
	"bytes"
	"errors"
	"testing"
)

// detectable lists the formats carrying a magic; hadoop-snappy, iwa and
// raw cannot be told apart from their first bytes.
var detectable = []Format{Framing2, Framing, Snzip, SnappyJava, SnappyInJava, Comment43}

func TestDetectOwnOutput(t *testing.T) {
	input := []byte("a man a plan a canal panama")
	for _, format := range detectable {
		t.Run(format.Name(), func(t *testing.T) {
			var compressed bytes.Buffer
			if err := format.Compress(&compressed, bytes.NewReader(input), 0); err != nil {
				t.Fatal(err)
			}

			br := bufio.NewReader(bytes.NewReader(compressed.Bytes()))
			detected, err := Detect(br)
			if err != nil {
				t.Fatal(err)
			}
			if detected != format {
				t.Fatalf("detected %s, expected %s", detected.Name(), format.Name())
			}

			// the detector consumed the magic; decoding continues from
			// there
			var got bytes.Buffer
			if err := detected.Uncompress(&got, br, true); err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got.Bytes(), input) {
				t.Errorf("round trip through detection mismatch")
			}
		})
	}
}

func TestDetectUnknown(t *testing.T) {
	cases := [][]byte{
		[]byte("garbage here"),
		{0xff, 0x06, 0x01},             // wrong third byte
		{0xff, 0x06, 0x00, 'x'},        // not a known fourth byte
		{0xff, 0x06, 0x00, 's', 'X'},   // neither framing nor comment-43
		{0x82, 'S', 'N', 'A', 'X'},     // not snappy-java
		{'s', 'n', 'a', 'p', 'p', 'x'}, // not snappy-in-java
		{'S', 'N', 'X'},                // not snzip
		{0x00, 0x01, 0x02},
	}
	for _, prefix := range cases {
		br := bufio.NewReader(bytes.NewReader(prefix))
		if _, err := Detect(br); !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("Detect(% x) = %v, expected ErrUnknownFormat", prefix, err)
		}
	}
}

func TestDetectEmpty(t *testing.T) {
	br := bufio.NewReader(bytes.NewReader(nil))
	if _, err := Detect(br); err == nil {
		t.Error("Detect on empty input should fail")
	}
}

func TestLookup(t *testing.T) {
	for _, f := range Registry {
		if got := ByName(f.Name()); got != f {
			t.Errorf("ByName(%q) did not return the registered format", f.Name())
		}
	}
	if ByName("nope") != nil {
		t.Error("ByName of an unknown name should return nil")
	}

	// shared suffixes resolve to the first registry entry
	if got := BySuffix("snappy"); got != SnappyJava {
		t.Errorf("BySuffix(snappy) = %v, expected snappy-java", got.Name())
	}
	if got := BySuffix("sz"); got != Framing2 {
		t.Errorf("BySuffix(sz) = %v, expected framing2", got.Name())
	}
	if got := BySuffix("snz"); got != Snzip {
		t.Errorf("BySuffix(snz) = %v, expected snzip", got.Name())
	}
	if BySuffix("gz") != nil {
		t.Error("BySuffix of an unknown suffix should return nil")
	}
}

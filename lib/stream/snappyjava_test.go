// Copyright (C) 2025 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package stream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/golang/snappy"
)

func TestSnappyJavaWireFormat(t *testing.T) {
	input := []byte("hello")

	var buf bytes.Buffer
	if err := SnappyJava.Compress(&buf, bytes.NewReader(input), 0); err != nil {
		t.Fatal(err)
	}
	out := buf.Bytes()

	wantHeader := []byte{
		0x82, 0x53, 0x4e, 0x41, 0x50, 0x50, 0x59, 0x00, // magic
		0x00, 0x00, 0x00, 0x01, // version
		0x00, 0x00, 0x00, 0x01, // compatible version
	}
	if !bytes.Equal(out[:16], wantHeader) {
		t.Errorf("header % x, expected % x", out[:16], wantHeader)
	}

	// one big endian length prefixed snappy block
	blockLen := int(binary.BigEndian.Uint32(out[16:20]))
	if blockLen != len(out)-20 {
		t.Errorf("block length %d does not span remaining %d bytes", blockLen, len(out)-20)
	}
	decoded, err := snappy.Decode(nil, out[20:])
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decoded, input) {
		t.Errorf("block decodes to %q", decoded)
	}
}

func TestSnappyJavaVersionCheck(t *testing.T) {
	input := []byte("hello")
	var buf bytes.Buffer
	if err := SnappyJava.Compress(&buf, bytes.NewReader(input), 0); err != nil {
		t.Fatal(err)
	}

	// mutate the version word to 2
	stream := buf.Bytes()
	stream[11] = 0x02
	var got bytes.Buffer
	if err := SnappyJava.Uncompress(&got, bytes.NewReader(stream), false); !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("version 2: got %v, expected ErrInvalidVersion", err)
	}

	// compatible version instead
	stream[11] = 0x01
	stream[15] = 0x02
	got.Reset()
	if err := SnappyJava.Uncompress(&got, bytes.NewReader(stream), false); !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("compatible version 2: got %v, expected ErrInvalidVersion", err)
	}
}

func TestSnappyJavaZeroLengthBlock(t *testing.T) {
	stream := []byte{
		0x82, 'S', 'N', 'A', 'P', 'P', 'Y', 0x00,
		0, 0, 0, 1,
		0, 0, 0, 1,
		0, 0, 0, 0, // zero length block
	}
	var got bytes.Buffer
	if err := SnappyJava.Uncompress(&got, bytes.NewReader(stream), false); !errors.Is(err, ErrInvalidChunk) {
		t.Errorf("got %v, expected ErrInvalidChunk", err)
	}
}

func TestSnappyJavaBadMagic(t *testing.T) {
	stream := []byte{0x82, 'S', 'N', 'A', 'P', 'P', 'X', 0x00, 0, 0, 0, 1, 0, 0, 0, 1}
	var got bytes.Buffer
	if err := SnappyJava.Uncompress(&got, bytes.NewReader(stream), false); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("got %v, expected ErrInvalidMagic", err)
	}
}

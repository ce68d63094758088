// Copyright (C) 2025 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package stream

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/golang/snappy"

	"github.com/syncthing/szip/lib/crc32c"
)

// SnappyInJava is the snappy-in-java (dain) stream format: a seven byte
// magic, then blocks of a compressed flag, big endian length, big endian
// masked CRC32C of the uncompressed data, and the payload.
var SnappyInJava Format = snappyInJavaFormat{}

const (
	sijCompressed   = 0x01
	sijUncompressed = 0x00

	sijDefaultBlock = 1 << 15
	sijMaxBlock     = 0xffff
)

var sijMagic = []byte("snappy\x00")

type snappyInJavaFormat struct{}

func (snappyInJavaFormat) Name() string   { return "snappy-in-java" }
func (snappyInJavaFormat) URL() string    { return "https://github.com/dain/snappy" }
func (snappyInJavaFormat) Suffix() string { return "snappy" }

func (snappyInJavaFormat) Compress(w io.Writer, r io.Reader, blockSize int) error {
	if blockSize == 0 {
		blockSize = sijDefaultBlock
	}
	if blockSize > sijMaxBlock {
		return fmt.Errorf("snappy-in-java: block size %d exceeds maximum %d", blockSize, sijMaxBlock)
	}

	if _, err := w.Write(sijMagic); err != nil {
		return err
	}

	wb := newWorkBuffer(blockSize)
	var hdr [7]byte
	return compressBlocks(r, wb, func(data []byte, uncompressed bool, crc uint32) error {
		if uncompressed {
			hdr[0] = sijUncompressed
		} else {
			hdr[0] = sijCompressed
		}
		binary.BigEndian.PutUint16(hdr[1:3], uint16(len(data)))
		binary.BigEndian.PutUint32(hdr[3:7], crc)
		if _, err := w.Write(hdr[:]); err != nil {
			return err
		}
		_, err := w.Write(data)
		return err
	})
}

func (snappyInJavaFormat) Uncompress(w io.Writer, r io.Reader, skipMagic bool) error {
	if !skipMagic {
		magic := make([]byte, len(sijMagic))
		if err := readFull(r, magic); err != nil {
			return err
		}
		if !bytes.Equal(magic, sijMagic) {
			return fmt.Errorf("snappy-in-java: %w", ErrInvalidMagic)
		}
	}

	wb := newWorkBuffer(sijMaxBlock)
	var hdr [7]byte
	for {
		// compressed flag; a clean EOF here ends the stream
		if _, err := io.ReadFull(r, hdr[:1]); err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if hdr[0] != sijCompressed && hdr[0] != sijUncompressed {
			return fmt.Errorf("snappy-in-java: compressed flag %#02x: %w", hdr[0], ErrInvalidChunk)
		}
		if err := readFull(r, hdr[1:]); err != nil {
			return err
		}
		length := int(binary.BigEndian.Uint16(hdr[1:3]))
		expected := binary.BigEndian.Uint32(hdr[3:7])

		if err := readFull(r, wb.c[:length]); err != nil {
			return err
		}
		data := wb.c[:length]

		if hdr[0] == sijCompressed {
			uncompressedLen, err := snappy.DecodedLen(data)
			if err != nil {
				return fmt.Errorf("snappy-in-java: %w", err)
			}
			if uncompressedLen > len(wb.uc) {
				return fmt.Errorf("snappy-in-java: uncompressed length %d: %w", uncompressedLen, ErrSizeOverflow)
			}
			data, err = snappy.Decode(wb.uc, data)
			if err != nil {
				return fmt.Errorf("snappy-in-java: %w", err)
			}
		}
		if actual := crc32c.Masked(data); actual != expected {
			return fmt.Errorf("snappy-in-java: expected %#08x, got %#08x: %w", expected, actual, ErrChecksum)
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
}

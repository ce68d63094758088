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
)

// SnappyJava is the snappy-java (xerial) stream format: an eight byte
// magic, big endian version and compatible-version words, then big endian
// length prefixed compressed blocks. No checksums, no terminator.
var SnappyJava Format = snappyJavaFormat{}

const (
	sjVersion      = 1
	sjDefaultBlock = 32 * 1024
)

var sjMagic = []byte{0x82, 'S', 'N', 'A', 'P', 'P', 'Y', 0x00}

type snappyJavaFormat struct{}

func (snappyJavaFormat) Name() string   { return "snappy-java" }
func (snappyJavaFormat) URL() string    { return "https://github.com/xerial/snappy-java" }
func (snappyJavaFormat) Suffix() string { return "snappy" }

func (snappyJavaFormat) Compress(w io.Writer, r io.Reader, blockSize int) error {
	if blockSize == 0 {
		blockSize = sjDefaultBlock
	}

	var hdr [16]byte
	copy(hdr[:8], sjMagic)
	binary.BigEndian.PutUint32(hdr[8:12], sjVersion)
	binary.BigEndian.PutUint32(hdr[12:16], sjVersion)
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	wb := newWorkBuffer(blockSize)
	var lenbuf [4]byte
	for {
		n, err := readBlock(r, wb.uc)
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		compressed := snappy.Encode(wb.c, wb.uc[:n])
		binary.BigEndian.PutUint32(lenbuf[:], uint32(len(compressed)))
		if _, err := w.Write(lenbuf[:]); err != nil {
			return err
		}
		if _, err := w.Write(compressed); err != nil {
			return err
		}
	}
}

func (snappyJavaFormat) Uncompress(w io.Writer, r io.Reader, skipMagic bool) error {
	if !skipMagic {
		var magic [8]byte
		if err := readFull(r, magic[:]); err != nil {
			return err
		}
		if !bytes.Equal(magic[:], sjMagic) {
			return fmt.Errorf("snappy-java: %w", ErrInvalidMagic)
		}
	}
	var versions [8]byte
	if err := readFull(r, versions[:]); err != nil {
		return err
	}
	if v := binary.BigEndian.Uint32(versions[0:4]); v != sjVersion {
		return fmt.Errorf("snappy-java: version %d: %w", v, ErrInvalidVersion)
	}
	if v := binary.BigEndian.Uint32(versions[4:8]); v != sjVersion {
		return fmt.Errorf("snappy-java: compatible version %d: %w", v, ErrInvalidVersion)
	}

	wb := newWorkBuffer(sjDefaultBlock)
	var lenbuf [4]byte
	for {
		// block length; a clean EOF here ends the stream
		if _, err := io.ReadFull(r, lenbuf[:1]); err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if err := readFull(r, lenbuf[1:]); err != nil {
			return err
		}
		compressedLen := int(binary.BigEndian.Uint32(lenbuf[:]))
		if compressedLen == 0 {
			return fmt.Errorf("snappy-java: zero block length: %w", ErrInvalidChunk)
		}
		wb.growC(compressedLen)
		if err := readFull(r, wb.c[:compressedLen]); err != nil {
			return err
		}

		uncompressedLen, err := snappy.DecodedLen(wb.c[:compressedLen])
		if err != nil {
			return fmt.Errorf("snappy-java: %w", err)
		}
		wb.growUC(uncompressedLen)
		decoded, err := snappy.Decode(wb.uc, wb.c[:compressedLen])
		if err != nil {
			return fmt.Errorf("snappy-java: %w", err)
		}
		if _, err := w.Write(decoded); err != nil {
			return err
		}
	}
}

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

// Snzip is the snzip native format: an "SNZ" header with a version byte
// and a block size exponent, varint length prefixed compressed blocks, and
// a varint zero terminator. No checksums.
var Snzip Format = snzipFormat{}

const (
	snzMagic        = "SNZ"
	snzVersion      = 1
	snzDefaultShift = 16 // 64 KiB blocks
	snzMaxShift     = 27 // 128 MiB blocks
	snzVarintMax    = 5
)

type snzipFormat struct{}

func (snzipFormat) Name() string   { return "snzip" }
func (snzipFormat) URL() string    { return "https://github.com/kubo/snzip" }
func (snzipFormat) Suffix() string { return "snz" }

func (snzipFormat) Compress(w io.Writer, r io.Reader, blockSize int) error {
	shift := snzDefaultShift
	if blockSize != 0 {
		shift = 0
		for 1<<shift < blockSize {
			shift++
		}
		if 1<<shift != blockSize {
			return fmt.Errorf("snzip: block size %d is not a power of two", blockSize)
		}
		if shift > snzMaxShift {
			return fmt.Errorf("snzip: block size %d exceeds maximum %d", blockSize, 1<<snzMaxShift)
		}
	}

	if _, err := w.Write([]byte{'S', 'N', 'Z', snzVersion, byte(shift)}); err != nil {
		return err
	}

	wb := newWorkBuffer(1 << shift)
	var lenbuf [binary.MaxVarintLen32]byte
	for {
		n, err := readBlock(r, wb.uc)
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}

		compressed := snappy.Encode(wb.c, wb.uc[:n])
		ln := binary.PutUvarint(lenbuf[:], uint64(len(compressed)))
		if _, err := w.Write(lenbuf[:ln]); err != nil {
			return err
		}
		if _, err := w.Write(compressed); err != nil {
			return err
		}
	}

	// varint zero terminates the stream
	_, err := w.Write([]byte{0})
	return err
}

func (snzipFormat) Uncompress(w io.Writer, r io.Reader, skipMagic bool) error {
	var hdr [2]byte
	if !skipMagic {
		var magic [3]byte
		if err := readFull(r, magic[:]); err != nil {
			return err
		}
		if !bytes.Equal(magic[:], []byte(snzMagic)) {
			return fmt.Errorf("snzip: %w", ErrInvalidMagic)
		}
	}
	if err := readFull(r, hdr[:]); err != nil {
		return err
	}
	if hdr[0] != snzVersion {
		return fmt.Errorf("snzip: version %d: %w", hdr[0], ErrInvalidVersion)
	}
	shift := int(hdr[1])
	if shift > snzMaxShift {
		return fmt.Errorf("snzip: block size shift %d: %w", shift, ErrSizeOverflow)
	}

	wb := newWorkBuffer(1 << shift)
	for {
		compressedLen, err := readSnzVarint(r)
		if err != nil {
			return err
		}
		if compressedLen == 0 {
			// stream terminator
			return nil
		}
		if compressedLen > uint64(len(wb.c)) {
			return fmt.Errorf("snzip: compressed length %d: %w", compressedLen, ErrInvalidChunk)
		}
		if err := readFull(r, wb.c[:compressedLen]); err != nil {
			return err
		}

		uncompressedLen, err := snappy.DecodedLen(wb.c[:compressedLen])
		if err != nil {
			return fmt.Errorf("snzip: %w", err)
		}
		if uncompressedLen > len(wb.uc) {
			return fmt.Errorf("snzip: uncompressed length %d: %w", uncompressedLen, ErrSizeOverflow)
		}
		decoded, err := snappy.Decode(wb.uc, wb.c[:compressedLen])
		if err != nil {
			return fmt.Errorf("snzip: %w", err)
		}
		if _, err := w.Write(decoded); err != nil {
			return err
		}
	}
}

// readSnzVarint reads a base-128 little-endian length of at most five
// bytes. EOF before the first byte is truncation: the format requires a
// zero terminator.
func readSnzVarint(r io.Reader) (uint64, error) {
	var b [1]byte
	var v uint64
	for i := 0; i < snzVarintMax; i++ {
		if err := readFull(r, b[:]); err != nil {
			return 0, err
		}
		v |= uint64(b[0]&0x7f) << (7 * i)
		if b[0]&0x80 == 0 {
			return v, nil
		}
	}
	return 0, fmt.Errorf("snzip: varint overflow: %w", ErrInvalidChunk)
}

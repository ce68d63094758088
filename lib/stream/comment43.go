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

// Comment43 is the legacy framing proposal from comment 43 of the original
// Snappy framing discussion: two byte little endian chunk lengths that
// include the checksum, an explicit end-of-stream chunk, and support for
// concatenated streams.
var Comment43 Format = comment43Format{}

const (
	c43Compressed   = 0x00
	c43Uncompressed = 0x01
	c43EndOfStream  = 0xfe
	c43Header       = 0xff

	c43DefaultBlock = 32 * 1024
	c43MaxBlock     = 65535 - 4 // two byte length field, including checksum
	c43MaxData      = 65535
)

var c43Magic = []byte("snappy")

// comment43 decoding is a small state machine: a header chunk moves to
// processing, an end-of-stream chunk out of it. EOF is only valid after
// end-of-stream, and a further header chunk starts a concatenated stream.
type c43State int

const (
	c43Initial c43State = iota
	c43Processing
	c43Ended
)

type comment43Format struct{}

func (comment43Format) Name() string { return "comment-43" }
func (comment43Format) URL() string {
	return "https://code.google.com/p/snappy/issues/detail?id=34#c43"
}
func (comment43Format) Suffix() string { return "snappy" }

func (comment43Format) Compress(w io.Writer, r io.Reader, blockSize int) error {
	if blockSize == 0 {
		blockSize = c43DefaultBlock
	}
	if blockSize > c43MaxBlock {
		return fmt.Errorf("comment-43: block size %d exceeds maximum %d", blockSize, c43MaxBlock)
	}

	if _, err := w.Write([]byte{c43Header, byte(len(c43Magic)), 0}); err != nil {
		return err
	}
	if _, err := w.Write(c43Magic); err != nil {
		return err
	}

	wb := newWorkBuffer(blockSize)
	var hdr [7]byte
	err := compressBlocks(r, wb, func(data []byte, uncompressed bool, crc uint32) error {
		if uncompressed {
			hdr[0] = c43Uncompressed
		} else {
			hdr[0] = c43Compressed
		}
		binary.LittleEndian.PutUint16(hdr[1:3], uint16(len(data)+4))
		binary.LittleEndian.PutUint32(hdr[3:7], crc)
		if _, err := w.Write(hdr[:]); err != nil {
			return err
		}
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return err
	}

	_, err = w.Write([]byte{c43EndOfStream, 0, 0})
	return err
}

func (comment43Format) Uncompress(w io.Writer, r io.Reader, skipMagic bool) error {
	state := c43Initial
	if skipMagic {
		state = c43Processing
	}

	wb := newWorkBuffer(c43MaxData)
	var hdr [3]byte
	for {
		// chunk type; EOF is only clean after an end-of-stream chunk
		if _, err := io.ReadFull(r, hdr[:1]); err == io.EOF {
			if state == c43Ended {
				return nil
			}
			return io.ErrUnexpectedEOF
		} else if err != nil {
			return err
		}
		if err := readFull(r, hdr[1:3]); err != nil {
			return err
		}
		typ := hdr[0]
		dataLen := int(binary.LittleEndian.Uint16(hdr[1:3]))
		wb.growC(dataLen)
		if err := readFull(r, wb.c[:dataLen]); err != nil {
			return err
		}
		data := wb.c[:dataLen]

		if state != c43Processing {
			// the next chunk must be a stream header
			if typ != c43Header {
				return fmt.Errorf("comment-43: chunk type %#02x before header: %w", typ, ErrInvalidChunk)
			}
			if !bytes.Equal(data, c43Magic) {
				return fmt.Errorf("comment-43: %w", ErrInvalidMagic)
			}
			state = c43Processing
			continue
		}

		switch {
		case typ == c43Compressed:
			if dataLen <= 4 {
				return fmt.Errorf("comment-43: data length %d too short: %w", dataLen, ErrInvalidChunk)
			}
			uncompressedLen, err := snappy.DecodedLen(data[4:])
			if err != nil {
				return fmt.Errorf("comment-43: %w", err)
			}
			if uncompressedLen > len(wb.uc) {
				return fmt.Errorf("comment-43: uncompressed length %d: %w", uncompressedLen, ErrSizeOverflow)
			}
			decoded, err := snappy.Decode(wb.uc, data[4:])
			if err != nil {
				return fmt.Errorf("comment-43: %w", err)
			}
			if err := c43VerifyCRC(decoded, data[:4]); err != nil {
				return err
			}
			if _, err := w.Write(decoded); err != nil {
				return err
			}

		case typ == c43Uncompressed:
			if dataLen <= 4 {
				return fmt.Errorf("comment-43: data length %d too short: %w", dataLen, ErrInvalidChunk)
			}
			if err := c43VerifyCRC(data[4:], data[:4]); err != nil {
				return err
			}
			if _, err := w.Write(data[4:]); err != nil {
				return err
			}

		case typ == c43EndOfStream:
			if dataLen != 0 {
				return fmt.Errorf("comment-43: end-of-stream length %d: %w", dataLen, ErrInvalidChunk)
			}
			state = c43Ended

		case typ == c43Header:
			return fmt.Errorf("comment-43: unexpected header chunk: %w", ErrInvalidChunk)

		case typ >= 0x80:
			// reserved chunk types are tolerated; payload already read

		default:
			return fmt.Errorf("comment-43: chunk type %#02x: %w", typ, ErrInvalidChunk)
		}
	}
}

func c43VerifyCRC(data, stored []byte) error {
	expected := binary.LittleEndian.Uint32(stored)
	if actual := crc32c.Masked(data); actual != expected {
		return fmt.Errorf("comment-43: expected %#08x, got %#08x: %w", expected, actual, ErrChecksum)
	}
	return nil
}

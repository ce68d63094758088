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

// Framing2 is the current Snappy framing format: a ten byte stream
// identifier followed by chunks of one type byte, a three byte little
// endian length, a masked CRC32C of the uncompressed data, and the
// payload.
var Framing2 Format = &framingFormat{
	name:   "framing2",
	url:    "https://github.com/google/snappy/blob/main/framing_format.txt",
	suffix: "sz",
	header: []byte{0xff, 0x06, 0x00, 0x00, 's', 'N', 'a', 'P', 'p', 'Y'},
}

// Framing is the earlier draft of the same format with a nine byte stream
// identifier, before the fourth length byte was added. Kept for decoding
// legacy streams; chunk layout is identical to Framing2.
var Framing Format = &framingFormat{
	name:   "framing",
	url:    "https://github.com/google/snappy/blob/main/framing_format.txt",
	suffix: "sz",
	header: []byte{0xff, 0x06, 0x00, 's', 'N', 'a', 'P', 'p', 'Y'},
}

const (
	framingCompressed   = 0x00
	framingUncompressed = 0x01
	framingPadding      = 0xfe
	framingStreamID     = 0xff

	framingMaxBlock = 65536    // maximum uncompressed data per chunk
	framingMaxData  = 16777215 // maximum chunk data length (3-byte field)
)

// framingStreamIDPayload is the chunk body of a stream identifier,
// shared by both header shapes.
var framingStreamIDPayload = []byte("sNaPpY")

type framingFormat struct {
	name   string
	url    string
	suffix string
	header []byte
}

func (f *framingFormat) Name() string   { return f.name }
func (f *framingFormat) URL() string    { return f.url }
func (f *framingFormat) Suffix() string { return f.suffix }

func (f *framingFormat) Compress(w io.Writer, r io.Reader, blockSize int) error {
	if blockSize == 0 {
		blockSize = framingMaxBlock
	}
	if blockSize > framingMaxBlock {
		return fmt.Errorf("%s: block size %d exceeds maximum %d", f.name, blockSize, framingMaxBlock)
	}

	if _, err := w.Write(f.header); err != nil {
		return err
	}

	wb := newWorkBuffer(blockSize)
	var hdr [8]byte
	return compressBlocks(r, wb, func(data []byte, uncompressed bool, crc uint32) error {
		if uncompressed {
			hdr[0] = framingUncompressed
		} else {
			hdr[0] = framingCompressed
		}
		putUint24LE(hdr[1:4], len(data)+4)
		binary.LittleEndian.PutUint32(hdr[4:8], crc)
		if _, err := w.Write(hdr[:]); err != nil {
			return err
		}
		_, err := w.Write(data)
		return err
	})
}

func (f *framingFormat) Uncompress(w io.Writer, r io.Reader, skipMagic bool) error {
	if !skipMagic {
		magic := make([]byte, len(f.header))
		if err := readFull(r, magic); err != nil {
			return err
		}
		if !bytes.Equal(magic, f.header) {
			return fmt.Errorf("%s: %w", f.name, ErrInvalidMagic)
		}
	}

	wb := newWorkBuffer(framingMaxBlock)
	var hdr [4]byte
	for {
		// chunk type; a clean EOF here ends the stream
		if _, err := io.ReadFull(r, hdr[:1]); err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if err := readFull(r, hdr[1:4]); err != nil {
			return err
		}
		dataLen := uint24LE(hdr[1:4])

		switch typ := hdr[0]; {
		case typ == framingCompressed:
			if dataLen < 4 {
				return fmt.Errorf("%s: data length %d too short: %w", f.name, dataLen, ErrInvalidChunk)
			}
			wb.growC(dataLen)
			if err := readFull(r, wb.c[:dataLen]); err != nil {
				return err
			}
			uncompressedLen, err := snappy.DecodedLen(wb.c[4:dataLen])
			if err != nil {
				return fmt.Errorf("%s: %w", f.name, err)
			}
			if uncompressedLen > framingMaxBlock {
				return fmt.Errorf("%s: uncompressed length %d: %w", f.name, uncompressedLen, ErrSizeOverflow)
			}
			decoded, err := snappy.Decode(wb.uc, wb.c[4:dataLen])
			if err != nil {
				return fmt.Errorf("%s: %w", f.name, err)
			}
			if err := f.verifyCRC(decoded, wb.c[:4]); err != nil {
				return err
			}
			if _, err := w.Write(decoded); err != nil {
				return err
			}

		case typ == framingUncompressed:
			if dataLen < 4 {
				return fmt.Errorf("%s: data length %d too short: %w", f.name, dataLen, ErrInvalidChunk)
			}
			if dataLen-4 > framingMaxBlock {
				return fmt.Errorf("%s: uncompressed length %d: %w", f.name, dataLen-4, ErrSizeOverflow)
			}
			wb.growC(dataLen)
			if err := readFull(r, wb.c[:dataLen]); err != nil {
				return err
			}
			if err := f.verifyCRC(wb.c[4:dataLen], wb.c[:4]); err != nil {
				return err
			}
			if _, err := w.Write(wb.c[4:dataLen]); err != nil {
				return err
			}

		case typ == framingStreamID:
			// A repeated stream identifier is allowed and must match.
			if dataLen != len(framingStreamIDPayload) {
				return fmt.Errorf("%s: stream identifier length %d: %w", f.name, dataLen, ErrInvalidChunk)
			}
			var id [6]byte
			if err := readFull(r, id[:]); err != nil {
				return err
			}
			if !bytes.Equal(id[:], framingStreamIDPayload) {
				return fmt.Errorf("%s: %w", f.name, ErrInvalidMagic)
			}

		case typ == framingPadding || typ >= 0x80:
			// skippable chunk; consume and ignore the payload
			if _, err := io.CopyN(io.Discard, r, int64(dataLen)); err != nil {
				return noEOF(err)
			}

		default:
			// reserved unskippable range 0x02-0x7f
			return fmt.Errorf("%s: chunk type %#02x: %w", f.name, typ, ErrInvalidChunk)
		}
	}
}

func (f *framingFormat) verifyCRC(data, stored []byte) error {
	expected := binary.LittleEndian.Uint32(stored)
	if actual := crc32c.Masked(data); actual != expected {
		return fmt.Errorf("%s: expected %#08x, got %#08x: %w", f.name, expected, actual, ErrChecksum)
	}
	return nil
}

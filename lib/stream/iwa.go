// Copyright (C) 2025 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package stream

import (
	"fmt"
	"io"

	"github.com/golang/snappy"
)

// IWA is the chunk format inside Apple iWork archives: no magic, no
// checksums, chunks of a zero type byte, a three byte little endian
// length, and Snappy compressed data.
var IWA Format = iwaFormat{}

const (
	iwaChunkType = 0x00
	iwaMaxBlock  = 65536
)

type iwaFormat struct{}

func (iwaFormat) Name() string { return "iwa" }
func (iwaFormat) URL() string {
	return "https://github.com/obriensp/iWorkFileFormat/blob/master/Docs/index.md#snappy-compression"
}
func (iwaFormat) Suffix() string { return "iwa" }

func (iwaFormat) Compress(w io.Writer, r io.Reader, blockSize int) error {
	if blockSize == 0 {
		blockSize = iwaMaxBlock
	}
	if blockSize > iwaMaxBlock {
		return fmt.Errorf("iwa: block size %d exceeds maximum %d", blockSize, iwaMaxBlock)
	}

	wb := newWorkBuffer(blockSize)
	var hdr [4]byte
	for {
		n, err := readBlock(r, wb.uc)
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		compressed := snappy.Encode(wb.c, wb.uc[:n])
		hdr[0] = iwaChunkType
		putUint24LE(hdr[1:4], len(compressed))
		if _, err := w.Write(hdr[:]); err != nil {
			return err
		}
		if _, err := w.Write(compressed); err != nil {
			return err
		}
	}
}

func (iwaFormat) Uncompress(w io.Writer, r io.Reader, _ bool) error {
	wb := newWorkBuffer(iwaMaxBlock)
	var hdr [4]byte
	for {
		// chunk type; a clean EOF here ends the stream
		if _, err := io.ReadFull(r, hdr[:1]); err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if hdr[0] != iwaChunkType {
			return fmt.Errorf("iwa: chunk type %#02x: %w", hdr[0], ErrInvalidChunk)
		}
		if err := readFull(r, hdr[1:4]); err != nil {
			return err
		}
		dataLen := uint24LE(hdr[1:4])
		wb.growC(dataLen)
		if err := readFull(r, wb.c[:dataLen]); err != nil {
			return err
		}

		uncompressedLen, err := snappy.DecodedLen(wb.c[:dataLen])
		if err != nil {
			return fmt.Errorf("iwa: %w", err)
		}
		if uncompressedLen > iwaMaxBlock {
			return fmt.Errorf("iwa: uncompressed length %d: %w", uncompressedLen, ErrSizeOverflow)
		}
		decoded, err := snappy.Decode(wb.uc, wb.c[:dataLen])
		if err != nil {
			return fmt.Errorf("iwa: %w", err)
		}
		if _, err := w.Write(decoded); err != nil {
			return err
		}
	}
}

// Copyright (C) 2025 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package stream

import (
	"io"

	"github.com/golang/snappy"

	"github.com/syncthing/szip/lib/crc32c"
)

func uint24LE(b []byte) int {
	return int(b[0]) | int(b[1])<<8 | int(b[2])<<16
}

func putUint24LE(b []byte, v int) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

// readBlock reads up to one block of input. A partial block at the end of
// the stream is returned with a nil error; io.EOF is only returned when no
// bytes at all remain.
func readBlock(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if err == io.ErrUnexpectedEOF {
		return n, nil
	}
	return n, err
}

// emitFunc writes one framed data chunk. data is the chunk payload, either
// Snappy compressed or the verbatim block depending on uncompressed, and
// crc is the masked CRC32C of the uncompressed block.
type emitFunc func(data []byte, uncompressed bool, crc uint32) error

// compressBlocks is the encode loop shared by the formats that distinguish
// compressed from uncompressed chunks: read a block, compress it, keep the
// compressed form only when it saves more than one eighth, and hand the
// result to emit.
func compressBlocks(r io.Reader, wb *workBuffer, emit emitFunc) error {
	for {
		n, err := readBlock(r, wb.uc)
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		src := wb.uc[:n]
		crc := crc32c.Masked(src)
		compressed := snappy.Encode(wb.c, src)
		if len(compressed) >= n-n/8 {
			err = emit(src, true, crc)
		} else {
			err = emit(compressed, false, crc)
		}
		if err != nil {
			return err
		}
	}
}

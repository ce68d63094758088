// Copyright (C) 2025 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package stream

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/golang/snappy"
)

// HadoopSnappy is the block format of Hadoop's SnappyCodec: no magic, no
// checksums, just records of a big endian uncompressed length followed by
// big endian length prefixed compressed blocks until that many bytes have
// been produced.
var HadoopSnappy Format = hadoopFormat{}

// Hadoop's default IO_COMPRESSION_CODEC_SNAPPY_BUFFERSIZE_DEFAULT.
const hadoopDefaultBuffer = 256 * 1024

// hadoopMaxInput mirrors Hadoop's BlockCompressorStream sizing: the codec
// reserves bufferSize/6+32 of the buffer as compression overhead and feeds
// the compressor the rest. Preserved bit for bit for interoperability with
// .snappy files written by Hadoop itself.
func hadoopMaxInput(bufferSize int) int {
	if bufferSize == 0 {
		bufferSize = hadoopDefaultBuffer
	}
	return bufferSize - (bufferSize/6 + 32)
}

type hadoopFormat struct{}

func (hadoopFormat) Name() string   { return "hadoop-snappy" }
func (hadoopFormat) URL() string    { return "https://code.google.com/p/hadoop-snappy/" }
func (hadoopFormat) Suffix() string { return "snappy" }

func (hadoopFormat) Compress(w io.Writer, r io.Reader, blockSize int) error {
	wb := newWorkBuffer(hadoopMaxInput(blockSize))
	var lenbuf [4]byte
	for {
		n, err := readBlock(r, wb.uc)
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		// uncompressed length of the record
		binary.BigEndian.PutUint32(lenbuf[:], uint32(n))
		if _, err := w.Write(lenbuf[:]); err != nil {
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

func (hadoopFormat) Uncompress(w io.Writer, r io.Reader, _ bool) error {
	wb := newWorkBuffer(hadoopMaxInput(0))
	var lenbuf [4]byte
	for {
		// record length; a clean EOF here ends the stream
		if _, err := io.ReadFull(r, lenbuf[:1]); err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if err := readFull(r, lenbuf[1:]); err != nil {
			return err
		}
		sourceLen := int(binary.BigEndian.Uint32(lenbuf[:]))

		for sourceLen > 0 {
			if err := readFull(r, lenbuf[:]); err != nil {
				return err
			}
			compressedLen := int(binary.BigEndian.Uint32(lenbuf[:]))
			wb.growC(compressedLen)
			if err := readFull(r, wb.c[:compressedLen]); err != nil {
				return err
			}

			uncompressedLen, err := snappy.DecodedLen(wb.c[:compressedLen])
			if err != nil {
				return fmt.Errorf("hadoop-snappy: %w", err)
			}
			if uncompressedLen > sourceLen {
				return fmt.Errorf("hadoop-snappy: block decompresses to %d of %d remaining: %w", uncompressedLen, sourceLen, ErrSizeOverflow)
			}
			wb.growUC(uncompressedLen)
			decoded, err := snappy.Decode(wb.uc, wb.c[:compressedLen])
			if err != nil {
				return fmt.Errorf("hadoop-snappy: %w", err)
			}
			if _, err := w.Write(decoded); err != nil {
				return err
			}
			sourceLen -= uncompressedLen
		}
	}
}

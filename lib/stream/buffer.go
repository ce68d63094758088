// Copyright (C) 2025 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package stream

import "github.com/golang/snappy"

// workBuffer holds one block's worth of uncompressed data and its worst
// case compressed expansion. It belongs to a single Compress or Uncompress
// call and is never shared.
type workBuffer struct {
	uc []byte // uncompressed block
	c  []byte // compressed block
}

func newWorkBuffer(blockSize int) *workBuffer {
	return &workBuffer{
		uc: make([]byte, blockSize),
		c:  make([]byte, snappy.MaxEncodedLen(blockSize)),
	}
}

// growC ensures the compressed buffer holds at least n bytes. Buffers grow
// but never shrink.
func (wb *workBuffer) growC(n int) {
	if n > len(wb.c) {
		wb.c = make([]byte, n)
	}
}

// growUC ensures the uncompressed buffer holds at least n bytes.
func (wb *workBuffer) growUC(n int) {
	if n > len(wb.uc) {
		wb.uc = make([]byte, n)
	}
}

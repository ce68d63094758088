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

// Raw is a single Snappy block with no framing at all. The block API
// requires the whole input in memory, so both directions buffer the entire
// stream; there is no block size and no way to detect the format from a
// prefix.
var Raw Format = rawFormat{}

type rawFormat struct{}

func (rawFormat) Name() string   { return "raw" }
func (rawFormat) URL() string    { return "https://github.com/google/snappy" }
func (rawFormat) Suffix() string { return "raw" }

func (rawFormat) Compress(w io.Writer, r io.Reader, _ int) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	_, err = w.Write(snappy.Encode(nil, src))
	return err
}

func (rawFormat) Uncompress(w io.Writer, r io.Reader, _ bool) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	decoded, err := snappy.Decode(nil, src)
	if err != nil {
		return fmt.Errorf("raw: %w", err)
	}
	_, err = w.Write(decoded)
	return err
}

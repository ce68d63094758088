// Copyright (C) 2025 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package stream implements the container formats used to frame Snappy
// compressed data, with a registry keyed by format name, file suffix and
// stream magic.
//
// All formats compress in independent blocks. Block boundaries carry no
// meaning for the consumer; decompression concatenates the block outputs
// verbatim.
package stream

import "io"

// Format is one stream container format. Compress and Uncompress run to
// completion or first error and do not retain the reader or writer.
type Format interface {
	// Name is the identifier used to select the format on the command
	// line.
	Name() string
	// URL points at the format's documentation.
	URL() string
	// Suffix is the canonical file extension, without the dot.
	Suffix() string
	// Compress frames the contents of r into w. A blockSize of zero
	// selects the format default.
	Compress(w io.Writer, r io.Reader, blockSize int) error
	// Uncompress decodes a stream from r into w. With skipMagic the
	// leading magic bytes are taken as already consumed, as after
	// Detect.
	Uncompress(w io.Writer, r io.Reader, skipMagic bool) error
}

// Registry lists all formats, default format first. Suffix lookups take
// the first match, so the order is part of the interface.
var Registry = []Format{
	Framing2,
	Framing,
	Snzip,
	SnappyJava,
	SnappyInJava,
	Comment43,
	HadoopSnappy,
	IWA,
	Raw,
}

// Default is the format used when none is selected.
var Default = Registry[0]

// ByName returns the format with the given name, or nil.
func ByName(name string) Format {
	for _, f := range Registry {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

// BySuffix returns the first format with the given file suffix, or nil.
func BySuffix(suffix string) Format {
	for _, f := range Registry {
		if f.Suffix() == suffix {
			return f
		}
	}
	return nil
}

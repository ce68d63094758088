// Copyright (C) 2025 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package stream

import (
	"bufio"
	"fmt"
	"io"
)

// Detect identifies the stream format from the leading magic bytes,
// consuming them from r. On success the returned format's Uncompress must
// be called on the same reader with skipMagic set. Formats without a magic
// (hadoop-snappy, iwa, raw) cannot be detected.
//
// The dispatch tree, by first byte:
//
//	0xff 0x06 0x00 's'  "NaPpY"  -> framing (nine byte header)
//	0xff 0x06 0x00 's'  "nappy"  -> comment-43
//	0xff 0x06 0x00 0x00 "sNaPpY" -> framing2
//	'S'  "NZ"                    -> snzip
//	0x82 "SNAPPY\x00"            -> snappy-java
//	's'  "nappy\x00"             -> snappy-in-java
//
// The 0x00 fourth byte is what separates framing2 from the older nine
// byte shapes.
func Detect(r *bufio.Reader) (Format, error) {
	c, err := r.ReadByte()
	if err != nil {
		return nil, noEOF(err)
	}
	switch c {
	case 0xff:
		if err := expect(r, "\x06\x00"); err != nil {
			return nil, err
		}
		c, err := r.ReadByte()
		if err != nil {
			return nil, noEOF(err)
		}
		switch c {
		case 's':
			c, err := r.ReadByte()
			if err != nil {
				return nil, noEOF(err)
			}
			switch c {
			case 'N':
				if err := expect(r, "aPpY"); err != nil {
					return nil, err
				}
				return Framing, nil
			case 'n':
				if err := expect(r, "appy"); err != nil {
					return nil, err
				}
				return Comment43, nil
			}
		case 0x00:
			if err := expect(r, "sNaPpY"); err != nil {
				return nil, err
			}
			return Framing2, nil
		}
	case 'S':
		if err := expect(r, "NZ"); err != nil {
			return nil, err
		}
		return Snzip, nil
	case 0x82:
		if err := expect(r, "SNAPPY\x00"); err != nil {
			return nil, err
		}
		return SnappyJava, nil
	case 's':
		if err := expect(r, "nappy\x00"); err != nil {
			return nil, err
		}
		return SnappyInJava, nil
	}
	return nil, ErrUnknownFormat
}

// expect consumes len(want) bytes and requires them to match.
func expect(r io.Reader, want string) error {
	buf := make([]byte, len(want))
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("%w: %w", ErrUnknownFormat, noEOF(err))
	}
	if string(buf) != want {
		return ErrUnknownFormat
	}
	return nil
}

// Copyright (C) 2025 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package crc32c computes the masked CRC32C checksums used by the Snappy
// stream formats.
package crc32c

import "hash/crc32"

// The mask keeps the checksum bytes from ever equaling the payload bytes
// they guard, so a CRC cannot accidentally match checksummed data.
const maskDelta = 0xa282ead8

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Checksum returns the CRC32C (Castagnoli polynomial) of data.
func Checksum(data []byte) uint32 {
	return crc32.Checksum(data, castagnoli)
}

// Update returns the result of adding data to the running checksum crc.
func Update(crc uint32, data []byte) uint32 {
	return crc32.Update(crc, castagnoli, data)
}

// Masked returns the masked CRC32C of data, as stored in checksummed
// stream format chunks.
func Masked(data []byte) uint32 {
	return Mask(Checksum(data))
}

// Mask applies the rotate-then-add transform to a plain CRC32C.
func Mask(crc uint32) uint32 {
	return (crc>>15 | crc<<17) + maskDelta
}

// Unmask is the inverse of Mask.
func Unmask(masked uint32) uint32 {
	crc := masked - maskDelta
	return crc>>17 | crc<<15
}

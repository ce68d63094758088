// Copyright (C) 2025 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

//go:build linux

package main

import (
	"log/slog"
	"os"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/syncthing/szip/internal/slogutil"
)

// copyFileAttributes carries access and modification times (at nanosecond
// precision), ownership and permissions over from the input file to the
// freshly written output. Failures are logged and otherwise ignored; a
// non-root user cannot chown, for one.
func copyFileAttributes(in, out *os.File, outfile string) {
	var st unix.Stat_t
	if err := unix.Fstat(int(in.Fd()), &st); err != nil {
		slog.Debug("fstat failed", slogutil.FilePath(in.Name()), slogutil.Error(err))
		return
	}

	outfd := int(out.Fd())
	times := []unix.Timespec{
		unix.NsecToTimespec(st.Atim.Nano()),
		unix.NsecToTimespec(st.Mtim.Nano()),
	}
	// x/sys/unix has no Futimens wrapper; set times via the /proc/self/fd
	// alias, the same technique unix.Futimes uses on Linux.
	if err := unix.UtimesNano("/proc/self/fd/"+strconv.Itoa(outfd), times); err != nil {
		slog.Debug("futimens failed", slogutil.FilePath(outfile), slogutil.Error(err))
	}
	if err := unix.Fchown(outfd, int(st.Uid), int(st.Gid)); err != nil {
		slog.Debug("fchown failed", slogutil.FilePath(outfile), slogutil.Error(err))
	}
	if err := unix.Fchmod(outfd, st.Mode&0o7777); err != nil {
		slog.Debug("fchmod failed", slogutil.FilePath(outfile), slogutil.Error(err))
	}
}

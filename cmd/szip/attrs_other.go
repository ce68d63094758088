// Copyright (C) 2025 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

//go:build !linux

package main

import (
	"log/slog"
	"os"

	"github.com/syncthing/szip/internal/slogutil"
)

// copyFileAttributes carries the modification time and permissions over
// from the input file to the freshly written output, with whatever
// precision the platform offers. The access time is set to the input's
// modification time as well; ownership is not copied.
func copyFileAttributes(in, _ *os.File, outfile string) {
	fi, err := in.Stat()
	if err != nil {
		slog.Debug("stat failed", slogutil.FilePath(in.Name()), slogutil.Error(err))
		return
	}
	if err := os.Chtimes(outfile, fi.ModTime(), fi.ModTime()); err != nil {
		slog.Debug("chtimes failed", slogutil.FilePath(outfile), slogutil.Error(err))
	}
	if err := os.Chmod(outfile, fi.Mode().Perm()); err != nil {
		slog.Debug("chmod failed", slogutil.FilePath(outfile), slogutil.Error(err))
	}
}

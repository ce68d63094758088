// Copyright (C) 2025 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Command szip compresses and decompresses files framed in any of the
// Snappy stream formats. A binary name containing "un" implies -d, one
// containing "cat" implies -d -c -k, in the manner of gunzip and zcat.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/syncthing/szip/internal/slogutil"
	"github.com/syncthing/szip/lib/stream"
)

type CLI struct {
	Stdout     bool     `short:"c" help:"Write to standard output; keep input files unchanged"`
	Decompress bool     `short:"d" help:"Decompress instead of compress"`
	Keep       bool     `short:"k" help:"Keep (don't delete) input files"`
	Format     string   `short:"t" placeholder:"NAME" help:"Stream format name; the default is ${default_format}"`
	BlockSize  int      `short:"b" placeholder:"BYTES" help:"Block size in bytes"`
	BlockShift int      `short:"B" placeholder:"N" help:"Block size as the N-th power of two"`
	Trace      bool     `short:"T" help:"Enable debug logging"`
	List       bool     `short:"l" help:"List supported stream formats and exit"`
	Files      []string `arg:"" optional:"" help:"Files to process; stdin and stdout when none are given"`
}

func main() {
	progname := filepath.Base(os.Args[0])

	var cli CLI
	kong.Parse(&cli,
		kong.Name(progname),
		kong.Description("Compress or decompress files in Snappy stream formats."),
		kong.Vars{"default_format": stream.Default.Name()},
	)

	// gunzip/zcat style behavior from the binary name
	if strings.Contains(progname, "un") {
		cli.Decompress = true
	}
	if strings.Contains(progname, "cat") {
		cli.Decompress = true
		cli.Stdout = true
		cli.Keep = true
	}

	if cli.Trace {
		slogutil.SetDebug(true)
	}
	if cli.List {
		listFormats(os.Stdout)
		return
	}

	if err := run(&cli); err != nil {
		slog.Error("Operation failed", slogutil.Error(err))
		os.Exit(1)
	}
}

func run(cli *CLI) error {
	format := stream.Default
	if cli.Format != "" {
		if format = stream.ByName(cli.Format); format == nil {
			return fmt.Errorf("unknown stream format name %q", cli.Format)
		}
	}

	blockSize := cli.BlockSize
	if cli.BlockShift != 0 {
		blockSize = 1 << cli.BlockShift
	}

	if len(cli.Files) == 0 {
		return processStdio(cli, format, blockSize)
	}

	for _, infile := range cli.Files {
		if err := processFile(cli, format, blockSize, infile); err != nil {
			return err
		}
	}
	return nil
}

func processStdio(cli *CLI, format stream.Format, blockSize int) error {
	out := bufio.NewWriter(os.Stdout)
	if cli.Decompress {
		in := bufio.NewReader(os.Stdin)
		skipMagic := false
		if cli.Format == "" {
			var err error
			if format, err = stream.Detect(in); err != nil {
				return err
			}
			skipMagic = true
			slog.Debug("Detected stream format", "format", format.Name())
		}
		if err := format.Uncompress(out, in, skipMagic); err != nil {
			return err
		}
	} else {
		if isTerminal(os.Stdout) {
			return fmt.Errorf("refusing to write compressed data to a terminal")
		}
		if err := format.Compress(out, os.Stdin, blockSize); err != nil {
			return err
		}
	}
	return out.Flush()
}

func processFile(cli *CLI, format stream.Format, blockSize int, infile string) error {
	// Sanity check the file suffix before opening anything. A file that
	// already carries a known suffix is not compressed again; a file
	// without one is not decompressed to a guessable name.
	suffix := fileSuffix(infile)
	if cli.Decompress {
		if !cli.Stdout && stream.BySuffix(suffix) == nil {
			slog.Warn("Unknown suffix, skipping", slogutil.FilePath(infile))
			return nil
		}
	} else if f := stream.BySuffix(suffix); f != nil {
		slog.Warn("Already has a stream format suffix, skipping", slogutil.FilePath(infile), "suffix", f.Suffix())
		return nil
	}

	in, err := os.Open(infile)
	if err != nil {
		return err
	}
	defer in.Close()

	skipMagic := false
	var rd *bufio.Reader
	if cli.Decompress {
		rd = bufio.NewReader(in)
		if cli.Format == "" {
			if format, err = stream.Detect(rd); err != nil {
				return fmt.Errorf("%s: %w", infile, err)
			}
			skipMagic = true
			slog.Debug("Detected stream format", slogutil.FilePath(infile), "format", format.Name())
		}
	}

	var out *os.File
	var outfile string
	if cli.Stdout {
		out = os.Stdout
		if !cli.Decompress && isTerminal(out) {
			return fmt.Errorf("refusing to write compressed data to a terminal")
		}
	} else {
		if outfile, err = outputName(infile, format, cli.Decompress); err != nil {
			return err
		}
		if out, err = os.Create(outfile); err != nil {
			return err
		}
	}

	bw := bufio.NewWriter(out)
	if cli.Decompress {
		slog.Debug("Decompressing", slogutil.FilePath(infile), "format", format.Name())
		err = format.Uncompress(bw, rd, skipMagic)
	} else {
		slog.Debug("Compressing", slogutil.FilePath(infile), "format", format.Name())
		err = format.Compress(bw, in, blockSize)
	}
	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		if outfile != "" {
			out.Close()
			os.Remove(outfile)
		}
		return fmt.Errorf("%s: %w", infile, err)
	}

	if outfile != "" {
		copyFileAttributes(in, out, outfile)
		if err := out.Close(); err != nil {
			return err
		}
		if !cli.Keep {
			if err := os.Remove(infile); err != nil {
				slog.Warn("Failed to remove input file", slogutil.FilePath(infile), slogutil.Error(err))
			}
		}
	}
	return nil
}

// outputName derives the output file name: compression appends the
// format's suffix, decompression strips the file's extension.
func outputName(infile string, format stream.Format, decompress bool) (string, error) {
	if !decompress {
		return infile + "." + format.Suffix(), nil
	}
	ext := filepath.Ext(infile)
	if ext == "" {
		return "", fmt.Errorf("%s: cannot derive output name without a suffix", infile)
	}
	return strings.TrimSuffix(infile, ext), nil
}

func fileSuffix(name string) string {
	return strings.TrimPrefix(filepath.Ext(name), ".")
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

func listFormats(w *os.File) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "NAME\tSUFFIX\tURL\n")
	for _, f := range stream.Registry {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name(), f.Suffix(), f.URL())
	}
	tw.Flush()
}

// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command frogfs-ls inspects a frogfs image from the host: listing a
// directory, printing an entry's stat record, or dumping a file's decoded
// contents to stdout.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/frogfs-go/frogfs"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet("frogfs-ls", pflag.ContinueOnError)
	var (
		imagePath = fs.StringP("image", "i", "", "path to a frogfs image file (required)")
		statOnly  = fs.Bool("stat", false, "print the entry's stat record instead of listing or catting it")
		cat       = fs.Bool("cat", false, "print the decoded contents of a file entry to stdout")
		raw       = fs.Bool("raw", false, "with --cat, bypass decompression and print stored bytes")
		verbose   = fs.BoolP("verbose", "v", false, "enable debug logging to stderr")
	)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: frogfs-ls -i IMAGE [flags] [PATH]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "frogfs-ls: -i/--image is required")
		fs.Usage()
		return 2
	}

	path := "/"
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	var logger *slog.Logger
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	data, err := os.ReadFile(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "frogfs-ls: %v\n", err)
		return 1
	}

	img, err := frogfs.Bind(frogfs.Config{BaseAddress: data, Logger: logger, VerifyChecksum: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "frogfs-ls: bind: %v\n", err)
		return 1
	}
	defer img.Release()

	entry, ok := img.Resolve(path)
	if !ok {
		fmt.Fprintf(os.Stderr, "frogfs-ls: %s: no such entry\n", path)
		return 1
	}

	switch {
	case *statOnly:
		printStat(img, entry)
	case *cat:
		return catEntry(img, entry, *raw)
	case entry.IsDir():
		return listDir(img, entry)
	default:
		printStat(img, entry)
	}
	return 0
}

func printStat(img *frogfs.Image, e *frogfs.Entry) {
	st := img.Stat(e)
	if st.IsDir {
		fmt.Printf("%s\tdir\n", displayPath(e))
		return
	}
	fmt.Printf("%s\tfile\tcompression=%d\tlogical=%d\tstored=%d\n",
		displayPath(e), st.Compression, st.LogicalSize, st.CompressedSize)
}

func listDir(img *frogfs.Image, dir *frogfs.Entry) int {
	dh, err := img.OpenDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "frogfs-ls: %v\n", err)
		return 1
	}
	defer dh.Close()
	for {
		child, ok := dh.Next()
		if !ok {
			break
		}
		suffix := ""
		if child.IsDir() {
			suffix = "/"
		}
		fmt.Println(child.Name() + suffix)
	}
	return 0
}

func catEntry(img *frogfs.Image, e *frogfs.Entry, raw bool) int {
	var flags frogfs.OpenFlags
	if raw {
		flags = frogfs.FlagRaw
	}
	h, err := img.Open(e, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "frogfs-ls: %v\n", err)
		return 1
	}
	defer h.Close()
	if _, err := io.Copy(os.Stdout, handleReader{h}); err != nil {
		fmt.Fprintf(os.Stderr, "frogfs-ls: %v\n", err)
		return 1
	}
	return 0
}

func displayPath(e *frogfs.Entry) string {
	if p := e.FullPath(); p != "" {
		return "/" + p
	}
	return "/"
}

// handleReader adapts *frogfs.Handle to io.Reader for io.Copy.
type handleReader struct{ h *frogfs.Handle }

func (r handleReader) Read(buf []byte) (int, error) { return r.h.Read(buf) }

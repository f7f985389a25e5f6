// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command frogfs-gen-testimage packs a directory tree on disk into a frogfs
// image, for use as test fixture data or for manually exercising frogfs-ls.
// It is a development convenience, not the offline packer tool a production
// frogfs deployment would use to build its real image.
package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"
	"github.com/spf13/pflag"

	"github.com/frogfs-go/frogfs/internal/format"
	"github.com/frogfs-go/frogfs/internal/imagebuild"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("frogfs-gen-testimage", pflag.ContinueOnError)
	var (
		srcDir   = flags.StringP("src", "s", "", "directory tree to pack (required)")
		outPath  = flags.StringP("out", "o", "", "output image path (required)")
		deflate  = flags.Bool("deflate", false, "store every file DEFLATE-compressed")
		checksum = flags.Bool("checksum", false, "append a trailing whole-image checksum")
	)
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if *srcDir == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "frogfs-gen-testimage: -s/--src and -o/--out are required")
		return 2
	}

	var files []imagebuild.File
	err := filepath.WalkDir(*srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(*srcDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if !*deflate {
			files = append(files, imagebuild.File{Path: rel, Data: content})
			return nil
		}
		compressed, err := deflateCompress(content)
		if err != nil {
			return err
		}
		files = append(files, imagebuild.File{
			Path:        rel,
			Data:        compressed,
			Compression: format.CompressionDeflate,
			RealSize:    uint32(len(content)),
		})
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "frogfs-gen-testimage: %v\n", err)
		return 1
	}

	image, err := imagebuild.Build(files, imagebuild.Options{AppendChecksumTrailer: *checksum})
	if err != nil {
		fmt.Fprintf(os.Stderr, "frogfs-gen-testimage: %v\n", err)
		return 1
	}

	if err := os.WriteFile(*outPath, image, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "frogfs-gen-testimage: %v\n", err)
		return 1
	}

	fmt.Printf("wrote %s (%d bytes, %d files)\n", *outPath, len(image), len(files))
	return 0
}

func deflateCompress(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package frogfs

import (
	"io"
	"log/slog"

	"github.com/frogfs-go/frogfs/internal/decompress"
)

// PartitionOpener maps a named, platform-defined region to read-only bytes.
// It stands in for whatever facility a given target uses to find and map a
// flash partition; frogfs only ever reads the bytes it returns. The host
// build's default implementation treats the label as a file path and
// memory-maps it.
type PartitionOpener interface {
	// Open returns the mapped bytes for label, and a Closer that releases
	// the mapping. Close may be nil if nothing needs releasing.
	Open(label string) (data []byte, closer io.Closer, err error)
}

// Config selects where a Bind call finds its image bytes, and configures
// optional, non-wire-mandated behavior (logging, checksum verification,
// compression drivers compiled in).
type Config struct {
	// BaseAddress is a pre-mapped slice of image bytes. Takes precedence
	// over PartitionLabel if both are set.
	BaseAddress []byte

	// PartitionLabel names a platform-defined region to map via
	// PartitionOpener. Ignored if BaseAddress is set.
	PartitionLabel string

	// PartitionOpener resolves PartitionLabel to bytes. If nil, a
	// default host opener backed by internal/mmap is used, treating
	// the label as a filesystem path.
	PartitionOpener PartitionOpener

	// Logger receives Debug/Warn diagnostics. Defaults to a discarding
	// handler when nil.
	Logger *slog.Logger

	// VerifyChecksum, if true, checks the optional trailing whole-image
	// checksum on Bind. The format does not require this checksum to be
	// present or correct; a mismatch is logged at Warn and does not fail
	// the bind, per the format's advisory treatment of binary_length and
	// the trailing checksum.
	VerifyChecksum bool

	// HeatshrinkDecoderFactory supplies the Heatshrink decoder. If nil,
	// opening a Heatshrink-compressed entry fails with
	// ErrUnsupportedCompression, exactly as if the algorithm were not
	// compiled in.
	HeatshrinkDecoderFactory decompress.HeatshrinkDecoderFactory
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

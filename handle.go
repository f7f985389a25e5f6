// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package frogfs

import (
	"errors"
	"fmt"
	"io"

	"github.com/frogfs-go/frogfs/internal/decompress"
	"github.com/frogfs-go/frogfs/internal/format"
)

// OpenFlags modify how Open selects a driver for a file entry.
type OpenFlags uint32

// FlagRaw forces raw reads even on a compressed entry, surfacing the
// stored (compressed) bytes unchanged rather than decompressing them.
// Useful for passthrough of pre-compressed payloads, e.g. an HTTP response
// whose client already accepts the stored encoding.
const FlagRaw OpenFlags = 1 << 0

// Handle is an open file, bound to one entry and one decompression driver.
// A Handle is exclusively owned by its opener: the driver's internal
// decode state is mutated by Read, Seek, and Tell, so sharing a Handle
// across goroutines requires external synchronization.
type Handle struct {
	img     *Image
	entry   *Entry
	driver  decompress.Driver
	raw     []byte
	logical int64
	flags   OpenFlags
}

// Open binds entry to a Handle, selecting a decompression driver based on
// the entry's compression algorithm and flags. Open rejects directories
// with ErrNotAFile.
func (img *Image) Open(entry *Entry, flags OpenFlags) (*Handle, error) {
	if img == nil {
		panic(errInvalidImage)
	}
	if entry.IsDir() {
		return nil, ErrNotAFile
	}

	dataOffs := format.DataOffs(img.data, entry.off)
	dataSz := format.DataSz(img.data, entry.off)
	raw := img.data[dataOffs : dataOffs+dataSz]

	compression := format.Compression(img.data, entry.off)
	useRaw := compression == format.CompressionNone || flags&FlagRaw != 0

	var driver decompress.Driver
	var logical int64

	if useRaw {
		driver = decompress.NewRaw(raw)
		logical = int64(dataSz)
	} else {
		realSz := format.RealSz(img.data, entry.off)
		logical = int64(realSz)

		var err error
		switch compression {
		case format.CompressionDeflate:
			driver, err = decompress.NewDeflate(raw, logical, img.logger)
		case format.CompressionHeatshrink:
			if img.heatshrink == nil {
				return nil, ErrUnsupportedCompression
			}
			window, lookahead := format.AlgoOpts(img.data, entry.off)
			driver, err = decompress.NewHeatshrink(raw, logical, window, lookahead, img.heatshrink, img.logger)
		default:
			return nil, ErrUnsupportedCompression
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDriverOpenFailed, err)
		}
	}

	return &Handle{
		img:     img,
		entry:   entry,
		driver:  driver,
		raw:     raw,
		logical: logical,
		flags:   flags,
	}, nil
}

// Read fills buf with up to len(buf) decoded bytes, returning the number
// read and io.EOF once the logical end of the stream has been reached.
func (h *Handle) Read(buf []byte) (int, error) {
	n, err := h.driver.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, mapDriverErr(err)
	}
	return n, err
}

// Seek repositions the logical read cursor. Seeking beyond the logical
// size clamps to that size; a subsequent Read then returns 0, io.EOF.
// Backward seeks on a compressed entry restart decoding from the start of
// the stream, which is observable only via timing, not via correctness.
func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	pos, err := h.driver.Seek(offset, whence)
	if err != nil {
		return pos, mapDriverErr(err)
	}
	return pos, nil
}

// Tell returns the current logical decoded position.
func (h *Handle) Tell() int64 {
	return h.driver.Tell()
}

// Access returns the raw, possibly-compressed payload bytes for this
// entry. The returned slice is valid for the Image's lifetime, independent
// of the Handle.
func (h *Handle) Access() []byte {
	return h.raw
}

// Raw reports whether this handle was opened with FlagRaw.
func (h *Handle) Raw() bool {
	return h.flags&FlagRaw != 0
}

// Close releases the handle's driver state. Safe to call at most once;
// also safe to call on a nil *Handle, as a no-op.
func (h *Handle) Close() error {
	if h == nil {
		return nil
	}
	return h.driver.Close()
}

func mapDriverErr(err error) error {
	switch {
	case errors.Is(err, decompress.ErrCorruptStream):
		return fmt.Errorf("%w: %v", ErrCorruptStream, err)
	case errors.Is(err, decompress.ErrUnsupported):
		return ErrUnsupported
	default:
		return err
	}
}

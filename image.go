// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package frogfs

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dgryski/go-farm"

	"github.com/frogfs-go/frogfs/internal/decompress"
	"github.com/frogfs-go/frogfs/internal/format"
	"github.com/frogfs-go/frogfs/internal/mmap"
)

// Image is a bound, immutable frogfs image. Any number of goroutines may
// call Resolve, Stat and OpenDir on the same Image concurrently
// without synchronization; Open returns a Handle that is exclusively owned
// by its caller.
//
// An Image borrows its bytes for its entire lifetime -- entries, handles,
// and directory iterators derived from it must not outlive a call to
// Release.
type Image struct {
	data         []byte
	closer       io.Closer
	numEntries   uint32
	hashTableOff uint32
	rootOff      uint32
	length       uint32
	logger       *slog.Logger
	heatshrink   decompress.HeatshrinkDecoderFactory
}

// filePartitionOpener is the default PartitionOpener on a host build: it
// treats the label as a file path and memory-maps it read-only.
type filePartitionOpener struct{}

func (filePartitionOpener) Open(label string) ([]byte, io.Closer, error) {
	if label == "" {
		return nil, nil, fmt.Errorf("frogfs: empty partition label")
	}
	m, err := mmap.Open(label)
	if err != nil {
		return nil, nil, err
	}
	return m.Data(), m, nil
}

// Bind validates and binds an image per cfg, returning a ready-to-use
// Image. Bind fails loudly: every header and layout check in this function
// is a hard error, unlike Resolve's soft not-found. The optional checksum
// check (cfg.VerifyChecksum) only logs a mismatch.
func Bind(cfg Config) (*Image, error) {
	logger := cfg.logger()

	data := cfg.BaseAddress
	var closer io.Closer
	if data == nil {
		if cfg.PartitionLabel == "" {
			return nil, ErrConfigMissing
		}
		opener := cfg.PartitionOpener
		if opener == nil {
			opener = filePartitionOpener{}
		}
		mapped, c, err := opener.Open(cfg.PartitionLabel)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBindFailed, err)
		}
		data = mapped
		closer = c
	}

	hdr, err := format.ParseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBindFailed, err)
	}

	if hdr.Magic != format.Magic {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, ErrBadMagic
	}

	if hdr.VerMajor != format.VersionMajor {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, &VersionMismatchError{Found: hdr.VerMajor, Expected: format.VersionMajor}
	}

	hashTableOff := uint32(format.HeaderSize)
	hashTableBytes, overflow := mulOverflows(hdr.NumEntries, format.HashEntrySize)
	if overflow {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("%w: num_entries %d overflows hash table size", ErrBindFailed, hdr.NumEntries)
	}
	rootOff := hashTableOff + hashTableBytes
	if rootOff < hashTableOff || uint64(rootOff) > uint64(len(data)) {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("%w: num_entries %d does not fit in image of length %d", ErrBindFailed, hdr.NumEntries, len(data))
	}

	img := &Image{
		data:         data,
		closer:       closer,
		numEntries:   hdr.NumEntries,
		hashTableOff: hashTableOff,
		rootOff:      rootOff,
		length:       hdr.BinaryLength,
		logger:       logger,
		heatshrink:   cfg.HeatshrinkDecoderFactory,
	}

	if cfg.VerifyChecksum {
		img.verifyChecksum()
	}

	logger.Debug("frogfs: bound image", "num_entries", hdr.NumEntries, "binary_length", hdr.BinaryLength)

	return img, nil
}

// mulOverflows reports whether a*b overflows a uint32, returning the
// product when it does not.
func mulOverflows(a, b uint32) (uint32, bool) {
	if a == 0 {
		return 0, false
	}
	product := a * b
	if product/a != b {
		return 0, true
	}
	return product, false
}

// verifyChecksum checks the optional trailing whole-image checksum. Per
// the format's advisory treatment of this checksum (see the design notes'
// open question), a mismatch is logged but never fails the bind.
func (img *Image) verifyChecksum() {
	const checksumSize = 8
	if int(img.length) < checksumSize || int(img.length) > len(img.data) {
		img.logger.Warn("frogfs: binary_length too small or out of range to carry a trailing checksum, skipping verification",
			"binary_length", img.length, "image_length", len(img.data))
		return
	}
	body := img.data[:img.length-checksumSize]
	trailer := img.data[img.length-checksumSize : img.length]
	want := farm.Hash64(body)
	got := uint64(trailer[0]) | uint64(trailer[1])<<8 | uint64(trailer[2])<<16 | uint64(trailer[3])<<24 |
		uint64(trailer[4])<<32 | uint64(trailer[5])<<40 | uint64(trailer[6])<<48 | uint64(trailer[7])<<56
	if want != got {
		img.logger.Warn("frogfs: trailing checksum mismatch, image may be corrupt", "want", want, "got", got)
	}
}

// Release unmaps the image's backing memory, if Bind owned the mapping.
// Release never fails in the sense of leaving the Image half-torn-down;
// any error from the underlying unmap is returned for visibility only. No
// Entry, Handle, or Dir derived from this Image may be used afterward.
func (img *Image) Release() error {
	if img == nil {
		return nil
	}
	if img.closer == nil {
		return nil
	}
	err := img.closer.Close()
	img.closer = nil
	return err
}

// Root returns the root directory entry. Root panics if img is nil; frogfs
// treats a nil *Image the same way the standard library treats a nil
// *os.File dereference, since there is no data to hand back an Entry over.
func (img *Image) Root() *Entry {
	if img == nil {
		panic(errInvalidImage)
	}
	return &Entry{img: img, off: img.rootOff}
}

// errInvalidImage is the panic value for methods called on a nil *Image.
// The original's frogfs_get_path family asserts on a NULL fs pointer; a Go
// library surfaces that same programmer error as a panic rather than a
// returned error, since there is no recoverable way to answer "what entry
// is this" without an image to read.
var errInvalidImage = errors.New("frogfs: method called on a nil *Image")

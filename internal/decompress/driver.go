// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package decompress implements the per-algorithm streaming drivers that
// back a frogfs file handle: raw passthrough, DEFLATE, and Heatshrink. Each
// driver reads directly from the image's mapped bytes and never allocates
// its input buffer; only the decoder's internal state is heap-allocated.
package decompress

import "errors"

// ErrUnsupported is returned by a driver capability that a given driver
// does not implement (e.g. Seek on a forward-only stream that chooses not
// to support it -- none of the built-in drivers currently do this, but the
// capability set contract requires the possibility).
var ErrUnsupported = errors.New("decompress: capability not supported by this driver")

// ErrCorruptStream is returned when a decoder rejects its compressed input.
var ErrCorruptStream = errors.New("decompress: corrupt compressed stream")

// Driver is the capability set a file handle drives to turn a (possibly
// compressed) payload into a seekable logical byte stream. Seek and Close
// may be unsupported; such a driver returns ErrUnsupported from them. Tell
// has no error result.
type Driver interface {
	// Read fills buf with up to len(buf) decoded bytes, returning the
	// count read. It returns io.EOF once the logical end of stream (the
	// driver's real size) has been reached, never an error, to signal a
	// soft end of stream.
	Read(buf []byte) (int, error)

	// Seek repositions the logical read cursor per io.Seeker semantics,
	// clamped to [0, realSize]. Backward seeks on a forward-only
	// compression stream restart decoding from the beginning.
	Seek(offset int64, whence int) (int64, error)

	// Tell returns the current logical decoded position.
	Tell() int64

	// Close releases any decoder state. Safe to call at most once.
	Close() error
}

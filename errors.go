// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package frogfs

import (
	"errors"
	"fmt"
)

// Sentinel errors for the taxonomy this library surfaces. Compare against
// these with errors.Is; wrapped context does not change identity.
var (
	// ErrConfigMissing is returned by Bind when neither an address nor a
	// partition label was supplied.
	ErrConfigMissing = errors.New("frogfs: no base address or partition label configured")

	// ErrBindFailed is returned by Bind when mapping the partition, or
	// validating the bytes it found there, failed.
	ErrBindFailed = errors.New("frogfs: bind failed")

	// ErrBadMagic is returned by Bind when the header magic doesn't match.
	ErrBadMagic = errors.New("frogfs: bad magic number")

	// ErrVersionMismatch is returned by Bind when the image's major
	// version differs from the version this library was built against.
	ErrVersionMismatch = errors.New("frogfs: incompatible major version")

	// ErrNotAFile is returned by Open when given a directory entry.
	ErrNotAFile = errors.New("frogfs: entry is a directory, not a file")

	// ErrNotADirectory is returned by OpenDir when given a file entry.
	ErrNotADirectory = errors.New("frogfs: entry is a file, not a directory")

	// ErrUnsupportedCompression is returned by Open when an entry's
	// compression algorithm is unknown, or known but not compiled in
	// (no decoder factory configured).
	ErrUnsupportedCompression = errors.New("frogfs: unsupported compression algorithm")

	// ErrDriverOpenFailed is returned by Open when decoder initialization
	// failed.
	ErrDriverOpenFailed = errors.New("frogfs: driver failed to open")

	// ErrCorruptStream is returned by Read or Seek when a decoder
	// rejected its compressed input.
	ErrCorruptStream = errors.New("frogfs: corrupt compressed stream")

	// ErrUnsupported is returned by Seek when the selected driver lacks
	// that capability or does not recognize whence. Tell has no error
	// result and never reports it.
	ErrUnsupported = errors.New("frogfs: operation not supported by this driver")
)

// VersionMismatchError carries the found and expected major versions for a
// failed bind. It wraps ErrVersionMismatch.
type VersionMismatchError struct {
	Found, Expected uint8
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("frogfs: image is format v%d, library supports v%d", e.Found, e.Expected)
}

func (e *VersionMismatchError) Unwrap() error {
	return ErrVersionMismatch
}

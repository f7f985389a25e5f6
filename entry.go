// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package frogfs

import (
	"strings"

	"github.com/frogfs-go/frogfs/internal/format"
)

// maxPath bounds path reconstruction so a corrupt or cyclic parent chain
// cannot spin forever. It mirrors the original implementation's PATH_MAX
// guard in frogfs_get_path.
const maxPath = 4096

// Entry is a borrowed reference to one directory or file record in an
// Image. It is a thin (image, offset) pair: looking up fields always reads
// straight from the mapped bytes, never copies them. An Entry must not be
// used after its Image is released.
type Entry struct {
	img *Image
	off uint32
}

// entryAt constructs an Entry at a validated offset. off must already be
// known to lie within img.data; callers that derive off from untrusted
// input (a parent or child pointer from the image itself) should bounds
// check before calling this.
func entryAt(img *Image, off uint32) *Entry {
	return &Entry{img: img, off: off}
}

// IsDir reports whether e is a directory.
func (e *Entry) IsDir() bool {
	return format.IsDir(e.img.data, e.off)
}

// IsFile reports whether e is a file.
func (e *Entry) IsFile() bool {
	return format.IsFile(e.img.data, e.off)
}

// IsCompressed reports whether e is a file stored compressed.
func (e *Entry) IsCompressed() bool {
	return format.IsCompressed(e.img.data, e.off)
}

// Name returns e's own path segment, e.g. "index.html" for a file stored
// at "/www/index.html". The root's name is "".
func (e *Entry) Name() string {
	return format.Name(e.img.data, e.off)
}

// FullPath reconstructs e's path relative to the root, with no leading
// slash, by walking parent pointers. The root's full path is "". The walk
// is bounded both by the image's entry count (to tolerate a cyclic parent
// chain on a corrupt image without looping forever) and by maxPath (beyond
// which the result is truncated -- a resolver comparing against a
// truncated path simply won't match, which is not a fatal error).
func (e *Entry) FullPath() string {
	if format.Parent(e.img.data, e.off) == 0 {
		// e is the root.
		return ""
	}

	// Walk from e up to (but not including) the root, collecting
	// segments leaf-first, exactly as the original's frogfs_get_path
	// does: at each step the *current* entry's name is recorded, and
	// the walk stops as soon as the current entry's parent is the root.
	var segments []string
	totalLen := 0
	cur := e
	for i := uint32(0); i < e.img.numEntries+1; i++ {
		parentOff := format.Parent(cur.img.data, cur.off)
		if parentOff == 0 {
			// cur is itself the root; nothing left to add.
			break
		}

		name := format.Name(cur.img.data, cur.off)
		segments = append(segments, name)
		totalLen += len(name)
		if totalLen > maxPath {
			break
		}

		if parentOff == e.img.rootOff {
			break
		}
		cur = entryAt(e.img, parentOff)
	}

	// segments is leaf-to-root; reverse it and join with "/".
	var b strings.Builder
	for i := len(segments) - 1; i >= 0; i-- {
		if b.Len() > 0 {
			b.WriteByte('/')
		}
		b.WriteString(segments[i])
	}
	out := b.String()
	if len(out) > maxPath {
		out = out[:maxPath]
	}
	return out
}

// StatRecord summarizes an entry's type, compression, and sizes.
type StatRecord struct {
	IsDir          bool
	Compression    uint8
	LogicalSize    uint32
	CompressedSize uint32
}

// Stat returns a StatRecord for e. Both sizes are zero for directories;
// for uncompressed files they both equal the stored payload length; for
// compressed files LogicalSize is the decompressed length and
// CompressedSize is the stored length.
func (img *Image) Stat(e *Entry) StatRecord {
	if img == nil {
		panic(errInvalidImage)
	}
	if e.IsDir() {
		return StatRecord{IsDir: true}
	}
	st := StatRecord{Compression: format.Compression(img.data, e.off)}
	dataSz := format.DataSz(img.data, e.off)
	st.CompressedSize = dataSz
	if st.Compression == format.CompressionNone {
		st.LogicalSize = dataSz
	} else {
		st.LogicalSize = format.RealSz(img.data, e.off)
	}
	return st
}

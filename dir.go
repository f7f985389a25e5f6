// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package frogfs

import (
	"github.com/frogfs-go/frogfs/internal/format"
)

// Dir iterates the children of a directory entry in stored (packer
// canonical) order. A Dir owns only a cursor index and is not thread-safe
// without external locking.
type Dir struct {
	img *Image
	dir *Entry
	idx uint32
}

// OpenDir returns a Dir over entry's children. A nil entry means the root.
// OpenDir rejects file entries with ErrNotADirectory.
func (img *Image) OpenDir(entry *Entry) (*Dir, error) {
	if img == nil {
		panic(errInvalidImage)
	}
	dir := entry
	if dir == nil {
		dir = img.Root()
	} else if dir.IsFile() {
		return nil, ErrNotADirectory
	}
	return &Dir{img: img, dir: dir}, nil
}

// Next returns the next child entry and true, or (nil, false) once every
// child has been returned.
func (d *Dir) Next() (*Entry, bool) {
	count := format.ChildCount(d.img.data, d.dir.off)
	if d.idx >= count {
		return nil, false
	}
	childOff := format.ChildOffset(d.img.data, d.dir.off, d.idx)
	d.idx++
	return entryAt(d.img, childOff), true
}

// Rewind resets the cursor to the first child.
func (d *Dir) Rewind() {
	d.idx = 0
}

// Seek rewinds and then advances the cursor to position n, clamped to the
// child count.
func (d *Dir) Seek(n uint16) {
	count := format.ChildCount(d.img.data, d.dir.off)
	target := uint32(n)
	if target > count {
		target = count
	}
	d.idx = target
}

// Tell returns the current cursor position.
func (d *Dir) Tell() uint16 {
	return uint16(d.idx)
}

// Close releases the Dir. Safe to call at most once, and safe to call on a
// nil *Dir as a no-op.
func (d *Dir) Close() error {
	return nil
}

// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package frogfs

import (
	"strings"

	"github.com/frogfs-go/frogfs/internal/format"
)

// Resolve looks up path and returns its entry. The second return value is
// false if no entry matches; this is the spec'd soft not-found, not an
// error. Leading slashes are stripped before lookup, so "/foo", "foo", and
// "///foo" resolve identically; the empty path (after stripping) resolves
// to the root.
func (img *Image) Resolve(path string) (*Entry, bool) {
	if img == nil {
		panic(errInvalidImage)
	}
	normalized := strings.TrimLeft(path, "/")
	if normalized == "" {
		return img.Root(), true
	}

	hash := format.DJB2XOR(normalized)

	first, last := 0, int(img.numEntries)-1
	middle := 0
	found := false
	for first <= last {
		middle = first + (last-first)/2
		e := format.ReadHashEntry(img.data, img.hashTableOff, uint32(middle))
		switch {
		case e.Hash == hash:
			found = true
		case e.Hash < hash:
			first = middle + 1
			continue
		default:
			last = middle - 1
			continue
		}
		break
	}
	if !found {
		return nil, false
	}

	// Rewind to the first record in the tied group: the hash index
	// permits ties, and every tied candidate must be examined, not just
	// the first one the binary search happened to land on.
	for middle > 0 {
		prev := format.ReadHashEntry(img.data, img.hashTableOff, uint32(middle-1))
		if prev.Hash != hash {
			break
		}
		middle--
	}

	// Scan forward through the tied group, reconstructing each
	// candidate's full path and comparing against the authoritative key.
	for middle < int(img.numEntries) {
		cand := format.ReadHashEntry(img.data, img.hashTableOff, uint32(middle))
		if cand.Hash != hash {
			break
		}
		entry := entryAt(img, cand.Offs)
		if entry.FullPath() == normalized {
			return entry, true
		}
		middle++
	}

	return nil, false
}

// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package imagebuild assembles conformant frogfs binary images directly in
// memory. It exists so this module's own tests can construct byte-exact
// fixtures, and so the frogfs-gen-testimage dev tool can produce sample
// images from a directory tree, without depending on an external packer --
// it is not the offline packer tool the format's spec treats as a separate,
// out-of-scope collaborator, and it never grows packer concerns (manifest
// parsing, filters, transform pipelines).
package imagebuild

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/dgryski/go-farm"

	"github.com/frogfs-go/frogfs/internal/format"
)

// File describes one file to place in a built image. Data is the payload
// exactly as it should be stored on disk: for Compression ==
// format.CompressionNone, this is the file's literal content; for a
// compressed entry, this must already be compressed (e.g. a raw DEFLATE
// stream), and RealSize must hold the decompressed length.
type File struct {
	Path        string
	Data        []byte
	Compression uint8
	RealSize    uint32
	Window      uint8
	Lookahead   uint8
}

// Options configures Build.
type Options struct {
	// AppendChecksumTrailer appends an 8-byte little-endian farm.Hash64
	// checksum of everything before it as the last 8 bytes of the image,
	// for tests of Config.VerifyChecksum. binary_length counts the trailer.
	AppendChecksumTrailer bool

	// HashOverride forces the stored hash index value for specific
	// normalized paths instead of the real djb2-XOR of that path. The
	// resolver hashes the queried path itself, so an overridden entry is
	// found only when the override equals the real hash of the path being
	// resolved (e.g. overriding one path to another path's hash places it
	// in that path's tied group).
	HashOverride map[string]uint32
}

type node struct {
	name        string
	isDir       bool
	children    []*node
	parent      *node
	file        File
	index       uint32 // position in flat traversal order
	off         uint32 // assigned image offset
	entrySize   uint32
	dataOff     uint32
}

// Build assembles a conformant image containing the given files, creating
// intermediate directories implicitly from path components. Paths are
// slash-separated; leading and trailing slashes are stripped, a path that
// is empty after that is an error, and duplicate paths are an error.
func Build(files []File, opts Options) ([]byte, error) {
	root := &node{isDir: true}
	seen := map[string]bool{}

	for _, f := range files {
		clean := path.Clean(strings.Trim(f.Path, "/"))
		if clean == "" || clean == "." {
			return nil, fmt.Errorf("imagebuild: empty path")
		}
		if seen[clean] {
			return nil, fmt.Errorf("imagebuild: duplicate path %q", clean)
		}
		seen[clean] = true

		segments := strings.Split(clean, "/")
		cur := root
		for i, seg := range segments {
			last := i == len(segments)-1
			if last {
				child := &node{name: seg, isDir: false, file: f, parent: cur}
				cur.children = append(cur.children, child)
				continue
			}
			var next *node
			for _, c := range cur.children {
				if c.isDir && c.name == seg {
					next = c
					break
				}
			}
			if next == nil {
				next = &node{name: seg, isDir: true, parent: cur}
				cur.children = append(cur.children, next)
			}
			cur = next
		}
	}

	var flat []*node
	var walk func(n *node)
	walk = func(n *node) {
		n.index = uint32(len(flat))
		flat = append(flat, n)
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(root)

	numEntries := uint32(len(flat))
	hashTableOff := uint32(format.HeaderSize)
	entriesStart := hashTableOff + numEntries*format.HashEntrySize

	// Pass 1: compute each entry's on-disk size, then its offset.
	running := entriesStart
	for _, n := range flat {
		segSz := len(n.name)
		if n.isDir {
			n.entrySize = format.DirEntrySize(len(n.children), segSz)
		} else if n.file.Compression == format.CompressionNone {
			n.entrySize = format.FileEntrySize(segSz)
		} else {
			n.entrySize = format.CompressedFileEntrySize(segSz)
		}
		n.off = running
		running += n.entrySize
	}

	// Pass 2: lay out file payloads immediately after the entry records,
	// each 4-byte aligned.
	running = uint32(format.Align4(int(running)))
	for _, n := range flat {
		if n.isDir {
			continue
		}
		n.dataOff = running
		running += uint32(len(n.file.Data))
		running = uint32(format.Align4(int(running)))
	}

	total := running
	if opts.AppendChecksumTrailer {
		total += 8
	}
	data := make([]byte, total)

	// Write entry records.
	for _, n := range flat {
		parentOff := uint32(0)
		if n.parent != nil {
			parentOff = n.parent.off
		}
		if n.isDir {
			format.PutCommonPrefix(data, n.off, format.TypeDir, 0, uint16(len(n.name)), parentOff)
			childOffs := make([]uint32, len(n.children))
			for i, c := range n.children {
				childOffs[i] = c.off
			}
			format.PutDirFields(data, n.off, childOffs)
		} else if n.file.Compression == format.CompressionNone {
			format.PutCommonPrefix(data, n.off, format.TypeFile, format.CompressionNone, uint16(len(n.name)), parentOff)
			format.PutFileFields(data, n.off, uint32(len(n.file.Data)), n.dataOff)
		} else {
			format.PutCommonPrefix(data, n.off, format.TypeFile, n.file.Compression, uint16(len(n.name)), parentOff)
			format.PutFileFields(data, n.off, uint32(len(n.file.Data)), n.dataOff)
			format.PutCompressedFields(data, n.off, n.file.RealSize, n.file.Window, n.file.Lookahead)
		}
		nameOff := format.NameOffset(data, n.off)
		format.PutName(data, nameOff, n.name)
	}

	// Write file payloads.
	for _, n := range flat {
		if n.isDir {
			continue
		}
		copy(data[n.dataOff:], n.file.Data)
	}

	// Hash index: one (djb2xor(fullpath), offset) record per entry,
	// including the root (whose full path is "" -- Resolve never
	// actually needs to look the root up by hash, since it special-cases
	// the empty path, but the root is still a real entry and belongs in
	// the index for completeness).
	type hashRec struct {
		hash uint32
		offs uint32
	}
	hashes := make([]hashRec, numEntries)
	for _, n := range flat {
		p := fullPath(n)
		h := format.DJB2XOR(p)
		if override, ok := opts.HashOverride[p]; ok {
			h = override
		}
		hashes[n.index] = hashRec{hash: h, offs: n.off}
	}
	sort.SliceStable(hashes, func(i, j int) bool { return hashes[i].hash < hashes[j].hash })
	for i, h := range hashes {
		format.PutHashEntry(data, hashTableOff, uint32(i), format.HashEntry{Hash: h.hash, Offs: h.offs})
	}

	hdr := format.Header{
		Magic:        format.Magic,
		VerMajor:     format.VersionMajor,
		VerMinor:     format.VersionMinor,
		NumEntries:   numEntries,
		BinaryLength: total,
	}
	format.PutHeader(data, hdr)

	if opts.AppendChecksumTrailer {
		body := data[:total-8]
		sum := farm.Hash64(body)
		trailer := data[total-8 : total]
		for i := 0; i < 8; i++ {
			trailer[i] = byte(sum >> (8 * i))
		}
	}

	return data, nil
}

func fullPath(n *node) string {
	if n.parent == nil {
		return ""
	}
	var segs []string
	for cur := n; cur.parent != nil; cur = cur.parent {
		segs = append(segs, cur.name)
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return strings.Join(segs, "/")
}

// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

//go:build darwin || linux

// Package mmap memory-maps a read-only file, standing in on a host build for
// the flash-partition mapping facility the library consumes on an embedded
// target. It is deliberately tiny: Open, Data, Len, Close.
package mmap

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ReaderAt is a read-only view of a memory-mapped file. The zero value is
// not usable; construct one with Open.
type ReaderAt struct {
	fd   int
	data []byte
}

// Open maps path read-only and advises the kernel that access will be
// random, matching the access pattern of the hash-table lookups and
// directory walks this library performs.
func Open(path string) (*ReaderAt, error) {
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap: open %s: %w", path, err)
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("mmap: fstat %s: %w", path, err)
	}
	if stat.Size == 0 {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("mmap: %s is empty", path)
	}

	data, err := unix.Mmap(fd, 0, int(stat.Size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("mmap: mmap %s: %w", path, err)
	}

	if err := unix.Madvise(data, unix.MADV_RANDOM); err != nil {
		_ = unix.Munmap(data)
		_ = unix.Close(fd)
		return nil, fmt.Errorf("mmap: madvise %s: %w", path, err)
	}

	return &ReaderAt{fd: fd, data: data}, nil
}

// Data returns the mapped bytes. The returned slice is valid until Close.
func (r *ReaderAt) Data() []byte {
	return r.data
}

// Len returns the length of the mapped region.
func (r *ReaderAt) Len() int {
	return len(r.data)
}

// Close unmaps the file and closes its descriptor. A second Close is a
// no-op that returns nil; the caller is responsible for not using Data's
// result afterward.
func (r *ReaderAt) Close() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	if cerr := unix.Close(r.fd); err == nil {
		err = cerr
	}
	return err
}

// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package frogfs is the runtime access library for a read-only,
// content-addressed archive filesystem packed into a single contiguous
// binary image. The image is produced offline by a separate packer tool
// and is immutable once built; this package only ever reads it.
//
// Typical use:
//
//	img, err := frogfs.Bind(frogfs.Config{BaseAddress: imageBytes})
//	if err != nil {
//		...
//	}
//	defer img.Release()
//
//	entry, ok := img.Resolve("index.html")
//	if !ok {
//		...
//	}
//	h, err := img.Open(entry, 0)
//	if err != nil {
//		...
//	}
//	defer h.Close()
//	io.Copy(w, struct{ io.Reader }{h})
//
// Bind validates the image header and fails loudly on a format mismatch.
// Resolve, Stat, and OpenDir may be called concurrently by any number of
// goroutines against the same Image without synchronization; a Handle or
// Dir is exclusively owned by whichever goroutine opened it.
package frogfs

// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package decompress

import "io"

// rawDriver surfaces a file's stored bytes unchanged, with full random
// access. It is selected when an entry is uncompressed, or when the RAW
// open flag forces bypass of a compressed entry's decoder.
type rawDriver struct {
	data []byte
	pos  int64
}

// NewRaw returns a Driver that serves data as-is, without decompression.
func NewRaw(data []byte) Driver {
	return &rawDriver{data: data}
}

func (d *rawDriver) Read(buf []byte) (int, error) {
	if d.pos >= int64(len(d.data)) {
		return 0, io.EOF
	}
	n := copy(buf, d.data[d.pos:])
	d.pos += int64(n)
	return n, nil
}

func (d *rawDriver) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = d.pos + offset
	case io.SeekEnd:
		target = int64(len(d.data)) + offset
	default:
		return d.pos, ErrUnsupported
	}
	if target < 0 {
		target = 0
	}
	if target > int64(len(d.data)) {
		target = int64(len(d.data))
	}
	d.pos = target
	return d.pos, nil
}

func (d *rawDriver) Tell() int64 {
	return d.pos
}

func (d *rawDriver) Close() error {
	return nil
}

// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package format

import "encoding/binary"

// PutCommonPrefix writes the fields shared by every entry record at off.
func PutCommonPrefix(data []byte, off uint32, typ, compression uint8, segSz uint16, parent uint32) {
	data[off] = typ
	data[off+1] = compression
	binary.LittleEndian.PutUint16(data[off+2:off+4], segSz)
	binary.LittleEndian.PutUint32(data[off+4:off+8], parent)
}

// PutDirFields writes a directory entry's child_count and children array,
// which immediately follow the common prefix.
func PutDirFields(data []byte, off uint32, childOffsets []uint32) {
	binary.LittleEndian.PutUint32(data[off+8:off+12], uint32(len(childOffsets)))
	for i, childOff := range childOffsets {
		base := off + dirFixedSize + uint32(i)*4
		binary.LittleEndian.PutUint32(data[base:base+4], childOff)
	}
}

// PutFileFields writes an uncompressed file entry's data_sz and data_offs,
// which immediately follow the common prefix.
func PutFileFields(data []byte, off uint32, dataSz, dataOffs uint32) {
	binary.LittleEndian.PutUint32(data[off+commonPrefixSize:off+commonPrefixSize+4], dataSz)
	binary.LittleEndian.PutUint32(data[off+commonPrefixSize+4:off+commonPrefixSize+8], dataOffs)
}

// PutCompressedFields writes a compressed file entry's real_sz and
// algorithm options, which follow the uncompressed file fields.
func PutCompressedFields(data []byte, off uint32, realSz uint32, window, lookahead uint8) {
	binary.LittleEndian.PutUint32(data[off+fileFixedSize:off+fileFixedSize+4], realSz)
	base := off + fileFixedSize + 4
	data[base] = window
	data[base+1] = lookahead
	data[base+2] = 0
	data[base+3] = 0
}

// PutName writes a NUL-terminated, 4-byte-padded name segment at the
// entry's name offset (off + the size of its fixed fields, which the
// caller computes and passes as nameOff).
func PutName(data []byte, nameOff uint32, name string) {
	copy(data[nameOff:], name)
	data[nameOff+uint32(len(name))] = 0
	// remaining padding bytes are left as whatever the backing buffer
	// was zero-initialized to.
}

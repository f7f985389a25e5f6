// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package format defines the bit-exact on-disk layout of a frogfs image:
// header, hash index, and entry records. It operates directly on the mapped
// image bytes -- apart from Name, which copies a segment into a Go string,
// nothing here allocates on the read path.
package format

import (
	"encoding/binary"
	"fmt"
)

// Magic identifies a frogfs image. It is the ASCII bytes "FROG" read as a
// little-endian uint32.
const Magic = uint32(0x474f5246)

// VersionMajor is the on-disk major format version this package reads.
// A mismatch in the major version is a hard bind failure; minor versions
// are expected to be additive and backwards compatible.
const VersionMajor = uint8(1)

// VersionMinor is the format minor version this package writes.
const VersionMinor = uint8(0)

// HeaderSize is the fixed size, in bytes, of the image header.
const HeaderSize = 16

// HashEntrySize is the size, in bytes, of one (hash, offs) record in the
// hash index.
const HashEntrySize = 8

// Entry type tags (common prefix byte 0).
const (
	TypeDir  = uint8(0)
	TypeFile = uint8(1)
)

// Compression algorithm tags (common prefix byte 1, meaningful only for
// file entries).
const (
	CompressionNone       = uint8(0)
	CompressionDeflate    = uint8(1)
	CompressionHeatshrink = uint8(2)
)

// commonPrefixSize is the length of the fields shared by every entry record:
// type(1) + compression(1) + seg_sz(2) + parent(4).
const commonPrefixSize = 8

// dirFixedSize is the size of a directory entry before its children array:
// commonPrefixSize + child_count(4).
const dirFixedSize = commonPrefixSize + 4

// fileFixedSize is the size of an uncompressed file entry before its name:
// commonPrefixSize + data_sz(4) + data_offs(4).
const fileFixedSize = commonPrefixSize + 8

// compressedFixedSize is the size of a compressed file entry before its
// name: fileFixedSize + real_sz(4) + algorithm options(4).
const compressedFixedSize = fileFixedSize + 8

// Align4 rounds n up to the next multiple of 4.
func Align4(n int) int {
	return (n + 3) &^ 3
}

// Header is the parsed, fixed-size image header.
type Header struct {
	Magic        uint32
	VerMajor     uint8
	VerMinor     uint8
	NumEntries   uint32
	BinaryLength uint32
}

// ParseHeader reads and validates the fixed header at the start of data.
// It does not check the major version against VersionMajor -- callers
// that care about compatibility (the binder) do that themselves so they
// can report VersionMismatch with both the found and expected values.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("format: image too short for header: %d < %d", len(data), HeaderSize)
	}
	h := Header{
		Magic:        binary.LittleEndian.Uint32(data[0:4]),
		VerMajor:     data[4],
		VerMinor:     data[5],
		NumEntries:   binary.LittleEndian.Uint32(data[8:12]),
		BinaryLength: binary.LittleEndian.Uint32(data[12:16]),
	}
	return h, nil
}

// PutHeader encodes h into buf, which must be at least HeaderSize bytes.
func PutHeader(buf []byte, h Header) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	buf[4] = h.VerMajor
	buf[5] = h.VerMinor
	buf[6] = 0
	buf[7] = 0
	binary.LittleEndian.PutUint32(buf[8:12], h.NumEntries)
	binary.LittleEndian.PutUint32(buf[12:16], h.BinaryLength)
}

// HashEntry is one (hash, offs) record in the sorted hash index.
type HashEntry struct {
	Hash uint32
	Offs uint32
}

// ReadHashEntry reads the i'th hash index record, which begins at
// hashTableOff and contains numEntries records of HashEntrySize bytes each.
func ReadHashEntry(data []byte, hashTableOff uint32, i uint32) HashEntry {
	off := hashTableOff + i*HashEntrySize
	return HashEntry{
		Hash: binary.LittleEndian.Uint32(data[off : off+4]),
		Offs: binary.LittleEndian.Uint32(data[off+4 : off+8]),
	}
}

// PutHashEntry encodes e as the i'th hash index record.
func PutHashEntry(data []byte, hashTableOff uint32, i uint32, e HashEntry) {
	off := hashTableOff + i*HashEntrySize
	binary.LittleEndian.PutUint32(data[off:off+4], e.Hash)
	binary.LittleEndian.PutUint32(data[off+4:off+8], e.Offs)
}

// DJB2XOR computes the djb2-XOR hash of s, exactly as the packer does:
//
//	h := 5381
//	for each byte b: h := ((h<<5) + h) XOR b
//
// using 32-bit wraparound arithmetic. This is part of the wire format
// contract and must be reproduced bit-for-bit.
func DJB2XOR(s string) uint32 {
	h := uint32(5381)
	for i := 0; i < len(s); i++ {
		h = ((h << 5) + h) ^ uint32(s[i])
	}
	return h
}

// Type returns the entry type tag at off.
func Type(data []byte, off uint32) uint8 {
	return data[off]
}

// Compression returns the compression tag at off. Meaningful only when
// Type(data, off) == TypeFile.
func Compression(data []byte, off uint32) uint8 {
	return data[off+1]
}

// IsDir reports whether the entry at off is a directory.
func IsDir(data []byte, off uint32) bool {
	return Type(data, off) == TypeDir
}

// IsFile reports whether the entry at off is a file.
func IsFile(data []byte, off uint32) bool {
	return Type(data, off) == TypeFile
}

// IsCompressed reports whether the file entry at off is stored compressed.
func IsCompressed(data []byte, off uint32) bool {
	return IsFile(data, off) && Compression(data, off) != CompressionNone
}

// SegSz returns the byte length of the entry's name segment, excluding
// the NUL terminator and padding.
func SegSz(data []byte, off uint32) uint16 {
	return binary.LittleEndian.Uint16(data[off+2 : off+4])
}

// Parent returns the image offset of the entry's parent directory, or 0
// if the entry is the root.
func Parent(data []byte, off uint32) uint32 {
	return binary.LittleEndian.Uint32(data[off+4 : off+8])
}

// ChildCount returns the number of children of the directory entry at off.
func ChildCount(data []byte, off uint32) uint32 {
	return binary.LittleEndian.Uint32(data[off+8 : off+12])
}

// ChildOffset returns the image offset of the i'th child of the directory
// entry at off, in stored (packer canonical) order.
func ChildOffset(data []byte, off uint32, i uint32) uint32 {
	base := off + dirFixedSize + i*4
	return binary.LittleEndian.Uint32(data[base : base+4])
}

// DataSz returns the stored (possibly compressed) payload length of the
// file entry at off.
func DataSz(data []byte, off uint32) uint32 {
	return binary.LittleEndian.Uint32(data[off+commonPrefixSize : off+commonPrefixSize+4])
}

// DataOffs returns the image offset of the file entry's payload.
func DataOffs(data []byte, off uint32) uint32 {
	return binary.LittleEndian.Uint32(data[off+commonPrefixSize+4 : off+commonPrefixSize+8])
}

// RealSz returns the decompressed logical length of a compressed file
// entry. Only valid when IsCompressed(data, off) is true.
func RealSz(data []byte, off uint32) uint32 {
	return binary.LittleEndian.Uint32(data[off+fileFixedSize : off+fileFixedSize+4])
}

// AlgoOpts returns the algorithm-specific option byte pair (e.g. Heatshrink
// window/lookahead sizes) stored for a compressed file entry.
func AlgoOpts(data []byte, off uint32) (window, lookahead uint8) {
	base := off + fileFixedSize + 4
	return data[base], data[base+1]
}

// NameOffset returns the image offset of the start of the entry's name
// segment, the tail of the record after its variable-length body.
func NameOffset(data []byte, off uint32) uint32 {
	switch Type(data, off) {
	case TypeDir:
		return off + dirFixedSize + ChildCount(data, off)*4
	default:
		if IsCompressed(data, off) {
			return off + compressedFixedSize
		}
		return off + fileFixedSize
	}
}

// Name returns the in-place UTF-8 name segment of the entry at off.
// For the root directory this is the empty string.
func Name(data []byte, off uint32) string {
	segSz := SegSz(data, off)
	if segSz == 0 {
		return ""
	}
	nameOff := NameOffset(data, off)
	return string(data[nameOff : nameOff+uint32(segSz)])
}

// RecordSize returns the total on-disk size of the entry at off, including
// its NUL terminator and padding to the next 4-byte boundary. Useful for
// laying out or walking entries sequentially.
func RecordSize(data []byte, off uint32) uint32 {
	nameOff := NameOffset(data, off)
	segSz := uint32(SegSz(data, off))
	// +1 for the NUL terminator, then padded to 4 bytes.
	return uint32(Align4(int(nameOff-off) + int(segSz) + 1))
}

// DirEntrySize computes the on-disk size a directory entry with the given
// number of children and name segment length will occupy.
func DirEntrySize(childCount int, segSz int) uint32 {
	return uint32(Align4(dirFixedSize + childCount*4 + segSz + 1))
}

// FileEntrySize computes the on-disk size an uncompressed file entry with
// the given name segment length will occupy.
func FileEntrySize(segSz int) uint32 {
	return uint32(Align4(fileFixedSize + segSz + 1))
}

// CompressedFileEntrySize computes the on-disk size a compressed file
// entry with the given name segment length will occupy.
func CompressedFileEntrySize(segSz int) uint32 {
	return uint32(Align4(compressedFixedSize + segSz + 1))
}

// DirFixedSize, FileFixedSize and CompressedFixedSize expose the fixed
// (pre-name) portions of each record kind for callers that lay out images.
const (
	DirFixedSize        = dirFixedSize
	FileFixedSize       = fileFixedSize
	CompressedFixedSize = compressedFixedSize
)

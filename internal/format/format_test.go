// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package format_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/frogfs-go/frogfs/internal/format"
)

func TestDJB2XORKnownValues(t *testing.T) {
	// h starts at 5381 and is unchanged by the empty string.
	assert.EqualValues(t, 5381, format.DJB2XOR(""))

	// Single byte: ((5381<<5)+5381) ^ 'a'.
	want := uint32((uint32(5381)<<5)+5381) ^ uint32('a')
	assert.Equal(t, want, format.DJB2XOR("a"))

	// Hashing is order sensitive.
	assert.NotEqual(t, format.DJB2XOR("ab"), format.DJB2XOR("ba"))
}

func TestHeaderRoundTrip(t *testing.T) {
	buf := make([]byte, format.HeaderSize)
	want := format.Header{Magic: format.Magic, VerMajor: 1, VerMinor: 2, NumEntries: 7, BinaryLength: 4096}
	format.PutHeader(buf, want)

	got, err := format.ParseHeader(buf)
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseHeaderTooShort(t *testing.T) {
	_, err := format.ParseHeader(make([]byte, format.HeaderSize-1))
	assert.Error(t, err)
}

func TestHashEntryRoundTrip(t *testing.T) {
	buf := make([]byte, format.HeaderSize+3*format.HashEntrySize)
	entries := []format.HashEntry{
		{Hash: 1, Offs: 100},
		{Hash: 2, Offs: 200},
		{Hash: 0xffffffff, Offs: 300},
	}
	for i, e := range entries {
		format.PutHashEntry(buf, format.HeaderSize, uint32(i), e)
	}
	for i, want := range entries {
		assert.Equal(t, want, format.ReadHashEntry(buf, format.HeaderSize, uint32(i)))
	}
}

func TestAlign4(t *testing.T) {
	cases := map[int]int{0: 0, 1: 4, 3: 4, 4: 4, 5: 8, 17: 20}
	for in, want := range cases {
		assert.Equal(t, want, format.Align4(in), "Align4(%d)", in)
	}
}

func TestEntrySizesAreFourByteAligned(t *testing.T) {
	assert.Zero(t, format.DirEntrySize(3, 5)%4)
	assert.Zero(t, format.FileEntrySize(9)%4)
	assert.Zero(t, format.CompressedFileEntrySize(1)%4)
}

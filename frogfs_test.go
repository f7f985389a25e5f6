// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package frogfs_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frogfs-go/frogfs"
	"github.com/frogfs-go/frogfs/internal/format"
	"github.com/frogfs-go/frogfs/internal/imagebuild"
)

func deflateCompress(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// scenario 1 from spec.md §8: an uncompressed file.
func TestResolveAndReadUncompressedFile(t *testing.T) {
	content := []byte("hello, world\n")
	img := bindImage(t, []imagebuild.File{
		{Path: "index.html", Data: content, Compression: format.CompressionNone},
	}, imagebuild.Options{})
	defer img.Release()

	entry, ok := img.Resolve("/index.html")
	require.True(t, ok)

	st := img.Stat(entry)
	assert.False(t, st.IsDir)
	assert.EqualValues(t, 0, st.Compression)
	assert.EqualValues(t, len(content), st.LogicalSize)
	assert.EqualValues(t, len(content), st.CompressedSize)

	h, err := img.Open(entry, 0)
	require.NoError(t, err)
	defer h.Close()

	buf := make([]byte, 100)
	n, err := h.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, len(content), n)
	assert.Equal(t, content, buf[:n])

	n, err = h.Read(buf)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
}

// scenario 2 from spec.md §8: a DEFLATE-compressed file.
func TestDeflateCompressedFile(t *testing.T) {
	original := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog\n"), 32)
	compressed := deflateCompress(t, original)
	require.Less(t, len(compressed), len(original))

	img := bindImage(t, []imagebuild.File{
		{
			Path:        "big.txt",
			Data:        compressed,
			Compression: format.CompressionDeflate,
			RealSize:    uint32(len(original)),
		},
	}, imagebuild.Options{})
	defer img.Release()

	entry, ok := img.Resolve("big.txt")
	require.True(t, ok)

	st := img.Stat(entry)
	assert.EqualValues(t, len(original), st.LogicalSize)
	assert.EqualValues(t, len(compressed), st.CompressedSize)

	h, err := img.Open(entry, 0)
	require.NoError(t, err)
	got, err := io.ReadAll(readerFunc(h.Read))
	require.NoError(t, err)
	assert.Equal(t, original, got)
	require.NoError(t, h.Close())

	rawHandle, err := img.Open(entry, frogfs.FlagRaw)
	require.NoError(t, err)
	defer rawHandle.Close()
	rawBuf := make([]byte, len(original))
	n, err := rawHandle.Read(rawBuf)
	assert.NoError(t, err)
	assert.Equal(t, len(compressed), n)
	assert.Equal(t, compressed, rawBuf[:n])
	assert.True(t, rawHandle.Raw())
}

// scenario 3 from spec.md §8: directory iteration in stored order.
func TestDirectoryIterationOrder(t *testing.T) {
	img := bindImage(t, []imagebuild.File{
		{Path: "etc/a", Data: []byte("a")},
		{Path: "etc/b", Data: []byte("b")},
		{Path: "etc/c", Data: []byte("c")},
	}, imagebuild.Options{})
	defer img.Release()

	etc, ok := img.Resolve("/etc")
	require.True(t, ok)
	assert.True(t, etc.IsDir())

	dh, err := img.OpenDir(etc)
	require.NoError(t, err)

	var names []string
	for {
		child, ok := dh.Next()
		if !ok {
			break
		}
		names = append(names, child.Name())
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)

	dh.Seek(2)
	child, ok := dh.Next()
	require.True(t, ok)
	assert.Equal(t, "c", child.Name())

	_, ok = dh.Next()
	assert.False(t, ok)
}

// scenario 4 from spec.md §8: two paths that share a djb2-XOR hash must
// still resolve independently. "ap" and "g6" really collide, so both sit in
// one tied group of the hash index under the hash Resolve computes.
func TestHashCollisionDisambiguation(t *testing.T) {
	require.Equal(t, format.DJB2XOR("ap"), format.DJB2XOR("g6"))

	img := bindImage(t, []imagebuild.File{
		{Path: "ap", Data: []byte("AP")},
		{Path: "g6", Data: []byte("G6")},
	}, imagebuild.Options{})
	defer img.Release()

	ap, ok := img.Resolve("ap")
	require.True(t, ok)
	g6, ok := img.Resolve("g6")
	require.True(t, ok)

	assert.Equal(t, "ap", ap.FullPath())
	assert.Equal(t, "g6", g6.FullPath())

	ha, err := img.Open(ap, 0)
	require.NoError(t, err)
	defer ha.Close()
	buf := make([]byte, 2)
	_, _ = ha.Read(buf)
	assert.Equal(t, []byte("AP"), buf)
}

// scenario 5 from spec.md §8: a corrupted magic fails bind.
func TestBindBadMagic(t *testing.T) {
	data, err := imagebuild.Build([]imagebuild.File{
		{Path: "x", Data: []byte("x")},
	}, imagebuild.Options{})
	require.NoError(t, err)
	data[0] ^= 0xff

	_, err = frogfs.Bind(frogfs.Config{BaseAddress: data})
	assert.ErrorIs(t, err, frogfs.ErrBadMagic)
}

// scenario 6 from spec.md §8: opening a Heatshrink entry without a
// decoder factory configured is the "not compiled in" case.
func TestHeatshrinkNotCompiledIn(t *testing.T) {
	img := bindImage(t, []imagebuild.File{
		{Path: "shrunk.bin", Data: []byte{1, 2, 3}, Compression: format.CompressionHeatshrink, RealSize: 100},
	}, imagebuild.Options{})
	defer img.Release()

	entry, ok := img.Resolve("shrunk.bin")
	require.True(t, ok)

	_, err := img.Open(entry, 0)
	assert.ErrorIs(t, err, frogfs.ErrUnsupportedCompression)
}

func TestResolveEmptyPathIsRoot(t *testing.T) {
	img := bindImage(t, []imagebuild.File{{Path: "a", Data: []byte("a")}}, imagebuild.Options{})
	defer img.Release()

	root, ok := img.Resolve("")
	require.True(t, ok)
	assert.True(t, root.IsDir())
	assert.Equal(t, "", root.FullPath())
}

func TestResolveLeadingSlashesAreEquivalent(t *testing.T) {
	img := bindImage(t, []imagebuild.File{{Path: "foo", Data: []byte("x")}}, imagebuild.Options{})
	defer img.Release()

	e1, ok1 := img.Resolve("/foo")
	e2, ok2 := img.Resolve("foo")
	e3, ok3 := img.Resolve("///foo")
	require.True(t, ok1)
	require.True(t, ok2)
	require.True(t, ok3)
	assert.Equal(t, e1.FullPath(), e2.FullPath())
	assert.Equal(t, e1.FullPath(), e3.FullPath())
}

func TestResolveNotFound(t *testing.T) {
	img := bindImage(t, []imagebuild.File{{Path: "foo", Data: []byte("x")}}, imagebuild.Options{})
	defer img.Release()

	_, ok := img.Resolve("nope")
	assert.False(t, ok)
}

func TestOpenDirectoryFails(t *testing.T) {
	img := bindImage(t, []imagebuild.File{{Path: "dir/a", Data: []byte("x")}}, imagebuild.Options{})
	defer img.Release()

	dir, ok := img.Resolve("dir")
	require.True(t, ok)
	_, err := img.Open(dir, 0)
	assert.ErrorIs(t, err, frogfs.ErrNotAFile)
}

func TestOpenDirOnFileFails(t *testing.T) {
	img := bindImage(t, []imagebuild.File{{Path: "a", Data: []byte("x")}}, imagebuild.Options{})
	defer img.Release()

	f, ok := img.Resolve("a")
	require.True(t, ok)
	_, err := img.OpenDir(f)
	assert.ErrorIs(t, err, frogfs.ErrNotADirectory)
}

func TestSeekZeroThenReadMatchesFreshOpen(t *testing.T) {
	original := bytes.Repeat([]byte("abcdefgh"), 64)
	compressed := deflateCompress(t, original)

	img := bindImage(t, []imagebuild.File{
		{Path: "f", Data: compressed, Compression: format.CompressionDeflate, RealSize: uint32(len(original))},
	}, imagebuild.Options{})
	defer img.Release()

	entry, _ := img.Resolve("f")

	h1, err := img.Open(entry, 0)
	require.NoError(t, err)
	defer h1.Close()
	fresh, err := io.ReadAll(readerFunc(h1.Read))
	require.NoError(t, err)

	h2, err := img.Open(entry, 0)
	require.NoError(t, err)
	defer h2.Close()
	partial := make([]byte, len(original)/2)
	_, err = io.ReadFull(readerFunc(h2.Read), partial)
	require.NoError(t, err)
	_, err = h2.Seek(0, io.SeekStart)
	require.NoError(t, err)
	rewound, err := io.ReadAll(readerFunc(h2.Read))
	require.NoError(t, err)

	assert.Equal(t, fresh, rewound)
	assert.Equal(t, original, fresh)
}

func TestSeekBeyondLogicalSizeClampsAndReadsZero(t *testing.T) {
	content := []byte("short")
	img := bindImage(t, []imagebuild.File{{Path: "f", Data: content}}, imagebuild.Options{})
	defer img.Release()

	entry, _ := img.Resolve("f")
	h, err := img.Open(entry, 0)
	require.NoError(t, err)
	defer h.Close()

	pos, err := h.Seek(1000, io.SeekStart)
	require.NoError(t, err)
	assert.EqualValues(t, len(content), pos)

	buf := make([]byte, 10)
	n, err := h.Read(buf)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestDirectoryTraversalVisitsEveryEntryOnce(t *testing.T) {
	img := bindImage(t, []imagebuild.File{
		{Path: "a/b/c", Data: []byte("1")},
		{Path: "a/b/d", Data: []byte("2")},
		{Path: "a/e", Data: []byte("3")},
		{Path: "f", Data: []byte("4")},
	}, imagebuild.Options{})
	defer img.Release()

	visited := map[string]int{}
	var walk func(e *frogfs.Entry)
	walk = func(e *frogfs.Entry) {
		visited[e.FullPath()]++
		if !e.IsDir() {
			return
		}
		dh, err := img.OpenDir(e)
		require.NoError(t, err)
		for {
			child, ok := dh.Next()
			if !ok {
				break
			}
			walk(child)
		}
	}
	walk(img.Root())

	for _, p := range []string{"", "a", "a/b", "a/b/c", "a/b/d", "a/e", "f"} {
		assert.Equal(t, 1, visited[p], "expected %q to be visited exactly once", p)
	}
	assert.Len(t, visited, 7)
}

func TestVerifyChecksumMismatchIsNonFatal(t *testing.T) {
	data, err := imagebuild.Build([]imagebuild.File{{Path: "a", Data: []byte("a")}}, imagebuild.Options{
		AppendChecksumTrailer: true,
	})
	require.NoError(t, err)
	// Corrupt the trailer so it no longer matches.
	data[len(data)-1] ^= 0xff

	img, err := frogfs.Bind(frogfs.Config{BaseAddress: data, VerifyChecksum: true})
	require.NoError(t, err)
	defer img.Release()

	_, ok := img.Resolve("a")
	assert.True(t, ok)
}

func TestConfigMissing(t *testing.T) {
	_, err := frogfs.Bind(frogfs.Config{})
	assert.ErrorIs(t, err, frogfs.ErrConfigMissing)
}

func TestBindFromPartitionLabelMapsFile(t *testing.T) {
	data, err := imagebuild.Build([]imagebuild.File{
		{Path: "hello", Data: []byte("hi there")},
	}, imagebuild.Options{})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "image.frogfs")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	img, err := frogfs.Bind(frogfs.Config{PartitionLabel: path})
	require.NoError(t, err)
	defer img.Release()

	entry, ok := img.Resolve("hello")
	require.True(t, ok)
	h, err := img.Open(entry, 0)
	require.NoError(t, err)
	defer h.Close()

	buf := make([]byte, 8)
	n, err := h.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hi there", string(buf[:n]))

	require.NoError(t, img.Release())
}

func bindImage(t *testing.T, files []imagebuild.File, opts imagebuild.Options) *frogfs.Image {
	t.Helper()
	data, err := imagebuild.Build(files, opts)
	require.NoError(t, err)
	img, err := frogfs.Bind(frogfs.Config{BaseAddress: data})
	require.NoError(t, err)
	return img
}

// readerFunc adapts a Read method to io.Reader.
type readerFunc func([]byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }

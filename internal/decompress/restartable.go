// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package decompress

import (
	"errors"
	"io"
	"log/slog"
)

// newDecoderFunc produces a fresh decoding io.Reader over the compressed
// payload, starting from its beginning. DEFLATE and Heatshrink both plug in
// here; only the decoder construction differs between them.
type newDecoderFunc func() (io.Reader, error)

// restartable implements the DEFLATE and Heatshrink driver contract: both
// are forward-only compression streams that frogfs must present with
// seekable semantics. A forward seek discards decoded bytes; a backward
// seek restarts the decoder from the start of the compressed payload and
// re-consumes up to the target, exactly as spec'd.
type restartable struct {
	newDecoder newDecoderFunc
	cur        io.Reader
	pos        int64
	realSize   int64
	logger     *slog.Logger
}

func newRestartable(newDecoder newDecoderFunc, realSize int64, logger *slog.Logger) (*restartable, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r, err := newDecoder()
	if err != nil {
		return nil, err
	}
	return &restartable{
		newDecoder: newDecoder,
		cur:        r,
		realSize:   realSize,
		logger:     logger,
	}, nil
}

func (d *restartable) Read(buf []byte) (int, error) {
	if d.pos >= d.realSize {
		return 0, io.EOF
	}
	want := int64(len(buf))
	if remaining := d.realSize - d.pos; want > remaining {
		want = remaining
	}

	n, err := io.ReadFull(d.cur, buf[:want])
	d.pos += int64(n)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
		// The compressed stream ended before producing real_size
		// bytes. This is a short read, not corruption: surface it to
		// the caller as a normal end of stream.
		d.logger.Warn("frogfs: compressed stream ended before logical size reached",
			"position", d.pos, "logical_size", d.realSize)
		return n, io.EOF
	default:
		return n, errCorrupt(err)
	}
}

func (d *restartable) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = d.pos + offset
	case io.SeekEnd:
		target = d.realSize + offset
	default:
		return d.pos, ErrUnsupported
	}
	if target < 0 {
		target = 0
	}
	if target > d.realSize {
		target = d.realSize
	}

	if target < d.pos {
		d.logger.Debug("frogfs: backward seek restarts compression stream", "from", d.pos, "to", target)
		r, err := d.newDecoder()
		if err != nil {
			return d.pos, errCorrupt(err)
		}
		if c, ok := d.cur.(io.Closer); ok {
			_ = c.Close()
		}
		d.cur = r
		d.pos = 0
	}

	if target > d.pos {
		discarded, err := io.CopyN(io.Discard, d.cur, target-d.pos)
		d.pos += discarded
		if err != nil && !errors.Is(err, io.EOF) {
			return d.pos, errCorrupt(err)
		}
	}

	return d.pos, nil
}

func (d *restartable) Tell() int64 {
	return d.pos
}

func (d *restartable) Close() error {
	if c, ok := d.cur.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func errCorrupt(err error) error {
	return errors.Join(ErrCorruptStream, err)
}

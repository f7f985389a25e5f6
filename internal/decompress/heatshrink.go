// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package decompress

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
)

// HeatshrinkDecoderFactory constructs a streaming Heatshrink decoder over
// src, parameterized by the window and lookahead sizes the packer stored
// for this entry. The concrete Heatshrink algorithm is outside this
// library's scope (spec-wise, a compile-time capability); only the factory
// interface and the seekable streaming plumbing around it live here.
type HeatshrinkDecoderFactory func(window, lookahead uint8, src io.Reader) (io.Reader, error)

// NewHeatshrink returns a Driver that decodes src through factory,
// presenting realSize logical bytes, with the same forward-streaming and
// restart-on-backward-seek semantics as the DEFLATE driver. If factory is
// nil the caller should not have selected this driver at all; NewHeatshrink
// returns an error describing that misuse rather than opening anything.
func NewHeatshrink(src []byte, realSize int64, window, lookahead uint8, factory HeatshrinkDecoderFactory, logger *slog.Logger) (Driver, error) {
	if factory == nil {
		return nil, fmt.Errorf("decompress: no Heatshrink decoder factory configured")
	}
	return newRestartable(func() (io.Reader, error) {
		return factory(window, lookahead, bytes.NewReader(src))
	}, realSize, logger)
}

// Copyright 2024 The frogfs Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package decompress

import (
	"bytes"
	"io"
	"log/slog"

	"github.com/klauspost/compress/flate"
)

// NewDeflate returns a Driver that inflates src (a raw DEFLATE stream, no
// zlib or gzip framing) on demand, presenting realSize logical bytes. The
// concrete decoder is github.com/klauspost/compress/flate; the format
// itself is out of scope for this library beyond the driver contract.
func NewDeflate(src []byte, realSize int64, logger *slog.Logger) (Driver, error) {
	return newRestartable(func() (io.Reader, error) {
		return flate.NewReader(bytes.NewReader(src)), nil
	}, realSize, logger)
}

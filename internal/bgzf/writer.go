// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bgzf

import (
	"fmt"
	"io"
)

// blockDataSize keeps the compressed form of incompressible data inside the
// BSIZE limit.
const blockDataSize = 0xff00

// Writer compresses data written to it into BGZF blocks.  Close must be
// called to flush buffered data and append the EOF marker.
type Writer struct {
	w   io.Writer
	buf []byte
}

// NewWriter returns a Writer that writes BGZF blocks to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, buf: make([]byte, 0, blockDataSize)}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	var written int
	for len(p) > 0 {
		n := copy(w.buf[len(w.buf):cap(w.buf)], p)
		w.buf = w.buf[:len(w.buf)+n]
		p = p[n:]
		written += n
		if len(w.buf) == cap(w.buf) {
			if err := w.Flush(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// Flush writes any buffered data as a single block.
func (w *Writer) Flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	block, err := EncodeBlock(w.buf)
	if err != nil {
		return fmt.Errorf("encoding block: %v", err)
	}
	if _, err := w.w.Write(block); err != nil {
		return fmt.Errorf("writing block: %v", err)
	}
	w.buf = w.buf[:0]
	return nil
}

// Close flushes buffered data and writes the EOF marker.  It does not close
// the underlying writer.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	if _, err := w.w.Write(eofMarker); err != nil {
		return fmt.Errorf("writing EOF marker: %v", err)
	}
	return nil
}

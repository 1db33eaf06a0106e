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

// Package stream provides a seekable line reader over a possibly compressed
// Source.  Offsets always refer to the uncompressed stream.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/googlegenomics/gff3/internal/bgzf"
	"github.com/googlegenomics/gff3/source"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies how the bytes of a Source are compressed.
type Codec int

// Supported codecs.
const (
	Plain Codec = iota
	Gzip
	BGZF
	Zstd
	LZ4
)

func (c Codec) String() string {
	switch c {
	case Plain:
		return "plain"
	case Gzip:
		return "gzip"
	case BGZF:
		return "bgzf"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	}
	return fmt.Sprintf("Codec(%d)", int(c))
}

const (
	sniffSize  = 18
	bufferSize = 64 * 1024
)

var (
	gzipMagic = []byte{0x1f, 0x8b, 0x08}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Sniff determines the codec from the first bytes of a Source.
func Sniff(header []byte) Codec {
	switch {
	case bgzf.IsBGZF(header):
		return BGZF
	case bytes.HasPrefix(header, gzipMagic):
		return Gzip
	case bytes.HasPrefix(header, zstdMagic):
		return Zstd
	case bytes.HasPrefix(header, lz4Magic):
		return LZ4
	}
	return Plain
}

// Stream reads decompressed lines from a Source and can be repositioned to
// any uncompressed offset.  A Stream is not safe for concurrent use; use
// Clone to obtain an independent cursor.
type Stream struct {
	ctx   context.Context
	src   source.Source
	codec Codec
	table *bgzf.Table

	raw    io.ReadCloser
	closer func()
	r      *bufio.Reader
	offset int64
}

// Open sniffs the codec used by src and returns a Stream positioned at
// offset 0.
func Open(ctx context.Context, src source.Source) (*Stream, error) {
	head, err := src.NewRangeReader(ctx, 0, sniffSize)
	if err != nil {
		return nil, err
	}
	header, err := io.ReadAll(head)
	head.Close()
	if err != nil {
		return nil, fmt.Errorf("reading header: %v", err)
	}

	s := &Stream{ctx: ctx, src: src, codec: Sniff(header), table: &bgzf.Table{}}
	if err := s.open(0); err != nil {
		return nil, err
	}
	return s, nil
}

// Clone returns an independent Stream over the same Source positioned at
// offset.  BGZF block locations learned by either stream are shared.
func (s *Stream) Clone(ctx context.Context, offset int64) (*Stream, error) {
	clone := &Stream{ctx: ctx, src: s.src, codec: s.codec, table: s.table}
	if err := clone.open(offset); err != nil {
		return nil, err
	}
	return clone, nil
}

// Codec returns the codec detected when the stream was opened.
func (s *Stream) Codec() Codec {
	return s.codec
}

// Offset returns the offset of the next byte to be read.
func (s *Stream) Offset() int64 {
	return s.offset
}

// ReadLine returns the next line with its terminator removed, together with
// the offset at which the line begins.  It returns io.EOF once the stream is
// exhausted.  A final line without a terminator is still returned.
func (s *Stream) ReadLine() (string, int64, error) {
	line, err := s.r.ReadString('\n')
	// Some decoders wrap the end of their input in their own errors.
	if errors.Is(err, io.EOF) {
		err = io.EOF
	}
	if err != nil && (err != io.EOF || line == "") {
		return "", s.offset, err
	}
	start := s.offset
	s.offset += int64(len(line))
	return strings.TrimRight(line, "\r\n"), start, nil
}

// Seek positions the stream so that the next line read begins at offset.
// Short forward seeks are served from the current decoder; everything else
// reopens the source as close to offset as the codec allows.
func (s *Stream) Seek(offset int64) error {
	if offset < 0 {
		return fmt.Errorf("negative offset %d", offset)
	}
	if offset == s.offset {
		return nil
	}
	if offset > s.offset {
		var forward bool
		switch s.codec {
		case Plain:
			forward = offset-s.offset <= int64(s.r.Buffered())
		case BGZF:
			forward = s.table.Locate(offset).Uncompressed <= s.offset
		default:
			forward = true
		}
		if forward {
			return s.discard(offset - s.offset)
		}
	}
	s.release()
	return s.open(offset)
}

// Close releases the underlying readers.
func (s *Stream) Close() error {
	return s.release()
}

func (s *Stream) open(offset int64) error {
	var (
		start, skip int64
		block       bgzf.Block
	)
	switch s.codec {
	case Plain:
		start = offset
	case BGZF:
		block = s.table.Locate(offset)
		start, skip = block.Compressed, offset-block.Uncompressed
	default:
		skip = offset
	}

	raw, err := s.src.NewRangeReader(s.ctx, start, -1)
	if err != nil {
		return err
	}

	var decoded io.Reader
	switch s.codec {
	case Plain:
		decoded = raw
	case Gzip:
		gzr, err := gzip.NewReader(raw)
		if err != nil {
			raw.Close()
			return fmt.Errorf("initializing gzip reader: %v", err)
		}
		decoded, s.closer = gzr, func() { gzr.Close() }
	case BGZF:
		decoded = bgzf.NewReader(raw, block, s.table)
	case Zstd:
		zr, err := zstd.NewReader(raw, zstd.WithDecoderConcurrency(1))
		if err != nil {
			raw.Close()
			return fmt.Errorf("initializing zstd reader: %v", err)
		}
		decoded, s.closer = zr, zr.Close
	case LZ4:
		decoded = lz4.NewReader(raw)
	}

	s.raw = raw
	s.r = bufio.NewReaderSize(decoded, bufferSize)
	s.offset = offset - skip
	return s.discard(skip)
}

func (s *Stream) discard(n int64) error {
	const maxChunk = 1 << 30
	for n > 0 {
		chunk := n
		if chunk > maxChunk {
			chunk = maxChunk
		}
		d, err := s.r.Discard(int(chunk))
		s.offset += int64(d)
		n -= int64(d)
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("seeking %d bytes past the end of the stream: %w", n, io.ErrUnexpectedEOF)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Stream) release() error {
	if s.closer != nil {
		s.closer()
		s.closer = nil
	}
	if s.raw == nil {
		return nil
	}
	err := s.raw.Close()
	s.raw = nil
	return err
}

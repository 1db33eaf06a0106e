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

package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/googlegenomics/gff3/internal/bgzf"
	"github.com/googlegenomics/gff3/source"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLines(n int) []string {
	lines := []string{"##gff-version 3"}
	for i := 1; i <= n; i++ {
		lines = append(lines, fmt.Sprintf("chr%d\ttest\tgene\t%d\t%d\t.\t+\t.\tID=gene%05d", i%3, i*10, i*10+50, i))
	}
	return lines
}

func compress(t *testing.T, codec Codec, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	switch codec {
	case Plain:
		return data
	case Gzip:
		w = gzip.NewWriter(&buf)
	case BGZF:
		w = bgzf.NewWriter(&buf)
	case Zstd:
		zw, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		w = zw
	case LZ4:
		w = lz4.NewWriter(&buf)
	}
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

var codecs = []Codec{Plain, Gzip, BGZF, Zstd, LZ4}

func TestStream_ReadAndSeek(t *testing.T) {
	// Enough lines to span several BGZF blocks.
	lines := testLines(5000)
	data := []byte(strings.Join(lines, "\n") + "\n")

	for _, codec := range codecs {
		t.Run(codec.String(), func(t *testing.T) {
			ctx := context.Background()
			s, err := Open(ctx, source.Bytes(compress(t, codec, data)))
			require.NoError(t, err)
			defer s.Close()
			assert.Equal(t, codec, s.Codec())

			var offsets []int64
			for i := 0; ; i++ {
				line, offset, err := s.ReadLine()
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				require.Less(t, i, len(lines))
				assert.Equal(t, lines[i], line)
				offsets = append(offsets, offset)
			}
			require.Len(t, offsets, len(lines))
			assert.Equal(t, int64(len(data)), s.Offset())

			// Backwards, then forwards with gaps.
			for i := len(offsets) - 1; i >= 0; i -= 997 {
				require.NoError(t, s.Seek(offsets[i]))
				line, offset, err := s.ReadLine()
				require.NoError(t, err)
				assert.Equal(t, lines[i], line)
				assert.Equal(t, offsets[i], offset)
			}
			for i := 3; i < len(offsets); i += 1201 {
				require.NoError(t, s.Seek(offsets[i]))
				line, _, err := s.ReadLine()
				require.NoError(t, err)
				assert.Equal(t, lines[i], line)
			}
		})
	}
}

func TestStream_Clone(t *testing.T) {
	lines := testLines(10)
	data := []byte(strings.Join(lines, "\n"))

	for _, codec := range codecs {
		t.Run(codec.String(), func(t *testing.T) {
			ctx := context.Background()
			s, err := Open(ctx, source.Bytes(compress(t, codec, data)))
			require.NoError(t, err)
			defer s.Close()

			first, _, err := s.ReadLine()
			require.NoError(t, err)
			assert.Equal(t, lines[0], first)

			clone, err := s.Clone(ctx, s.Offset())
			require.NoError(t, err)
			defer clone.Close()
			for _, want := range lines[1:] {
				got, _, err := clone.ReadLine()
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
			_, _, err = clone.ReadLine()
			assert.Equal(t, io.EOF, err)

			// The original cursor did not move.
			second, _, err := s.ReadLine()
			require.NoError(t, err)
			assert.Equal(t, lines[1], second)
		})
	}
}

func TestStream_LineTerminators(t *testing.T) {
	s, err := Open(context.Background(), source.Bytes("a\r\nb\n\nc"))
	require.NoError(t, err)
	defer s.Close()

	for _, want := range []struct {
		line   string
		offset int64
	}{{"a", 0}, {"b", 3}, {"", 5}, {"c", 6}} {
		line, offset, err := s.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, want.line, line)
		assert.Equal(t, want.offset, offset)
	}
	_, _, err = s.ReadLine()
	assert.Equal(t, io.EOF, err)
}

func TestStream_FinalLineWithoutNewline(t *testing.T) {
	for _, codec := range codecs {
		t.Run(codec.String(), func(t *testing.T) {
			s, err := Open(context.Background(), source.Bytes(compress(t, codec, []byte("a\nb"))))
			require.NoError(t, err)
			defer s.Close()

			for _, want := range []string{"a", "b"} {
				line, _, err := s.ReadLine()
				require.NoError(t, err)
				assert.Equal(t, want, line)
			}
			_, _, err = s.ReadLine()
			assert.Equal(t, io.EOF, err)
		})
	}
}

func TestStream_SeekErrors(t *testing.T) {
	data := compress(t, Gzip, []byte("short\n"))
	s, err := Open(context.Background(), source.Bytes(data))
	require.NoError(t, err)
	defer s.Close()

	assert.Error(t, s.Seek(-1))
	err = s.Seek(100)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF), "Seek past end: got %v", err)
}

func TestSniff(t *testing.T) {
	testCases := []struct {
		name   string
		header []byte
		want   Codec
	}{
		{"text", []byte("##gff-version 3\n"), Plain},
		{"empty", nil, Plain},
		{"gzip", []byte{0x1f, 0x8b, 0x08, 0x00, 0, 0, 0, 0, 0, 0xff}, Gzip},
		{"zstd", []byte{0x28, 0xb5, 0x2f, 0xfd, 0x00}, Zstd},
		{"lz4", []byte{0x04, 0x22, 0x4d, 0x18, 0x00}, LZ4},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sniff(tc.header))
		})
	}
}

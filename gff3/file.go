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

// Package gff3 reads General Feature Format version 3 files.
//
// A File can be iterated record by record and queried for the features that
// overlap a region.  Region queries are answered from an index that is built
// in memory while the file is read; it is never written to storage and is
// discarded when the File is closed.
//
// The file format is documented at
// https://github.com/The-Sequence-Ontology/Specifications/blob/master/gff3.md.
package gff3

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/googlegenomics/gff3/internal/index"
	"github.com/googlegenomics/gff3/internal/stream"
	"github.com/googlegenomics/gff3/source"
)

// File is an open GFF3 file.  It is not safe for concurrent use.  Must be
// created with Open or OpenSource and released with Close.
type File struct {
	stream *stream.Stream
	reader *Reader
	index  *index.Index
	logger *slog.Logger

	// Every record starting before indexed has been observed by the index.
	indexed  int64
	complete bool

	fetches map[*Features]bool
	closed  bool
}

// Open opens the GFF3 file at location, which is either a local path or a
// gs:// or s3:// URL.  It fails with ErrVersionMismatch if the file does not
// start with a version 3 directive.
func Open(ctx context.Context, location string, opts ...Option) (*File, error) {
	src, err := source.Parse(ctx, location)
	if err != nil {
		return nil, err
	}
	return OpenSource(ctx, src, opts...)
}

// OpenSource opens the GFF3 file stored in src.  The context is used for
// every read of src made by the sequential cursor.
func OpenSource(ctx context.Context, src source.Source, opts ...Option) (*File, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	idx, err := index.New(o.periods)
	if err != nil {
		return nil, fmt.Errorf("creating index: %v", err)
	}

	s, err := stream.Open(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("opening stream: %w", err)
	}
	reader, err := NewReader(s)
	if err != nil {
		s.Close()
		return nil, err
	}

	f := &File{
		stream:  s,
		reader:  reader,
		index:   idx,
		logger:  o.logger,
		fetches: make(map[*Features]bool),
	}
	reader.Observe(f.observe)
	f.logger.Debug("opened GFF3 file", "codec", s.Codec(), "bucket_width", idx.Width())
	return f, nil
}

func (f *File) observe(record Record, offset int64) {
	if offset < f.indexed {
		return
	}
	f.index.Observe(record.landmark, record.start, record.end, offset)
	f.indexed = offset + 1
}

// Next advances the sequential cursor to the next record.  It returns false
// at the end of the features or on error; check Err to distinguish the two.
func (f *File) Next() bool {
	if f.closed {
		return false
	}
	return f.reader.Next()
}

// Record returns the record produced by the last call to Next.
func (f *File) Record() Record {
	return f.reader.Record()
}

// Offset returns the offset at which the current record begins in the
// uncompressed stream.
func (f *File) Offset() int64 {
	return f.reader.Offset()
}

// Err returns the first error encountered by Next, or os.ErrClosed once the
// file has been closed.
func (f *File) Err() error {
	if f.closed {
		return os.ErrClosed
	}
	return f.reader.Err()
}

// Landmarks returns the sorted names of the landmarks seen so far.  Every
// landmark in the file is included once Indexed returns true.
func (f *File) Landmarks() []string {
	if f.closed {
		return nil
	}
	return f.index.Landmarks()
}

// Indexed returns true if the index covers every record in the file.
func (f *File) Indexed() bool {
	return f.complete
}

// SequenceRegions returns the ##sequence-region directives seen so far.
func (f *File) SequenceRegions() map[string]SequenceRegion {
	return f.reader.SequenceRegions()
}

// Close releases the file and any cursors opened by Fetch.  The index is
// discarded.  Closing a closed file does nothing.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	for fetch := range f.fetches {
		if fetch.err == nil {
			fetch.err = os.ErrClosed
		}
		fetch.Close()
	}
	f.index = nil
	return f.stream.Close()
}

// completeIndex observes every record after the sequential cursor using a
// private cursor, so the caller's iteration position is left untouched.
func (f *File) completeIndex(ctx context.Context) error {
	if f.complete {
		return nil
	}
	if err := f.reader.Err(); err != nil {
		return err
	}
	if !f.reader.Done() {
		s, err := f.stream.Clone(ctx, f.stream.Offset())
		if err != nil {
			return fmt.Errorf("opening indexing cursor: %w", err)
		}
		defer s.Close()

		r := f.reader.fork(s)
		for r.Next() {
		}
		if err := r.Err(); err != nil {
			return fmt.Errorf("indexing: %w", err)
		}
	}
	f.complete = true
	f.indexed = math.MaxInt64
	f.logger.Debug("index complete", "records", f.index.Len(), "landmarks", len(f.index.Landmarks()))
	return nil
}

// Walk opens the file at location and calls fn for each record in file
// order.  It stops at the first error returned by fn and returns it.  The
// file is closed before Walk returns.
func Walk(ctx context.Context, location string, fn func(Record) error, opts ...Option) error {
	f, err := Open(ctx, location, opts...)
	if err != nil {
		return err
	}
	defer f.Close()

	for f.Next() {
		if err := fn(f.Record()); err != nil {
			return err
		}
	}
	return f.Err()
}

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

package gff3

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/googlegenomics/gff3/internal/genomics"
	"github.com/googlegenomics/gff3/internal/index"
	"github.com/googlegenomics/gff3/internal/stream"
)

// Fetch returns the records on landmark that overlap [start, end] (1-based,
// inclusive), restricted to records of type typ unless typ is empty.  The
// records are produced in file order.
//
// The input is not assumed to be sorted, so the first Fetch reads the rest
// of the file to complete the index.  Neither this nor reading the results
// moves the sequential cursor.
func (f *File) Fetch(ctx context.Context, landmark string, start, end int64, typ string) (*Features, error) {
	region := genomics.Region{Landmark: landmark, Start: start, End: end}
	if err := region.Validate(); err != nil {
		return nil, err
	}
	if f.closed {
		return nil, fmt.Errorf("fetching %v: %w", region, os.ErrClosed)
	}
	if err := f.completeIndex(ctx); err != nil {
		return nil, err
	}

	var entries []index.Entry
	for _, entry := range f.index.Candidates(landmark, start, end) {
		if entry.Start <= end && entry.End >= start {
			entries = append(entries, entry)
		}
	}
	f.logger.Debug("fetching", "region", region, "type", typ, "candidates", len(entries))

	features := &Features{file: f, region: region, typ: typ, entries: entries}
	if len(entries) == 0 {
		return features, nil
	}
	s, err := f.stream.Clone(ctx, entries[0].Offset)
	if err != nil {
		return nil, fmt.Errorf("opening fetch cursor: %w", err)
	}
	features.s = s
	f.fetches[features] = true
	return features, nil
}

// Features iterates over the records returned by Fetch.  It reads from its
// own cursor, so several can be consumed at once, but none may outlive the
// File.  Close releases the cursor early; it is released automatically once
// Next returns false.
type Features struct {
	file    *File
	s       *stream.Stream
	region  genomics.Region
	typ     string
	entries []index.Entry

	record Record
	err    error
}

// Next advances to the next matching record.
func (it *Features) Next() bool {
	for it.err == nil && len(it.entries) > 0 {
		entry := it.entries[0]
		it.entries = it.entries[1:]

		if err := it.s.Seek(entry.Offset); err != nil {
			it.err = fmt.Errorf("seeking to %d: %w", entry.Offset, err)
			break
		}
		line, _, err := it.s.ReadLine()
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			it.err = fmt.Errorf("reading record at %d: %w", entry.Offset, err)
			break
		}
		record, err := Decode(line)
		if err != nil {
			it.err = fmt.Errorf("record at %d: %w", entry.Offset, err)
			break
		}

		if !record.Overlaps(it.region.Landmark, it.region.Start, it.region.End) {
			continue
		}
		if it.typ != "" && record.typ != it.typ {
			continue
		}
		it.record = record
		return true
	}
	it.Close()
	return false
}

// Record returns the record produced by the last call to Next.
func (it *Features) Record() Record {
	return it.record
}

// Err returns the first error encountered by Next.  It is os.ErrClosed if
// the File was closed before every record was read.
func (it *Features) Err() error {
	return it.err
}

// Close releases the cursor.  It is safe to call more than once.
func (it *Features) Close() error {
	it.entries = nil
	if it.s == nil {
		return nil
	}
	delete(it.file.fetches, it)
	err := it.s.Close()
	it.s = nil
	return err
}

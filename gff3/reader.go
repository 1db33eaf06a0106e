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
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/googlegenomics/gff3/internal/stream"
)

const (
	versionDirective        = "##gff-version"
	sequenceRegionDirective = "##sequence-region"
	fastaDirective          = "##FASTA"
)

// SequenceRegion describes a landmark as declared by a ##sequence-region
// directive.
type SequenceRegion struct {
	Landmark   string
	Start, End int64
}

// Reader produces the records of a GFF3 stream in file order.  It is a
// forward-only, single pass iterator:
//
//	for r.Next() {
//		record := r.Record()
//		...
//	}
//	if err := r.Err(); err != nil {
//		...
//	}
type Reader struct {
	s    *stream.Stream
	line int

	record Record
	offset int64
	err    error
	done   bool

	regions   map[string]SequenceRegion
	observers []func(Record, int64)
}

// NewReader reads and checks the version directive from s and returns a
// Reader positioned at the first line after it.
func NewReader(s *stream.Stream) (*Reader, error) {
	line, _, err := s.ReadLine()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file: %w", ErrVersionMismatch)
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %v", err)
	}
	if err := checkVersion(line); err != nil {
		return nil, err
	}
	return &Reader{s: s, line: 1, regions: make(map[string]SequenceRegion)}, nil
}

func checkVersion(line string) error {
	fields := strings.Fields(strings.TrimPrefix(line, "\ufeff"))
	if len(fields) < 2 || fields[0] != versionDirective {
		return fmt.Errorf("missing %s directive (got %q): %w", versionDirective, line, ErrVersionMismatch)
	}
	if major, _, _ := strings.Cut(fields[1], "."); major != "3" {
		return fmt.Errorf("GFF version is %s, but must be 3: %w", fields[1], ErrVersionMismatch)
	}
	return nil
}

// Observe registers fn to be called with every record the Reader produces
// and the offset at which its line begins.
func (r *Reader) Observe(fn func(Record, int64)) {
	r.observers = append(r.observers, fn)
}

// fork returns a Reader that continues from s with the same observers and
// directive state.  s must be positioned where r would read next.
func (r *Reader) fork(s *stream.Stream) *Reader {
	return &Reader{s: s, line: r.line, regions: r.regions, observers: r.observers}
}

// Next advances to the next record.  It returns false at the end of the
// features or on error; check Err to distinguish the two.
func (r *Reader) Next() bool {
	if r.done || r.err != nil {
		return false
	}
	for {
		line, offset, err := r.s.ReadLine()
		if err == io.EOF {
			r.done = true
			return false
		}
		if err != nil {
			r.err = fmt.Errorf("reading line %d: %w", r.line+1, err)
			return false
		}
		r.line++

		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if r.directive(line) {
				r.done = true
				return false
			}
			continue
		}

		record, err := Decode(line)
		if err != nil {
			r.err = fmt.Errorf("line %d: %w", r.line, err)
			return false
		}
		r.record, r.offset = record, offset
		for _, observe := range r.observers {
			observe(record, offset)
		}
		return true
	}
}

// directive records the directives the reader understands and reports
// whether the line ends the feature section.
func (r *Reader) directive(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case fastaDirective:
		return true
	case sequenceRegionDirective:
		if len(fields) != 4 {
			return false
		}
		start, err1 := strconv.ParseInt(fields[2], 10, 64)
		end, err2 := strconv.ParseInt(fields[3], 10, 64)
		if err1 == nil && err2 == nil {
			r.regions[fields[1]] = SequenceRegion{fields[1], start, end}
		}
	}
	return false
}

// Record returns the record produced by the last call to Next.
func (r *Reader) Record() Record {
	return r.record
}

// Offset returns the offset at which the current record's line begins.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Line returns the number of lines consumed so far, including the header.
func (r *Reader) Line() int {
	return r.line
}

// Err returns the first error encountered by Next.
func (r *Reader) Err() error {
	return r.err
}

// Done returns true once the end of the features has been reached.
func (r *Reader) Done() bool {
	return r.done
}

// SequenceRegions returns the ##sequence-region directives read so far.
func (r *Reader) SequenceRegions() map[string]SequenceRegion {
	regions := make(map[string]SequenceRegion, len(r.regions))
	for name, region := range r.regions {
		regions[name] = region
	}
	return regions
}

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
	"bufio"
	"fmt"
	"io"
	"sort"
)

// Writer writes records as a new GFF3 file.  The version directive is
// written before the first record, or by Flush if no record was written.
type Writer struct {
	w       *bufio.Writer
	started bool
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) start() error {
	if w.started {
		return nil
	}
	w.started = true
	if _, err := fmt.Fprintf(w.w, "%s 3\n", versionDirective); err != nil {
		return fmt.Errorf("writing header: %v", err)
	}
	return nil
}

// WriteSequenceRegions writes a ##sequence-region directive for each region,
// ordered by landmark.
func (w *Writer) WriteSequenceRegions(regions map[string]SequenceRegion) error {
	if err := w.start(); err != nil {
		return err
	}
	names := make([]string, 0, len(regions))
	for name := range regions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		region := regions[name]
		if _, err := fmt.Fprintf(w.w, "%s %s %d %d\n", sequenceRegionDirective, region.Landmark, region.Start, region.End); err != nil {
			return fmt.Errorf("writing directive: %v", err)
		}
	}
	return nil
}

// Write writes record as a single line.
func (w *Writer) Write(record Record) error {
	if err := w.start(); err != nil {
		return err
	}
	if _, err := w.w.WriteString(record.String()); err != nil {
		return fmt.Errorf("writing record: %v", err)
	}
	return w.w.WriteByte('\n')
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.start(); err != nil {
		return err
	}
	return w.w.Flush()
}

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

// Package index contains an in-memory index that maps feature positions to
// the stream offsets where the features were read.
package index

import (
	"fmt"
	"sort"

	"github.com/google/btree"
)

const (
	// DefaultPeriods gives buckets that are 1000 positions wide.
	DefaultPeriods = 3

	// Bucket widths beyond 10^18 do not fit in an int64.
	maximumPeriods = 18

	degree = 16
)

// Entry records where in the stream a feature covering [Start, End] begins.
type Entry struct {
	Start, End int64
	Offset     int64
}

type bucket struct {
	id      int64
	entries []Entry
}

func lessBucket(a, b *bucket) bool {
	return a.id < b.id
}

type landmark struct {
	buckets *btree.BTreeG[*bucket]
	// maxSpan is the largest end-start seen, used to reach features that
	// start in buckets before the queried range.
	maxSpan int64
}

// Index groups entries by landmark and then by a bucket derived from the
// feature start.  Must be created with New.  An Index is not safe for
// concurrent use.
type Index struct {
	width     int64
	landmarks map[string]*landmark
	entries   int
}

// New returns an empty Index whose buckets are 10^periods positions wide.
func New(periods int) (*Index, error) {
	if periods < 0 || periods > maximumPeriods {
		return nil, fmt.Errorf("periods %d out of range [0, %d]", periods, maximumPeriods)
	}
	width := int64(1)
	for i := 0; i < periods; i++ {
		width *= 10
	}
	return &Index{width: width, landmarks: make(map[string]*landmark)}, nil
}

// Width returns the number of positions covered by each bucket.
func (idx *Index) Width() int64 {
	return idx.width
}

// Len returns the number of entries observed.
func (idx *Index) Len() int {
	return idx.entries
}

// Landmarks returns the sorted names of every landmark observed.
func (idx *Index) Landmarks() []string {
	names := make([]string, 0, len(idx.landmarks))
	for name := range idx.landmarks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Observe records that a feature on the named landmark covering [start, end]
// begins at offset.  It must be called at most once per offset.
func (idx *Index) Observe(name string, start, end, offset int64) {
	lm, ok := idx.landmarks[name]
	if !ok {
		lm = &landmark{buckets: btree.NewG(degree, lessBucket)}
		idx.landmarks[name] = lm
	}
	if span := end - start; span > lm.maxSpan {
		lm.maxSpan = span
	}

	id := start / idx.width
	b, ok := lm.buckets.Get(&bucket{id: id})
	if !ok {
		b = &bucket{id: id}
		lm.buckets.ReplaceOrInsert(b)
	}
	b.entries = append(b.entries, Entry{start, end, offset})
	idx.entries++
}

// Candidates returns every entry on the named landmark whose bucket can hold
// a feature overlapping [start, end], in ascending offset order.  The result
// may contain entries that do not overlap the range but never omits one that
// does among those observed so far.
func (idx *Index) Candidates(name string, start, end int64) []Entry {
	lm, ok := idx.landmarks[name]
	if !ok || start > end {
		return nil
	}

	if start < 1 {
		start = 1
	}
	first, last := bucketsForRange(start-lm.maxSpan, end, idx.width)
	var candidates []Entry
	lm.buckets.AscendGreaterOrEqual(&bucket{id: first}, func(b *bucket) bool {
		if b.id > last {
			return false
		}
		candidates = append(candidates, b.entries...)
		return true
	})
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Offset < candidates[j].Offset
	})
	return candidates
}

// bucketsForRange returns the inclusive range of bucket IDs that can contain
// a start position in [start, end].
func bucketsForRange(start, end, width int64) (int64, int64) {
	if start < 0 {
		start = 0
	}
	return start / width, end / width
}

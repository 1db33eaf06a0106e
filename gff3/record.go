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
	"cmp"
	"net/url"
	"strconv"
	"strings"

	"github.com/googlegenomics/gff3/internal/genomics"
)

// Strand is the strand a feature lies on.
type Strand byte

// Valid strands.
const (
	StrandNone    Strand = '.'
	StrandForward Strand = '+'
	StrandReverse Strand = '-'
)

func (s Strand) String() string {
	return string(rune(s))
}

// Phase is the number of bases to remove from the start of a CDS feature to
// reach the first base of the next codon.
type Phase int8

// PhaseUnset marks a feature without a phase.
const PhaseUnset Phase = -1

func (p Phase) String() string {
	if p == PhaseUnset {
		return "."
	}
	return strconv.Itoa(int(p))
}

// Attribute is a single tag=value pair from the ninth column.
type Attribute struct {
	Tag, Value string
}

// Record is a decoded feature line.  Records are values: they hold no
// reference to the file they were read from and cannot be modified once
// decoded.
type Record struct {
	landmark string
	source   string
	typ      string

	start, end int64

	score    float64
	hasScore bool
	strand   Strand
	phase    Phase

	// Kept in file order so rendering is stable.
	attributes []Attribute
}

// Landmark returns the ID of the sequence providing the coordinate system.
func (r Record) Landmark() string { return r.landmark }

// Source returns the program or database that generated the feature.
func (r Record) Source() string { return r.source }

// Type returns the feature type, such as "gene" or "CDS".
func (r Record) Type() string { return r.typ }

// Start returns the 1-based position of the first base of the feature.
func (r Record) Start() int64 { return r.start }

// End returns the 1-based position of the last base of the feature.
func (r Record) End() int64 { return r.end }

// Length returns the number of bases covered by the feature.
func (r Record) Length() int64 { return r.end - r.start + 1 }

// Score returns the score and whether one was set.
func (r Record) Score() (float64, bool) { return r.score, r.hasScore }

// Strand returns the strand of the feature.
func (r Record) Strand() Strand { return r.strand }

// Phase returns the phase of the feature, or PhaseUnset.
func (r Record) Phase() Phase { return r.phase }

// Attribute returns the raw value stored for tag.
func (r Record) Attribute(tag string) (string, bool) {
	for _, attr := range r.attributes {
		if attr.Tag == tag {
			return attr.Value, true
		}
	}
	return "", false
}

// HasAttribute returns true if tag is present in the attributes column.
func (r Record) HasAttribute(tag string) bool {
	_, ok := r.Attribute(tag)
	return ok
}

// Values returns the comma separated values stored for tag with percent
// escapes decoded.  It returns nil if tag is not present.
func (r Record) Values(tag string) []string {
	raw, ok := r.Attribute(tag)
	if !ok {
		return nil
	}
	values := strings.Split(raw, ",")
	for i, v := range values {
		if decoded, err := url.PathUnescape(v); err == nil {
			values[i] = decoded
		}
	}
	return values
}

// Attributes returns a copy of every tag and its raw value.
func (r Record) Attributes() map[string]string {
	attrs := make(map[string]string, len(r.attributes))
	for _, attr := range r.attributes {
		attrs[attr.Tag] = attr.Value
	}
	return attrs
}

// AttributeList returns a copy of the attributes in file order.
func (r Record) AttributeList() []Attribute {
	return append([]Attribute(nil), r.attributes...)
}

// Overlaps returns true if the feature shares at least one base with
// [start, end] on landmark.
func (r Record) Overlaps(landmark string, start, end int64) bool {
	return genomics.Region{Landmark: landmark, Start: start, End: end}.Overlaps(r.landmark, r.start, r.end)
}

// Compare orders records by landmark, then start, then end.  It returns a
// negative number, zero or a positive number when r sorts before, with or
// after other.  No other field takes part in the ordering.
func (r Record) Compare(other Record) int {
	if c := strings.Compare(r.landmark, other.landmark); c != 0 {
		return c
	}
	if c := cmp.Compare(r.start, other.start); c != 0 {
		return c
	}
	return cmp.Compare(r.end, other.end)
}

// Less returns true if r sorts before other.
func (r Record) Less(other Record) bool {
	return r.Compare(other) < 0
}

// Equal returns true if r and other have the same landmark, start and end.
func (r Record) Equal(other Record) bool {
	return r.Compare(other) == 0
}

// String renders the record as a tab-delimited GFF3 feature line without a
// line terminator.
func (r Record) String() string {
	score := "."
	if r.hasScore {
		score = strconv.FormatFloat(r.score, 'g', -1, 64)
	}

	attributes := "."
	if len(r.attributes) > 0 {
		pairs := make([]string, len(r.attributes))
		for i, attr := range r.attributes {
			pairs[i] = attr.Tag + "=" + attr.Value
		}
		attributes = strings.Join(pairs, ";")
	}

	return strings.Join([]string{
		r.landmark,
		r.source,
		r.typ,
		strconv.FormatInt(r.start, 10),
		strconv.FormatInt(r.end, 10),
		score,
		r.strand.String(),
		r.phase.String(),
		attributes,
	}, "\t")
}

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
	"strconv"
	"strings"
)

// Column positions of a feature line.
const (
	fieldLandmark = iota
	fieldSource
	fieldType
	fieldStart
	fieldEnd
	fieldScore
	fieldStrand
	fieldPhase
	fieldAttributes

	fieldCount
)

const unset = "."

// Decode parses one feature line.  Any failure wraps ErrMalformedRecord.
func Decode(line string) (Record, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) != fieldCount {
		return Record{}, malformed("got %d fields, want %d", len(fields), fieldCount)
	}

	r := Record{
		landmark: fields[fieldLandmark],
		source:   fields[fieldSource],
		typ:      fields[fieldType],
	}

	var err error
	if r.start, err = parsePosition("start", fields[fieldStart]); err != nil {
		return Record{}, err
	}
	if r.end, err = parsePosition("end", fields[fieldEnd]); err != nil {
		return Record{}, err
	}
	if r.end < r.start {
		return Record{}, malformed("end %d before start %d", r.end, r.start)
	}

	if score := fields[fieldScore]; score != unset {
		if r.score, err = strconv.ParseFloat(score, 64); err != nil {
			return Record{}, malformed("invalid score %q", score)
		}
		r.hasScore = true
	}

	switch strand := fields[fieldStrand]; strand {
	case "+", "-", ".":
		r.strand = Strand(strand[0])
	default:
		return Record{}, malformed("invalid strand %q", strand)
	}

	switch phase := fields[fieldPhase]; phase {
	case unset:
		r.phase = PhaseUnset
	case "0", "1", "2":
		r.phase = Phase(phase[0] - '0')
	default:
		return Record{}, malformed("invalid phase %q", phase)
	}

	if r.attributes, err = parseAttributes(fields[fieldAttributes]); err != nil {
		return Record{}, err
	}
	return r, nil
}

func parsePosition(name, value string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 1 {
		return 0, malformed("invalid %s %q", name, value)
	}
	return n, nil
}

// parseAttributes splits the ninth column into tag=value pairs.  Empty
// segments, as left by a trailing semicolon, are ignored.
func parseAttributes(column string) ([]Attribute, error) {
	if column == unset || column == "" {
		return nil, nil
	}

	var attributes []Attribute
	seen := make(map[string]bool)
	for _, pair := range strings.Split(column, ";") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		tag, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, malformed("attribute %q has no value", pair)
		}
		if tag == "" {
			return nil, malformed("attribute %q has no tag", pair)
		}
		if seen[tag] {
			return nil, malformed("duplicate attribute %q", tag)
		}
		seen[tag] = true
		attributes = append(attributes, Attribute{tag, value})
	}
	return attributes, nil
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrMalformedRecord)
}

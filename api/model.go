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

package api

import "github.com/googlegenomics/gff3/gff3"

// feature is the JSON representation of a record.  Unset columns are
// omitted.
type feature struct {
	Landmark   string      `json:"landmark"`
	Source     string      `json:"source"`
	Type       string      `json:"type"`
	Start      int64       `json:"start"`
	End        int64       `json:"end"`
	Score      *float64    `json:"score,omitempty"`
	Strand     string      `json:"strand"`
	Phase      *int        `json:"phase,omitempty"`
	Attributes []attribute `json:"attributes,omitempty"`
}

type attribute struct {
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

func newFeature(record gff3.Record) feature {
	f := feature{
		Landmark: record.Landmark(),
		Source:   record.Source(),
		Type:     record.Type(),
		Start:    record.Start(),
		End:      record.End(),
		Strand:   record.Strand().String(),
	}
	if score, ok := record.Score(); ok {
		f.Score = &score
	}
	if phase := record.Phase(); phase != gff3.PhaseUnset {
		p := int(phase)
		f.Phase = &p
	}
	for _, attr := range record.AttributeList() {
		f.Attributes = append(f.Attributes, attribute{attr.Tag, attr.Value})
	}
	return f
}

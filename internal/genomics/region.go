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

// Package genomics contains definitions related to Genomic data.
package genomics

import (
	"errors"
	"fmt"
	"math"
)

// MaximumPosition is the largest coordinate accepted for a Region.
const MaximumPosition = math.MaxInt64

// ErrInvalidRange is returned by Validate when a region starts after it ends.
var ErrInvalidRange = errors.New("invalid range")

// Region defines a region of genomic interest.
type Region struct {
	// Landmark names the sequence (chromosome, scaffold) that provides the
	// coordinate system.
	Landmark string
	// Start and End specify the closed range (in base pairs, 1-based) relative
	// to the landmark.
	Start, End int64
}

// Validate reports an error wrapping ErrInvalidRange if the region cannot
// match any feature.
func (region Region) Validate() error {
	if region.Start > region.End {
		return fmt.Errorf("%s: start > end: %w", region, ErrInvalidRange)
	}
	return nil
}

// Overlaps returns true if [start, end] on landmark shares at least one
// position with the region.
func (region Region) Overlaps(landmark string, start, end int64) bool {
	return landmark == region.Landmark && start <= region.End && end >= region.Start
}

func (region Region) String() string {
	return fmt.Sprintf("[landmark:%s, start:%d, end:%d]", region.Landmark, region.Start, region.End)
}

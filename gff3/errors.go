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
	"errors"

	"github.com/googlegenomics/gff3/internal/genomics"
)

// Errors reported by this package are wrapped with context; test for them
// with errors.Is.
var (
	// ErrVersionMismatch is returned by Open when the file does not start
	// with a GFF version 3 directive.
	ErrVersionMismatch = errors.New("not a GFF3 file")
	// ErrMalformedRecord is returned when a feature line cannot be decoded.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrInvalidRange is returned by Fetch when start is after end.
	ErrInvalidRange = genomics.ErrInvalidRange
)

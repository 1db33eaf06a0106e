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
	"log/slog"

	"github.com/googlegenomics/gff3/internal/index"
)

// Option configures a File.
type Option func(*options)

type options struct {
	periods int
	logger  *slog.Logger
}

func defaultOptions() options {
	return options{
		periods: index.DefaultPeriods,
		logger:  slog.New(slog.DiscardHandler),
	}
}

// WithPeriods sets the index bucket width to 10^periods positions.  The
// default is 3.
func WithPeriods(periods int) Option {
	return func(o *options) {
		o.periods = periods
	}
}

// WithLogger sets the logger used for debug output.  Nothing is logged by
// default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

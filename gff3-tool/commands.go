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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/googlegenomics/gff3/gff3"
	"github.com/googlegenomics/gff3/internal/genomics"
	"golang.org/x/sync/errgroup"
)

var errUsage = errors.New("wrong number of arguments")

// view copies every record of a file to the output.
func view(ctx context.Context, stdout io.Writer, args []string, opts ...gff3.Option) error {
	flags := flag.NewFlagSet("view", flag.ContinueOnError)
	outputPath := flags.String("o", "", "output filename")
	compress := flags.Bool("bgzf", false, "compress the output with BGZF")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errUsage
	}

	f, err := gff3.Open(ctx, flags.Arg(0), opts...)
	if err != nil {
		return err
	}
	defer f.Close()

	w, closeOutput, err := output(stdout, *outputPath, *compress)
	if err != nil {
		return err
	}
	gw := gff3.NewWriter(w)
	for first := true; f.Next(); first = false {
		// Directives precede the first record.
		if first {
			if err := gw.WriteSequenceRegions(f.SequenceRegions()); err != nil {
				closeOutput()
				return err
			}
		}
		if err := gw.Write(f.Record()); err != nil {
			closeOutput()
			return err
		}
	}
	if err := f.Err(); err != nil {
		closeOutput()
		return err
	}
	if err := gw.Flush(); err != nil {
		closeOutput()
		return err
	}
	return closeOutput()
}

// fetch writes the records of a file that overlap a region.
func fetch(ctx context.Context, stdout io.Writer, args []string, opts ...gff3.Option) error {
	flags := flag.NewFlagSet("fetch", flag.ContinueOnError)
	outputPath := flags.String("o", "", "output filename")
	compress := flags.Bool("bgzf", false, "compress the output with BGZF")
	start := flags.Int64("start", 1, "first position of the region (1-based)")
	end := flags.Int64("end", genomics.MaximumPosition, "last position of the region (inclusive)")
	typ := flags.String("type", "", "if set, only return features of this type")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 2 {
		return errUsage
	}

	f, err := gff3.Open(ctx, flags.Arg(0), opts...)
	if err != nil {
		return err
	}
	defer f.Close()

	landmark := flags.Arg(1)
	features, err := f.Fetch(ctx, landmark, *start, *end, *typ)
	if err != nil {
		return err
	}
	defer features.Close()

	w, closeOutput, err := output(stdout, *outputPath, *compress)
	if err != nil {
		return err
	}
	gw := gff3.NewWriter(w)
	if sr, ok := f.SequenceRegions()[landmark]; ok {
		if err := gw.WriteSequenceRegions(map[string]gff3.SequenceRegion{landmark: sr}); err != nil {
			closeOutput()
			return err
		}
	}
	for features.Next() {
		if err := gw.Write(features.Record()); err != nil {
			closeOutput()
			return err
		}
	}
	if err := features.Err(); err != nil {
		closeOutput()
		return err
	}
	if err := gw.Flush(); err != nil {
		closeOutput()
		return err
	}
	return closeOutput()
}

type summary struct {
	records   int
	landmarks int
}

// count reports the number of records and landmarks in each file.  The
// files are read concurrently.
func count(ctx context.Context, stdout io.Writer, args []string, opts ...gff3.Option) error {
	if len(args) == 0 {
		return errUsage
	}

	summaries := make([]summary, len(args))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range args {
		g.Go(func() error {
			f, err := gff3.Open(ctx, path, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			defer f.Close()

			n := 0
			for f.Next() {
				n++
			}
			if err := f.Err(); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			summaries[i] = summary{n, len(f.Landmarks())}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, path := range args {
		if _, err := fmt.Fprintf(stdout, "%s\t%d\t%d\n", path, summaries[i].records, summaries[i].landmarks); err != nil {
			return err
		}
	}
	return nil
}

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

// This binary reads GFF3 files from local disk, GCS or S3.
//
// Usage:
//
//	gff3-tool [flags] view [-o output] [-bgzf] <file>
//	gff3-tool [flags] fetch [-o output] [-bgzf] [-start n] [-end n] [-type t] <file> <landmark>
//	gff3-tool [flags] count <file>...
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/googlegenomics/gff3/gff3"
	"github.com/googlegenomics/gff3/internal/bgzf"
	"github.com/pkg/profile"
)

var (
	periods    = flag.Int("periods", 3, "index bucket width as a power of ten")
	profileDir = flag.String("profile", "", "if set, write a CPU profile to this directory")
	verbose    = flag.Bool("verbose", false, "log progress to stderr")
)

var commands = map[string]func(context.Context, io.Writer, []string, ...gff3.Option) error{
	"view":  view,
	"fetch": fetch,
	"count": count,
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] view|fetch|count [args]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	command, ok := commands[flag.Arg(0)]
	if !ok {
		log.Fatalf("Unknown command %q", flag.Arg(0))
	}

	if *profileDir != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*profileDir)).Stop()
	}

	opts := []gff3.Option{gff3.WithPeriods(*periods)}
	if *verbose {
		opts = append(opts, gff3.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	}

	if err := command(context.Background(), os.Stdout, flag.Args()[1:], opts...); err != nil {
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}

// output returns the writer selected by the -o and -bgzf flags.  The
// returned function must be called to flush and close it.
func output(stdout io.Writer, path string, compress bool) (io.Writer, func() error, error) {
	w, closeFile := stdout, func() error { return nil }
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("creating output file: %v", err)
		}
		w, closeFile = f, f.Close
	}
	if !compress {
		return w, closeFile, nil
	}

	bw := bgzf.NewWriter(w)
	return bw, func() error {
		if err := bw.Close(); err != nil {
			closeFile()
			return fmt.Errorf("closing BGZF stream: %v", err)
		}
		return closeFile()
	}, nil
}

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

package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// File is a Source that reads the local file at the named path.
type File string

// NewRangeReader implements Source.  Every reader holds its own file
// descriptor, so readers returned for one File never share a position.
func (f File) NewRangeReader(_ context.Context, offset, length int64) (io.ReadCloser, error) {
	file, err := os.Open(string(f))
	if err != nil {
		return nil, err
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seeking to %d: %v", offset, err)
	}
	if length < 0 {
		return file, nil
	}
	return &limitedFile{io.LimitReader(file, length), file}, nil
}

type limitedFile struct {
	io.Reader
	file *os.File
}

func (f *limitedFile) Close() error {
	return f.file.Close()
}

// Directory is a Client that maps bucket/object pairs onto files below the
// named directory.
type Directory string

// NewObjectHandle implements Client.  Objects that would resolve outside of
// the directory produce a Source that always fails.
func (d Directory) NewObjectHandle(bucket, object string) Source {
	// Both names must stay inside their parent even after cleaning, so an
	// object cannot reach into another bucket.
	if bucket == "." || strings.ContainsAny(bucket, `/\`) || !filepath.IsLocal(bucket) || !filepath.IsLocal(filepath.FromSlash(object)) {
		return invalidObject{fmt.Errorf("object %s/%s escapes its bucket: %w", bucket, object, ErrInvalidID)}
	}
	return File(filepath.Join(string(d), bucket, filepath.FromSlash(object)))
}

type invalidObject struct {
	err error
}

func (o invalidObject) NewRangeReader(context.Context, int64, int64) (io.ReadCloser, error) {
	return nil, o.err
}

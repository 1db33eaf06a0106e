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

// Package source provides random access to the bytes of stored objects, such
// as local files, Google Cloud Storage objects and S3 objects.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/minio/minio-go/v7"
)

// Source is a stored object that can be read starting at any offset.
type Source interface {
	// NewRangeReader returns a reader that reads from a specified
	// range. Length of -1 means to capture everything until the
	// end.
	NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error)
}

// Client is an interface to a storage engine.
type Client interface {
	// NewObjectHandle returns a handle to a specified object in
	// the storage engine.
	NewObjectHandle(bucket, object string) Source
}

// Parse returns a Source for location.  Locations of the form gs://b/o and
// s3://b/o name cloud storage objects; anything else is a local file path.
func Parse(ctx context.Context, location string) (Source, error) {
	for scheme, open := range map[string]func(context.Context) (Client, error){
		"gs://": defaultGCSClient,
		"s3://": defaultS3Client,
	} {
		if !strings.HasPrefix(location, scheme) {
			continue
		}
		bucket, object, err := ParseID(location[len(scheme):])
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %v", location, err)
		}
		client, err := open(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating %s client: %v", strings.TrimSuffix(scheme, "://"), err)
		}
		return client.NewObjectHandle(bucket, object), nil
	}
	return File(location), nil
}

// ErrInvalidID is returned when an object ID does not name a bucket and an
// object.
var ErrInvalidID = errors.New("invalid or unspecified ID")

// ParseID parses path and returns a bucket and object, or an error.
func ParseID(path string) (string, string, error) {
	if parts := strings.SplitN(path, "/", 2); len(parts) == 2 {
		if parts[0] != "" && parts[1] != "" {
			return parts[0], parts[1], nil
		}
	}
	return "", "", ErrInvalidID
}

// IsNotExist returns true if err reports a missing object for any of the
// supported storage engines.
func IsNotExist(err error) bool {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, storage.ErrObjectNotExist) {
		return true
	}
	var response minio.ErrorResponse
	if errors.As(err, &response) {
		return response.Code == "NoSuchKey" || response.Code == "NoSuchBucket"
	}
	return false
}

// Bytes is a Source backed by memory.
type Bytes []byte

// NewRangeReader implements Source.
func (b Bytes) NewRangeReader(_ context.Context, offset, length int64) (io.ReadCloser, error) {
	if offset < 0 || offset > int64(len(b)) {
		return nil, fmt.Errorf("offset %d out of range [0, %d]", offset, len(b))
	}
	end := int64(len(b))
	if length >= 0 && offset+length < end {
		end = offset + length
	}
	return io.NopCloser(bytes.NewReader(b[offset:end])), nil
}

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
	"io"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultS3Endpoint = "s3.amazonaws.com"

// S3Client is a Client for S3 compatible object stores.
type S3Client struct {
	*minio.Client
}

// NewS3Client returns an S3Client for endpoint that authenticates with the
// standard AWS environment variables.
func NewS3Client(endpoint string, secure bool) (S3Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewEnvAWS(),
		Secure: secure,
	})
	if err != nil {
		return S3Client{}, err
	}
	return S3Client{client}, nil
}

// NewObjectHandle implements Client.
func (c S3Client) NewObjectHandle(bucket, object string) Source {
	return s3ObjectHandle{c.Client, bucket, object}
}

type s3ObjectHandle struct {
	client         *minio.Client
	bucket, object string
}

func (h s3ObjectHandle) NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
	var opts minio.GetObjectOptions
	switch {
	case length == 0:
		return io.NopCloser(strings.NewReader("")), nil
	case length > 0:
		if err := opts.SetRange(offset, offset+length-1); err != nil {
			return nil, err
		}
	case offset > 0:
		if err := opts.SetRange(offset, 0); err != nil {
			return nil, err
		}
	}
	object, err := h.client.GetObject(ctx, h.bucket, h.object, opts)
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces missing objects before the first read.
	if _, err := object.Stat(); err != nil {
		object.Close()
		return nil, err
	}
	return object, nil
}

// defaultS3Client reads the endpoint from S3_ENDPOINT and disables TLS when
// S3_INSECURE is set.
func defaultS3Client(context.Context) (Client, error) {
	endpoint := os.Getenv("S3_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultS3Endpoint
	}
	return NewS3Client(endpoint, os.Getenv("S3_INSECURE") == "")
}

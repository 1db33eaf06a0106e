// Copyright 2017 Google Inc.
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
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSClient is Client for accessing Google Cloud Storage.
type GCSClient struct {
	*storage.Client
}

// NewGCSClient returns a GCSClient configured with opts.
func NewGCSClient(ctx context.Context, opts ...option.ClientOption) (GCSClient, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return GCSClient{}, err
	}
	return GCSClient{client}, nil
}

// NewObjectHandle returns a handle to a specified object in the
// storage engine.
func (c GCSClient) NewObjectHandle(bucket, object string) Source {
	return gcsObjectHandle{c.Bucket(bucket).Object(object)}
}

type gcsObjectHandle struct {
	*storage.ObjectHandle
}

func (h gcsObjectHandle) NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
	return h.ObjectHandle.NewRangeReader(ctx, offset, length)
}

var (
	gcsDefault     GCSClient
	gcsDefaultErr  error
	gcsDefaultOnce sync.Once
)

// defaultGCSClient returns a client using the application default
// credentials.  It caches the client for efficiency.
func defaultGCSClient(ctx context.Context) (Client, error) {
	gcsDefaultOnce.Do(func() {
		gcsDefault, gcsDefaultErr = NewGCSClient(context.Background())
	})
	return gcsDefault, gcsDefaultErr
}

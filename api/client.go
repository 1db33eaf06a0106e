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

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/googlegenomics/gff3/source"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

type cachedClient struct {
	once   sync.Once
	client source.Client
	err    error
}

func (c *cachedClient) get(newClient func() (source.Client, error)) (source.Client, error) {
	c.once.Do(func() {
		c.client, c.err = newClient()
	})
	return c.client, c.err
}

var defaultClient, publicClient cachedClient

// NewDefaultClient returns a storage client that uses the application default
// credentials.  It caches the storage client for efficiency.
func NewDefaultClient(_ *http.Request) (source.Client, error) {
	return defaultClient.get(func() (source.Client, error) {
		return source.NewGCSClient(context.Background())
	})
}

// NewPublicClient returns a storage client that does not use any form of
// client authorization.  It can only be used to read publicly-readable
// objects. It caches the storage client for efficiency.
func NewPublicClient(_ *http.Request) (source.Client, error) {
	return publicClient.get(func() (source.Client, error) {
		return source.NewGCSClient(context.Background(), option.WithHTTPClient(http.DefaultClient))
	})
}

// NewClientFromBearerToken constructs a storage client that uses the OAuth2
// bearer token found in req to make storage requests.
func NewClientFromBearerToken(req *http.Request) (source.Client, error) {
	fields := strings.Split(req.Header.Get("Authorization"), " ")
	if len(fields) != 2 || fields[0] != "Bearer" {
		return nil, errMissingOrInvalidToken
	}

	token := oauth2.Token{
		TokenType:   fields[0],
		AccessToken: fields[1],
	}
	client, err := source.NewGCSClient(req.Context(), option.WithTokenSource(oauth2.StaticTokenSource(&token)))
	if err != nil {
		return nil, fmt.Errorf("creating client with token source: %v", err)
	}
	return client, nil
}

// NewS3Client returns a function that serves every request from the S3
// compatible service at endpoint, using credentials from the standard AWS
// environment variables.
func NewS3Client(endpoint string, secure bool) (NewStorageClientFunc, error) {
	client, err := source.NewS3Client(endpoint, secure)
	if err != nil {
		return nil, fmt.Errorf("creating S3 client: %v", err)
	}
	return func(*http.Request) (source.Client, error) {
		return client, nil
	}, nil
}

// NewDirectoryClient returns a function that serves every request from the
// files below directory.  The bucket is the first path component.
func NewDirectoryClient(directory string) NewStorageClientFunc {
	return func(*http.Request) (source.Client, error) {
		return source.Directory(directory), nil
	}
}

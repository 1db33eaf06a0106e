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
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/googlegenomics/gff3/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"golang.org/x/time/rate"
)

const (
	header = "##gff-version 3\n"
	gene1  = "chr1\ttest\tgene\t1000\t2000\t.\t+\t.\tID=gene1\n"
	gene2  = "chr1\ttest\tgene\t5000\t6000\t.\t-\t.\tID=gene2\n"
	gene3  = "chr2\ttest\tgene\t1\t100\t.\t+\t.\tID=gene3\n"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(server *Server) *gin.Engine {
	router := gin.New()
	server.Export(router)
	return router
}

func testQuery(t *testing.T, server *Server, url string, header http.Header) *httptest.ResponseRecorder {
	req, err := http.NewRequest("GET", url, nil)
	require.NoError(t, err, "parsing URL %q", url)
	for k, v := range header {
		req.Header[k] = v
	}

	w := httptest.NewRecorder()
	setupRouter(server).ServeHTTP(w, req)
	return w
}

func directoryServer(opts ...Option) *Server {
	return NewServer(NewDirectoryClient("."), opts...)
}

func gcsServer(t *testing.T, transport http.RoundTripper) *Server {
	gcs, err := storage.NewClient(context.Background(), option.WithHTTPClient(&http.Client{Transport: transport}))
	require.NoError(t, err, "creating storage client")
	return NewServer(func(*http.Request) (source.Client, error) {
		return source.GCSClient{Client: gcs}, nil
	})
}

func expectError(t *testing.T, name string, code int, w *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, code, w.Code, "status code")

	body := make(map[string]interface{})
	if assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "parsing response %q", w.Body.String()) {
		assert.Equal(t, name, body["error"], "'error' field value")
	}
}

func TestInvalidInputs(t *testing.T) {
	testCases := []struct{ name, url string }{
		{"no object ID or parameters", "/features/"},
		{"invalid ID (no object)", "/features/testdata?landmark=chr1"},
		{"invalid ID (trailing slash, no object)", "/features/testdata/?landmark=chr1"},
		{"missing landmark", "/features/testdata/scenario.gff3"},
		{"invalid start", "/features/testdata/scenario.gff3?landmark=chr1&start=one"},
		{"invalid end", "/features/testdata/scenario.gff3?landmark=chr1&end=1.5"},
		{"version mismatch", "/features/testdata/v2.gff?landmark=chr1"},
		{"malformed record", "/features/testdata/malformed.gff3?landmark=chr1"},
		{"object escapes bucket", "/features/testdata/../api/testdata/scenario.gff3?landmark=chr1"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expectError(t, "InvalidInput", http.StatusBadRequest, testQuery(t, directoryServer(), tc.url, nil))
		})
	}
}

func TestInvalidRange(t *testing.T) {
	w := testQuery(t, directoryServer(), "/features/testdata/scenario.gff3?landmark=chr1&start=10&end=9", nil)
	expectError(t, "InvalidRange", http.StatusBadRequest, w)
}

func TestUnsupportedFormats(t *testing.T) {
	testCases := []struct{ name, url string }{
		{"unknown format", "/features/testdata/scenario.gff3?landmark=chr1&format=XYZ"},
		{"bam format", "/features/testdata/scenario.gff3?landmark=chr1&format=BAM"},
		{"lowercase json", "/features/testdata/scenario.gff3?landmark=chr1&format=json"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expectError(t, "UnsupportedFormat", http.StatusBadRequest, testQuery(t, directoryServer(), tc.url, nil))
		})
	}
}

func TestMissingObject(t *testing.T) {
	w := testQuery(t, directoryServer(), "/features/testdata/missing.gff3?landmark=chr1", nil)
	expectError(t, "NotFound", http.StatusNotFound, w)
}

func TestWhitelist(t *testing.T) {
	server := directoryServer()
	server.Whitelist([]string{"public"})
	w := testQuery(t, server, "/features/testdata/scenario.gff3?landmark=chr1", nil)
	expectError(t, "PermissionDenied", http.StatusForbidden, w)
}

func TestMissingToken(t *testing.T) {
	testCases := []struct {
		name   string
		header http.Header
	}{
		{"no header", nil},
		{"basic authorization", http.Header{"Authorization": {"Basic dXNlcjpwYXNz"}}},
		{"no token", http.Header{"Authorization": {"Bearer"}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := NewServer(NewClientFromBearerToken)
			w := testQuery(t, server, "/features/testdata/scenario.gff3?landmark=chr1", tc.header)
			expectError(t, "PermissionDenied", http.StatusForbidden, w)
		})
	}
}

func TestFeatures(t *testing.T) {
	testCases := []struct {
		name, url, want string
	}{
		{"overlap", "/features/testdata/scenario.gff3?landmark=chr1&start=1500&end=1600", header + gene1},
		{"gap", "/features/testdata/scenario.gff3?landmark=chr1&start=2500&end=4000", header},
		{"whole landmark", "/features/testdata/scenario.gff3?landmark=chr1", header + gene1 + gene2},
		{"open start", "/features/testdata/scenario.gff3?landmark=chr1&end=1000", header + gene1},
		{"open end", "/features/testdata/scenario.gff3?landmark=chr1&start=2001", header + gene2},
		{"other landmark", "/features/testdata/scenario.gff3?landmark=chr2&start=1&end=100", header + gene3},
		{"unknown landmark", "/features/testdata/scenario.gff3?landmark=chrM", header},
		{"type", "/features/testdata/scenario.gff3?landmark=chr1&type=gene&format=GFF3", header + gene1 + gene2},
		{"other type", "/features/testdata/scenario.gff3?landmark=chr1&type=exon", header},
		{"gzip", "/features/testdata/scenario.gff3.gz?landmark=chr1&start=5000&end=5000", header + gene2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := testQuery(t, directoryServer(), tc.url, nil)
			require.Equal(t, http.StatusOK, w.Code, "status code (body %q)", w.Body.String())
			assert.Equal(t, "text/x-gff3; charset=utf-8", w.Header().Get("Content-Type"))
			assert.Equal(t, tc.want, w.Body.String())
		})
	}
}

func TestFeaturesJSON(t *testing.T) {
	w := testQuery(t, directoryServer(), "/features/testdata/scenario.gff3?landmark=chr1&start=5500&format=JSON", nil)
	require.Equal(t, http.StatusOK, w.Code, "status code (body %q)", w.Body.String())

	var got []feature
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	want := []feature{{
		Landmark:   "chr1",
		Source:     "test",
		Type:       "gene",
		Start:      5000,
		End:        6000,
		Strand:     "-",
		Attributes: []attribute{{"ID", "gene2"}},
	}}
	assert.Equal(t, want, got)
}

func TestRequestHeaders(t *testing.T) {
	header := http.Header{"Origin": {"https://example.com"}}
	w := testQuery(t, directoryServer(), "/features/testdata/scenario.gff3?landmark=chr1", header)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
	_, err := uuid.Parse(w.Header().Get("X-Request-Id"))
	assert.NoError(t, err, "parsing request ID")
}

func TestRateLimit(t *testing.T) {
	server := directoryServer(WithRateLimit(rate.Limit(0), 1))
	router := setupRouter(server)

	query := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/features/testdata/scenario.gff3?landmark=chr2", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}
	assert.Equal(t, http.StatusOK, query().Code)
	expectError(t, "TooManyRequests", http.StatusTooManyRequests, query())
}

func TestSimpleGCSRead(t *testing.T) {
	testCases := []struct{ name, url string }{
		{"plain", "/features/testdata/scenario.gff3?landmark=chr1&start=5000&end=5000"},
		{"gzip", "/features/testdata/scenario.gff3.gz?landmark=chr1&start=5000&end=5000"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := testQuery(t, gcsServer(t, &fakeGCS{t}), tc.url, nil)
			require.Equal(t, http.StatusOK, w.Code, "status code (body %q)", w.Body.String())
			assert.Equal(t, header+gene2, w.Body.String())
		})
	}
}

// This test ensures that the undocumented error handling behaviour of the GCS
// storage client does not change.
func TestGoogleAPIInternalErrors(t *testing.T) {
	testCases := []struct {
		name       string
		transport  http.RoundTripper
		statusCode int
	}{
		{"unauthorized", fixedStatus(http.StatusUnauthorized), http.StatusUnauthorized},
		{"forbidden", fixedStatus(http.StatusForbidden), http.StatusForbidden},
		{"not found", fixedStatus(http.StatusNotFound), http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := testQuery(t, gcsServer(t, tc.transport), "/features/testdata/scenario.gff3?landmark=chr1", nil)
			assert.Equal(t, tc.statusCode, w.Code, "status code")
		})
	}
}

type fixedStatus int

func (code fixedStatus) RoundTrip(*http.Request) (*http.Response, error) {
	return &http.Response{
		Status:     http.StatusText(int(code)),
		StatusCode: int(code),
		Body:       http.NoBody,
	}, nil
}

type fakeGCS struct {
	*testing.T
}

func (fake *fakeGCS) RoundTrip(req *http.Request) (*http.Response, error) {
	filename := "testdata/" + path.Base(req.URL.Path)

	content, err := os.Open(filename)
	if err != nil {
		response := httptest.NewRecorder()
		http.Error(response, fmt.Sprintf("Failed to open test data: %v", err), http.StatusNotFound)
		return response.Result(), nil
	}
	defer content.Close()

	w := httptest.NewRecorder()
	http.ServeContent(w, req, filename, time.Now(), content)
	return w.Result(), nil
}

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

// Package api implements an HTTP API for retrieving the features of stored
// GFF3 files that overlap a region.
//
// A request for /features/<bucket>/<object>?landmark=chr1&start=1&end=100
// returns the matching records as a GFF3 file, or as a JSON array when the
// format parameter is JSON.  The start and end parameters are 1-based and
// inclusive and default to the whole landmark.  The type parameter restricts
// the response to features of a single type.
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/googlegenomics/gff3/gff3"
	"github.com/googlegenomics/gff3/internal/genomics"
	"github.com/googlegenomics/gff3/source"
	"golang.org/x/time/rate"
)

const (
	featuresPath = "/features/"

	formatGFF3 = "GFF3"
	formatJSON = "JSON"

	loggerKey = "logger"
)

var (
	errMissingLandmark       = errors.New("no landmark specified")
	errMissingOrInvalidToken = errors.New("missing or invalid token")
	errRateLimited           = errors.New("request rate limit exceeded")
)

// NewStorageClientFunc is the type of function that constructs the
// appropriate source.Client to satisfy the incoming request.
type NewStorageClientFunc func(*http.Request) (source.Client, error)

// Server provides the features API.  Must be created with NewServer.
type Server struct {
	newStorageClient NewStorageClientFunc
	whitelist        map[string]bool
	periods          int
	logger           *slog.Logger
	limiter          *rate.Limiter
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used to report requests.  Each request is
// logged with its own request ID.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRateLimit limits the server to r requests per second with bursts of
// at most burst requests.  Requests over the limit fail with
// TooManyRequests.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(s *Server) {
		s.limiter = rate.NewLimiter(r, burst)
	}
}

// WithPeriods sets the bucket width of the index built for each request to
// 10^periods positions.
func WithPeriods(periods int) Option {
	return func(s *Server) {
		s.periods = periods
	}
}

// NewServer returns a new Server that calls newStorageClient on each request
// to determine which storage client to use.
func NewServer(newStorageClient NewStorageClientFunc, opts ...Option) *Server {
	server := &Server{
		newStorageClient: newStorageClient,
		whitelist:        make(map[string]bool),
		periods:          3,
		logger:           slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(server)
	}
	return server
}

// Whitelist adds buckets to the set of buckets which the server is allowed to
// access. If Whitelist is never called for a given Server then reads from any
// bucket are allowed.
func (server *Server) Whitelist(buckets []string) {
	for _, bucket := range buckets {
		server.whitelist[bucket] = true
	}
}

// Export registers the features API endpoint with router.
func (server *Server) Export(router gin.IRoutes) {
	router.GET(featuresPath+"*id", forwardOrigin, server.tagRequest, server.limit, server.serveFeatures)
}

func (server *Server) serveFeatures(c *gin.Context) {
	ctx := c.Request.Context()
	logger := requestLogger(c)

	query := c.Request.URL.Query()
	format, err := parseFormat(query.Get("format"))
	if err != nil {
		writeError(c, newUnsupportedFormatError(err))
		return
	}

	bucket, object, err := source.ParseID(strings.TrimPrefix(c.Param("id"), "/"))
	if err != nil {
		writeError(c, newInvalidInputError("parsing object ID", err))
		return
	}

	if err := server.checkWhitelist(bucket); err != nil {
		writeError(c, newPermissionDeniedError("checking whitelist", err))
		return
	}

	region, err := parseRegion(query)
	if err != nil {
		writeError(c, newInvalidInputError("parsing region", err))
		return
	}
	if err := region.Validate(); err != nil {
		writeError(c, newInvalidRangeError(err))
		return
	}

	client, err := server.newStorageClient(c.Request)
	if err != nil {
		writeError(c, newStorageError("creating client", err))
		return
	}

	file, err := gff3.OpenSource(ctx, client.NewObjectHandle(bucket, object),
		gff3.WithPeriods(server.periods), gff3.WithLogger(logger))
	if err != nil {
		writeError(c, newStorageError("opening object", err))
		return
	}
	defer file.Close()

	features, err := file.Fetch(ctx, region.Landmark, region.Start, region.End, query.Get("type"))
	if err != nil {
		writeError(c, newStorageError("fetching features", err))
		return
	}
	defer features.Close()

	var records []gff3.Record
	for features.Next() {
		records = append(records, features.Record())
	}
	if err := features.Err(); err != nil {
		writeError(c, newStorageError("reading features", err))
		return
	}
	logger.Info("fetched features", "object", bucket+"/"+object, "region", region, "count", len(records))

	if format == formatJSON {
		response := make([]feature, len(records))
		for i, record := range records {
			response[i] = newFeature(record)
		}
		c.JSON(http.StatusOK, response)
		return
	}

	c.Header("Content-Type", "text/x-gff3; charset=utf-8")
	c.Status(http.StatusOK)
	w := gff3.NewWriter(c.Writer)
	if sr, ok := file.SequenceRegions()[region.Landmark]; ok {
		if err := w.WriteSequenceRegions(map[string]gff3.SequenceRegion{sr.Landmark: sr}); err != nil {
			logger.Error("failed to write response", "error", err)
			return
		}
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			logger.Error("failed to write response", "error", err)
			return
		}
	}
	if err := w.Flush(); err != nil {
		logger.Error("failed to write response", "error", err)
	}
}

func (server *Server) checkWhitelist(bucket string) error {
	if len(server.whitelist) == 0 || server.whitelist[bucket] {
		return nil
	}
	return fmt.Errorf("access to bucket %s is not allowed", bucket)
}

// tagRequest assigns a request ID, returned in the X-Request-Id header, and
// stores a logger carrying it for the handlers that follow.
func (server *Server) tagRequest(c *gin.Context) {
	id := uuid.New().String()
	c.Header("X-Request-Id", id)

	logger := server.logger.With("request_id", id)
	c.Set(loggerKey, logger)
	c.Next()

	logger.Debug("handled request", "path", c.Request.URL.Path, "status", c.Writer.Status())
}

func (server *Server) limit(c *gin.Context) {
	if server.limiter != nil && !server.limiter.Allow() {
		writeError(c, newTooManyRequestsError(errRateLimited))
	}
}

func requestLogger(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if logger, ok := v.(*slog.Logger); ok {
			return logger
		}
	}
	return slog.New(slog.DiscardHandler)
}

func parseFormat(format string) (string, error) {
	switch format {
	case "", formatGFF3:
		return formatGFF3, nil
	case formatJSON:
		return formatJSON, nil
	}
	return "", fmt.Errorf("unsupported format %q", format)
}

func parseRegion(query url.Values) (genomics.Region, error) {
	var (
		name  = query.Get("landmark")
		start = query.Get("start")
		end   = query.Get("end")
	)
	if name == "" {
		return genomics.Region{}, errMissingLandmark
	}

	region := genomics.Region{Landmark: name, Start: 1, End: genomics.MaximumPosition}

	if start != "" {
		n, err := strconv.ParseInt(start, 10, 64)
		if err != nil {
			return genomics.Region{}, fmt.Errorf("parsing start: %v", err)
		}
		region.Start = n
	}

	if end != "" {
		n, err := strconv.ParseInt(end, 10, 64)
		if err != nil {
			return genomics.Region{}, fmt.Errorf("parsing end: %v", err)
		}
		region.End = n
	}

	return region, nil
}

func forwardOrigin(c *gin.Context) {
	if origin := c.GetHeader("Origin"); origin != "" {
		c.Header("Access-Control-Allow-Origin", origin)
	}
}

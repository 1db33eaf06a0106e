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

// This binary provides a GFF3 feature server that backs onto resources in GCS,
// an S3 compatible service or a local directory.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/googlegenomics/gff3/api"
	"golang.org/x/time/rate"
)

var (
	port = flag.Int("port", 80, "HTTP service port")

	secure    = flag.Bool("secure", false, "serve in HTTPS-only mode and forward client bearer tokens")
	httpsCert = flag.String("https_cert", "", "HTTPS certificate file")
	httpsKey  = flag.String("https_key", "", "HTTPS key file")

	buckets    = flag.String("buckets", "", "if set, restricts reads to a comma-separated list of buckets")
	directory  = flag.String("directory", "", "if set, serve objects from this directory instead of GCS")
	s3Endpoint = flag.String("s3_endpoint", "", "if set, serve objects from this S3 compatible endpoint instead of GCS")
	s3Insecure = flag.Bool("s3_insecure", false, "connect to the S3 endpoint over plain HTTP")

	periods   = flag.Int("periods", 3, "index bucket width as a power of ten")
	rateLimit = flag.Float64("rate_limit", 0, "if positive, the maximum number of requests per second")
	verbose   = flag.Bool("verbose", false, "log every request")
)

func main() {
	flag.Parse()

	if *secure && (*httpsCert == "" || *httpsKey == "") {
		log.Fatalf("You must specify both -https_cert and -https_key in secure mode.")
	}
	if *directory != "" && *s3Endpoint != "" {
		log.Fatalf("At most one of -directory and -s3_endpoint may be specified.")
	}

	newStorageClient := api.NewPublicClient
	switch {
	case *directory != "":
		log.Printf("Serving objects from %s", *directory)
		newStorageClient = api.NewDirectoryClient(*directory)
	case *s3Endpoint != "":
		client, err := api.NewS3Client(*s3Endpoint, !*s3Insecure)
		if err != nil {
			log.Fatalf("Failed to create S3 client: %v", err)
		}
		log.Printf("Serving objects from %s", *s3Endpoint)
		newStorageClient = client
	case *secure:
		newStorageClient = api.NewClientFromBearerToken
	}

	opts := []api.Option{api.WithPeriods(*periods)}
	if *verbose {
		opts = append(opts, api.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	}
	if *rateLimit > 0 {
		opts = append(opts, api.WithRateLimit(rate.Limit(*rateLimit), int(*rateLimit)+1))
	}

	server := api.NewServer(newStorageClient, opts...)
	if *buckets != "" {
		server.Whitelist(strings.Split(*buckets, ","))
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	server.Export(router)

	address := fmt.Sprintf(":%d", *port)
	if *secure {
		if err := router.RunTLS(address, *httpsCert, *httpsKey); err != nil {
			log.Fatalf("HTTPS server returned an error: %v", err)
		}
	} else {
		if err := router.Run(address); err != nil {
			log.Fatalf("HTTP server returned an error: %v", err)
		}
	}
}

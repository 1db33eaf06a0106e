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
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/googlegenomics/gff3/gff3"
	"github.com/googlegenomics/gff3/source"
	"github.com/minio/minio-go/v7"
	"google.golang.org/api/googleapi"
)

// apiError is used to capture errors that have been defined in the API.
type apiError struct {
	name  string
	code  int
	cause error
}

func (err *apiError) Error() string {
	return fmt.Sprintf("%s (%d): %v", err.name, err.code, err.cause)
}

func newApiError(name string, code int, context string, err error) error {
	return &apiError{name, code, fmt.Errorf("%s: %v", context, err)}
}

func newInvalidAuthenticationError(context string, err error) error {
	return newApiError("InvalidAuthentication", http.StatusUnauthorized, context, err)
}

func newInvalidInputError(context string, err error) error {
	return newApiError("InvalidInput", http.StatusBadRequest, context, err)
}

func newInvalidRangeError(err error) error {
	return &apiError{"InvalidRange", http.StatusBadRequest, err}
}

func newPermissionDeniedError(context string, err error) error {
	return newApiError("PermissionDenied", http.StatusForbidden, context, err)
}

func newUnsupportedFormatError(err error) error {
	return &apiError{"UnsupportedFormat", http.StatusBadRequest, err}
}

func newNotFoundError(context string, err error) error {
	return newApiError("NotFound", http.StatusNotFound, context, err)
}

func newTooManyRequestsError(err error) error {
	return &apiError{"TooManyRequests", http.StatusTooManyRequests, err}
}

// newStorageError classifies err, returned while reading an object, into
// one of the errors defined in the API.  Unclassified errors are returned
// unchanged.
func newStorageError(context string, err error) error {
	switch {
	case errors.Is(err, errMissingOrInvalidToken):
		return newPermissionDeniedError(context, err)
	case source.IsNotExist(err):
		return newNotFoundError("object does not exist", err)
	case errors.Is(err, source.ErrInvalidID):
		return newInvalidInputError(context, err)
	case errors.Is(err, gff3.ErrVersionMismatch), errors.Is(err, gff3.ErrMalformedRecord):
		return newInvalidInputError(context, err)
	case errors.Is(err, gff3.ErrInvalidRange):
		return newInvalidRangeError(err)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized:
			return newInvalidAuthenticationError(context, err)
		case http.StatusForbidden:
			return newPermissionDeniedError(context, err)
		case http.StatusNotFound:
			return newNotFoundError("object does not exist", err)
		}
	}

	var response minio.ErrorResponse
	if errors.As(err, &response) {
		switch response.StatusCode {
		case http.StatusUnauthorized:
			return newInvalidAuthenticationError(context, err)
		case http.StatusForbidden:
			return newPermissionDeniedError(context, err)
		}
	}
	return err
}

// writeError writes either a JSON object or bare HTTP error describing err to
// c and stops the handler chain.  A JSON object is written only when the
// error has a name and code defined by the API.
func writeError(c *gin.Context, err error) {
	requestLogger(c).Warn("request failed", "error", err)

	if err, ok := err.(*apiError); ok {
		c.AbortWithStatusJSON(err.code, gin.H{
			"error":   err.name,
			"message": fmt.Sprintf("%s: %v", http.StatusText(err.code), err.cause),
		})
		return
	}

	code := http.StatusInternalServerError
	c.String(code, "%s: %v", http.StatusText(code), err)
	c.Abort()
}

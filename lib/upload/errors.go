// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"errors"
	"fmt"
)

// ErrTooManyFiles is returned for batches larger than MaxFiles.
var ErrTooManyFiles = errors.New("upload: too many files")

// ServerError is a non-2xx answer from the upload endpoint.
type ServerError struct {
	StatusCode int

	// Message is the server's error string, or the raw body when the
	// body was not the usual JSON document.
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("upload: HTTP %d: %s", e.StatusCode, e.Message)
}

// IsRateLimited reports whether err is the server refusing a batch
// because the room uploads too often.
func IsRateLimited(err error) bool {
	var serverError *ServerError
	if !errors.As(err, &serverError) {
		return false
	}
	return serverError.StatusCode == 429 || serverError.Message == "Too Many Requests"
}

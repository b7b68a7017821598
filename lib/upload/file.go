// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// File is one file of a batch. Open is called once, while the request
// body is assembled.
type File struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FromPath returns a File reading the named path. The upload name is
// the path's base name.
func FromPath(path string) File {
	return File{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// FromBytes returns a File with fixed content.
func FromBytes(name string, data []byte) File {
	return File{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// Names returns the upload names of files in order.
func Names(files []File) []string {
	names := make([]string, len(files))
	for i, file := range files {
		names[i] = file.Name
	}
	return names
}

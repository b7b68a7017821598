// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package upload sends file batches to the room server's upload
// endpoint.
//
// A batch is one multipart POST with parts named file0 through file19.
// The server answers with a JSON document mapping each file name to a
// stored id or a per-file error, plus an optional request-level error.
// Progress is reported as the percentage of the request body written.
package upload

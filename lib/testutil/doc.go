// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds shared test helpers.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern for tests that cross goroutines (the session loop, the
// websocket reader, upload progress). They are the only place tests use
// the wall clock; everything else drives time through clock.Fake.
package testutil

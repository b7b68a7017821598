// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chatlog holds the ordered record of what has been said in a
// room session.
//
// Records are kept in arrival order. Upload records are the one
// exception: they are keyed by upload id, and later progress or
// completion events for the same id update the existing record in place
// instead of appending. Chat and message-of-the-day bodies are enriched
// once, when appended, and never re-rendered.
package chatlog

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chatui is the terminal chat surface: a bubbletea model that
// renders session snapshots and turns keystrokes into session calls.
//
// The model never touches a [session.Session] directly from the
// bubbletea goroutine. Every call is posted to the session's loop, and
// the session answers by publishing a snapshot, which the binary
// forwards into the program as a [SnapshotMsg].
//
// Rendering converts the enriched HTML of chat records into styled
// terminal text: links are underlined, code spans and blocks keep
// their text, and video frames become a one-line placeholder with the
// posted URL. Tab completes peer handles after /ping, /whisper and
// /growl using fzf's matcher.
package chatui

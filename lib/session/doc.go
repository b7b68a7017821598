// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session reconciles a room's inbound event stream into local
// state and carries the user's actions back out.
//
// A [Session] owns the roster, the message log, the typing registry,
// the flash notification and the attention signal. Every envelope the
// transport delivers is decoded into a typed event and routed, in
// arrival order, to the components it affects. Mutations made while
// handling one event, one user action or one timer callback form a
// batch; the OnChange callback receives a fresh [Snapshot] once at the
// end of each batch that changed anything.
//
// A Session is not safe for concurrent use. The transport handler,
// timer callbacks and upload progress all reach it through the
// configured [loop.Poster], so a single goroutine running the loop
// owns it. Callers outside the loop (the UI) must Post their calls
// too.
//
// Faults never escape the loop: malformed events are logged and
// dropped, failed sends and uploads become flash notifications.
package session

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package typing tracks "peer is typing" indicators in both
// directions.
//
// [Registry] holds one entry per remote peer, refreshed on every typing
// signal and dropped once it is older than the debounce interval, when
// the peer's message arrives, or when the peer leaves. [Sweeper] runs
// Registry.Sweep on a fixed interval so stale entries disappear within
// one interval. [Debouncer] is the sending side: it classifies local
// keystrokes and lets at most one outbound typing signal through per
// interval.
//
// None of the types are safe for concurrent use. Timer callbacks are
// delivered through a [loop.Poster] so they run on the owner's loop.
package typing

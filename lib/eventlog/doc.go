// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package eventlog records and replays room traffic.
//
// A recording is a CBOR sequence (lib/codec): a [Header] item followed
// by one [Entry] per event, in the order the session saw them. Inbound
// entries carry the envelope exactly as it arrived; outbound entries
// carry the JSON frame the session sent. A path ending in ".zst" is
// zstd-compressed and one ending in ".lz4" is lz4-framed; anything
// else is written raw.
//
// A [Script] is a hand-written scenario in JSONC (comments and
// trailing commas allowed) listing inbound events with millisecond
// gaps between them. Recordings and scripts are both [Source]s, and a
// [Player] replays either through a session on a fake clock so the
// resulting transcript is deterministic.
//
// [Tap] wraps a live transport and records both directions while
// passing traffic through unchanged.
package eventlog

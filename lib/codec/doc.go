// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration shared by every package
// that writes binary data to disk.
//
// The room protocol itself is JSON. CBOR is used for event recordings
// (lib/eventlog), where a recording is a CBOR sequence: one header item
// followed by one item per event. The encoder uses Core Deterministic
// Encoding (RFC 8949 §4.2), so the same events always produce the same
// bytes, and writes times as RFC 3339 text with nanoseconds so a
// recording is readable with any CBOR diagnostic tool.
//
// Buffer-oriented:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Stream-oriented:
//
//	encoder := codec.NewEncoder(file)
//	decoder := codec.NewDecoder(file)
//
// Types that only ever appear in recordings carry `cbor` struct tags.
// Types shared with the JSON wire protocol keep their `json` tags;
// fxamacker/cbor falls back to them when no `cbor` tag is present.
package codec

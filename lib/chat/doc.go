// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chat defines the room server's wire protocol as seen by a
// client: the [Envelope] every frame travels in, the closed set of
// event [Kind] values, the payload shapes for each kind, and the
// [Peer] identity with its derived avatar colour.
//
// [Decode] turns an inbound envelope into one of the typed [Event]
// variants. Kinds this client does not understand decode to [Unknown]
// rather than an error, so newer servers can add events without
// breaking older clients.
package chat

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wsconn connects a session to a room server over a
// websocket.
//
// [Conn] dials the room's websocket endpoint, forwards every inbound
// frame to the subscribed handler as a [chat.Envelope], and serializes
// outbound events as {type, data} JSON frames. Connection lifecycle is
// reported through the same handler as synthesized envelopes:
//
//   - connect after every successful dial
//   - disconnect when a dial fails or an established connection drops
//   - reconnecting{timeout} before each backoff wait
//
// A close frame whose reason names a terminal session fault
// (peer.ratelimited, room.full, room.dispose) is forwarded as that
// kind and ends [Conn.Run] with a [*CloseError]; no reconnect follows.
// Every other drop is retried with exponential backoff, optionally
// bounded by a maximum attempt count.
package wsconn

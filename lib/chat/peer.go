// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// Peer is a participant in the room. ID is unique per connection;
// Handle is a display name and may repeat. Avatar is derived from ID by
// [HashColor] when the peer is constructed.
type Peer struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
	Avatar string `json:"-"`
}

// NewPeer returns a Peer with its avatar colour filled in.
func NewPeer(id, handle string) Peer {
	return Peer{ID: id, Handle: handle, Avatar: HashColor(id)}
}

// HashColor derives a "#rrggbb" colour from id. The id's UTF-16 code
// units are folded into a 32-bit hash with hash = unit + (hash<<5) -
// hash, and the low three bytes of the hash become red, green and blue.
// The same id always yields the same colour, matching the web client
// byte for byte.
func HashColor(id string) string {
	var hash int32
	for _, unit := range utf16.Encode([]rune(id)) {
		hash = int32(unit) + (hash << 5) - hash
	}

	var colour strings.Builder
	colour.Grow(7)
	colour.WriteByte('#')
	for shift := 0; shift < 3; shift++ {
		component := byte(hash >> (8 * shift))
		if component < 0x10 {
			colour.WriteByte('0')
		}
		colour.WriteString(strconv.FormatUint(uint64(component), 16))
	}
	return colour.String()
}

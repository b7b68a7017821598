// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package typing

import (
	"cmp"
	"slices"
	"time"

	"github.com/bureau-foundation/roomchat/lib/chat"
)

// DefaultInterval is the debounce window for both directions.
const DefaultInterval = 3 * time.Second

// Entry is one peer's typing state.
type Entry struct {
	Peer     chat.Peer
	LastSeen time.Time
}

// Registry is the set of peers currently typing.
type Registry struct {
	interval time.Duration
	self     string
	entries  map[string]Entry
}

// NewRegistry returns an empty registry. A non-positive interval
// selects DefaultInterval.
func NewRegistry(interval time.Duration) *Registry {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Registry{interval: interval, entries: make(map[string]Entry)}
}

// Interval returns the expiry window.
func (r *Registry) Interval() time.Duration { return r.interval }

// SetSelf records the local peer id. Signals from it are ignored, and
// any entry already held for it is dropped.
func (r *Registry) SetSelf(id string) {
	r.self = id
	delete(r.entries, id)
}

// Observe records a typing signal from peer at now. It reports whether
// the set of typing peers changed, which is false when the peer was
// already present or is self.
func (r *Registry) Observe(peer chat.Peer, now time.Time) bool {
	if peer.ID == "" || peer.ID == r.self {
		return false
	}
	_, present := r.entries[peer.ID]
	r.entries[peer.ID] = Entry{Peer: peer, LastSeen: now}
	return !present
}

// Remove drops the entry for peerID. It reports whether one existed.
func (r *Registry) Remove(peerID string) bool {
	if _, present := r.entries[peerID]; !present {
		return false
	}
	delete(r.entries, peerID)
	return true
}

// Sweep drops every entry whose age at now exceeds the interval. An
// entry exactly one interval old survives. It reports whether anything
// was dropped.
func (r *Registry) Sweep(now time.Time) bool {
	changed := false
	for id, entry := range r.entries {
		if now.Sub(entry.LastSeen) > r.interval {
			delete(r.entries, id)
			changed = true
		}
	}
	return changed
}

// Active returns the typing peers ordered by handle, then id.
func (r *Registry) Active() []Entry {
	active := make([]Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		active = append(active, entry)
	}
	slices.SortFunc(active, func(a, b Entry) int {
		return cmp.Or(
			cmp.Compare(a.Peer.Handle, b.Peer.Handle),
			cmp.Compare(a.Peer.ID, b.Peer.ID),
		)
	})
	return active
}

// Contains reports whether peerID is typing.
func (r *Registry) Contains(peerID string) bool {
	_, present := r.entries[peerID]
	return present
}

// Len returns the number of typing peers.
func (r *Registry) Len() int { return len(r.entries) }

// Clear drops every entry and forgets self.
func (r *Registry) Clear() {
	clear(r.entries)
	r.self = ""
}

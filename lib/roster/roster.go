// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package roster keeps the set of peers present in a room.
package roster

import (
	"cmp"
	"slices"

	"github.com/bureau-foundation/roomchat/lib/chat"
)

// Directory is the ordered set of present peers plus the local peer's
// identity. Peers are kept sorted by handle (byte order, so case
// sensitive); peers with equal handles keep their insertion order.
// Not safe for concurrent use.
type Directory struct {
	self    chat.Peer
	hasSelf bool
	peers   []chat.Peer
}

// New returns an empty directory.
func New() *Directory {
	return &Directory{}
}

// SetSelf records the local peer. The avatar is derived here if the
// caller did not supply one.
func (d *Directory) SetSelf(peer chat.Peer) {
	d.self = withAvatar(peer)
	d.hasSelf = true
}

// Self returns the local peer and whether it has been set.
func (d *Directory) Self() (chat.Peer, bool) {
	return d.self, d.hasSelf
}

// IsSelf reports whether id is the local peer's id.
func (d *Directory) IsSelf(id string) bool {
	return d.hasSelf && id == d.self.ID
}

// UpsertOnJoin inserts peer, or replaces the existing entry with the
// same id. It reports whether the peer was new.
func (d *Directory) UpsertOnJoin(peer chat.Peer) bool {
	peer = withAvatar(peer)
	index := d.indexOf(peer.ID)
	if index >= 0 {
		if d.peers[index].Handle == peer.Handle {
			d.peers[index] = peer
			return false
		}
		d.peers = slices.Delete(d.peers, index, index+1)
	}
	d.insert(peer)
	return index < 0
}

// RemoveOnLeave removes the peer with id. Removing an absent id does
// nothing. It reports whether a peer was removed.
func (d *Directory) RemoveOnLeave(id string) bool {
	index := d.indexOf(id)
	if index < 0 {
		return false
	}
	d.peers = slices.Delete(d.peers, index, index+1)
	return true
}

// ReplaceAll discards the current peers and loads peers. Duplicate ids
// keep their last occurrence.
func (d *Directory) ReplaceAll(peers []chat.Peer) {
	d.peers = d.peers[:0]
	for _, peer := range peers {
		if peer.ID == "" {
			continue
		}
		d.UpsertOnJoin(peer)
	}
}

// Lookup returns the peer with id.
func (d *Directory) Lookup(id string) (chat.Peer, bool) {
	index := d.indexOf(id)
	if index < 0 {
		return chat.Peer{}, false
	}
	return d.peers[index], true
}

// FindHandle returns the first peer whose handle equals handle.
func (d *Directory) FindHandle(handle string) (chat.Peer, bool) {
	for _, peer := range d.peers {
		if peer.Handle == handle {
			return peer, true
		}
	}
	return chat.Peer{}, false
}

// Snapshot returns a copy of the peers in display order.
func (d *Directory) Snapshot() []chat.Peer {
	return slices.Clone(d.peers)
}

// Len returns the number of present peers.
func (d *Directory) Len() int { return len(d.peers) }

// Clear forgets every peer and the local identity.
func (d *Directory) Clear() {
	d.peers = nil
	d.self = chat.Peer{}
	d.hasSelf = false
}

// insert places peer after every peer whose handle sorts at or before
// it, which keeps equal handles in arrival order.
func (d *Directory) insert(peer chat.Peer) {
	index, _ := slices.BinarySearchFunc(d.peers, peer.Handle, func(existing chat.Peer, handle string) int {
		if cmp.Compare(existing.Handle, handle) <= 0 {
			return -1
		}
		return 1
	})
	d.peers = slices.Insert(d.peers, index, peer)
}

func (d *Directory) indexOf(id string) int {
	return slices.IndexFunc(d.peers, func(peer chat.Peer) bool { return peer.ID == id })
}

func withAvatar(peer chat.Peer) chat.Peer {
	if peer.Avatar == "" {
		peer.Avatar = chat.HashColor(peer.ID)
	}
	return peer
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roster

import (
	"testing"

	"github.com/bureau-foundation/roomchat/lib/chat"
)

func ids(peers []chat.Peer) []string {
	result := make([]string, len(peers))
	for i, peer := range peers {
		result[i] = peer.ID
	}
	return result
}

func equalIDs(t *testing.T, got []chat.Peer, want ...string) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("peers = %v, want %v", gotIDs, want)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("peers = %v, want %v", gotIDs, want)
		}
	}
}

func TestSnapshotSortedByHandle(t *testing.T) {
	directory := New()
	directory.UpsertOnJoin(chat.NewPeer("1", "bob"))
	directory.UpsertOnJoin(chat.NewPeer("2", "Zed"))
	directory.UpsertOnJoin(chat.NewPeer("3", "alice"))
	directory.UpsertOnJoin(chat.NewPeer("4", "bob"))

	// Byte order puts upper case first; equal handles keep arrival order.
	equalIDs(t, directory.Snapshot(), "2", "3", "1", "4")
}

func TestUpsertReplacesByID(t *testing.T) {
	directory := New()
	if !directory.UpsertOnJoin(chat.NewPeer("1", "bob")) {
		t.Error("first join reported existing peer")
	}
	if directory.UpsertOnJoin(chat.NewPeer("1", "bob")) {
		t.Error("repeat join reported new peer")
	}
	directory.UpsertOnJoin(chat.NewPeer("2", "carol"))
	directory.UpsertOnJoin(chat.Peer{ID: "1", Handle: "dave"})

	snapshot := directory.Snapshot()
	equalIDs(t, snapshot, "2", "1")
	if snapshot[1].Handle != "dave" {
		t.Errorf("handle = %q, want dave", snapshot[1].Handle)
	}
	if snapshot[1].Avatar != chat.HashColor("1") {
		t.Errorf("avatar = %q, want derived colour", snapshot[1].Avatar)
	}
}

func TestRemoveOnLeaveIdempotent(t *testing.T) {
	directory := New()
	directory.UpsertOnJoin(chat.NewPeer("1", "bob"))
	directory.UpsertOnJoin(chat.NewPeer("2", "carol"))

	if !directory.RemoveOnLeave("1") {
		t.Error("first removal returned false")
	}
	after := directory.Snapshot()
	if directory.RemoveOnLeave("1") {
		t.Error("second removal returned true")
	}
	equalIDs(t, directory.Snapshot(), ids(after)...)
	equalIDs(t, after, "2")
}

func TestReplaceAll(t *testing.T) {
	directory := New()
	directory.UpsertOnJoin(chat.NewPeer("old", "zoe"))
	directory.ReplaceAll([]chat.Peer{
		chat.NewPeer("1", "mallory"),
		chat.NewPeer("2", "alice"),
		chat.NewPeer("1", "mallory"),
		{Handle: "no id"},
	})
	equalIDs(t, directory.Snapshot(), "2", "1")
	if _, ok := directory.Lookup("old"); ok {
		t.Error("ReplaceAll kept a stale peer")
	}
}

func TestSelf(t *testing.T) {
	directory := New()
	if _, ok := directory.Self(); ok {
		t.Error("Self set on a new directory")
	}
	if directory.IsSelf("") {
		t.Error("empty id matched unset self")
	}
	directory.SetSelf(chat.Peer{ID: "me", Handle: "me"})
	self, ok := directory.Self()
	if !ok || self.ID != "me" || self.Avatar != chat.HashColor("me") {
		t.Errorf("Self = %+v, %v", self, ok)
	}
	if !directory.IsSelf("me") || directory.IsSelf("you") {
		t.Error("IsSelf mismatch")
	}

	directory.UpsertOnJoin(chat.NewPeer("me", "me"))
	directory.Clear()
	if _, ok := directory.Self(); ok || directory.Len() != 0 {
		t.Error("Clear kept state")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	directory := New()
	directory.UpsertOnJoin(chat.NewPeer("1", "bob"))
	snapshot := directory.Snapshot()
	snapshot[0].Handle = "mutated"
	if peer, _ := directory.Lookup("1"); peer.Handle != "bob" {
		t.Error("Snapshot aliases directory storage")
	}
	if peer, ok := directory.FindHandle("bob"); !ok || peer.ID != "1" {
		t.Errorf("FindHandle = %+v, %v", peer, ok)
	}
}

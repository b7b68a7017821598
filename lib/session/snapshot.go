// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"github.com/bureau-foundation/roomchat/lib/chat"
	"github.com/bureau-foundation/roomchat/lib/chatlog"
	"github.com/bureau-foundation/roomchat/lib/flash"
	"github.com/bureau-foundation/roomchat/lib/typing"
)

// State is the chat surface's lifecycle.
type State int

const (
	// StateConnecting is the state before the first connect event and
	// after a Reset.
	StateConnecting State = iota

	// StateOpen means the chat surface accepts input.
	StateOpen

	// StateClosed means the connection dropped; a later connect event
	// reopens the surface.
	StateClosed

	// StateDisposed means the room is gone. It is terminal.
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateDisposed:
		return "disposed"
	default:
		return "connecting"
	}
}

// Snapshot is a read-only copy of session state for rendering.
type Snapshot struct {
	// Version increases with every published snapshot.
	Version uint64

	State   State
	Focused bool

	Self    chat.Peer
	HasSelf bool

	Peers    []chat.Peer
	Messages []chatlog.Message
	Typing   []typing.Entry

	// Flash is the visible notification, or nil.
	Flash *flash.Notification
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	self, hasSelf := s.directory.Self()
	snapshot := Snapshot{
		Version:  s.version,
		State:    s.state,
		Focused:  s.attention.Focused(),
		Self:     self,
		HasSelf:  hasSelf,
		Peers:    s.directory.Snapshot(),
		Messages: s.log.Snapshot(),
		Typing:   s.typing.Active(),
	}
	if notification, ok := s.flash.Current(); ok {
		snapshot.Flash = &notification
	}
	return snapshot
}

// State returns the chat surface state.
func (s *Session) State() State { return s.state }

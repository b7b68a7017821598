// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"time"

	"github.com/bureau-foundation/roomchat/lib/chat"
	"github.com/bureau-foundation/roomchat/lib/chatlog"
	"github.com/bureau-foundation/roomchat/lib/flash"
)

// Notice texts for session faults.
const (
	retryingMessage    = "Disconnected. Retrying ..."
	rateLimitedMessage = "You sent too many messages"
	roomFullMessage    = "Room is full"
	disposedMessage    = "Room disposed"
)

// Dispatch decodes envelope and applies it. Malformed envelopes are
// logged and dropped. Once the room is disposed or the session closed,
// every envelope is dropped.
func (s *Session) Dispatch(envelope chat.Envelope) {
	if s.closed {
		return
	}
	if s.state == StateDisposed {
		s.logger.Debug("dropping event for disposed room", "kind", envelope.Type)
		return
	}
	event, err := chat.Decode(envelope)
	if err != nil {
		s.logger.Warn("dropping malformed event", "kind", envelope.Type, "error", err)
		return
	}
	timestamp := envelope.Timestamp
	if timestamp.IsZero() {
		timestamp = s.now()
	}
	s.batch(func() { s.route(event, timestamp) })
}

func (s *Session) route(event chat.Event, timestamp time.Time) {
	switch event := event.(type) {
	case chat.Connected:
		s.state = StateOpen
		s.debouncer.Reset()
		s.changed()
		if err := s.transport.Send(chat.KindPeerList, nil); err != nil {
			s.logger.Warn("requesting peer list", "error", err)
		}

	case chat.SessionFault:
		s.fault(event.Kind)

	case chat.Reconnecting:
		s.flash.Flash(retryingMessage, flash.Notice, event.Timeout)

	case chat.SelfInfo:
		s.directory.SetSelf(event.Peer)
		s.log.SetSelf(event.Peer.ID)
		s.typing.SetSelf(event.Peer.ID)
		s.changed()

	case chat.PeerList:
		s.directory.ReplaceAll(event.Peers)
		s.changed()

	case chat.PeerJoined:
		s.directory.UpsertOnJoin(event.Peer)
		s.presence(event.Peer, chatlog.KindJoin, timestamp)
		s.changed()

	case chat.PeerLeft:
		s.directory.RemoveOnLeave(event.Peer.ID)
		s.typing.Remove(event.Peer.ID)
		s.presence(event.Peer, chatlog.KindLeave, timestamp)
		s.changed()

	case chat.Message:
		s.typing.Remove(event.Author.ID)
		if event.Kind == chat.KindMotd {
			s.log.AppendMotd(event.Author, event.Text, timestamp)
		} else {
			s.log.AppendChat(event.Author, event.Text, timestamp)
		}
		s.attention.Signal()
		s.changed()

	case chat.Typing:
		if s.typing.Observe(event.Peer, s.now()) {
			s.changed()
		}

	case chat.Upload:
		s.log.UpsertUpload(event.ID, event.Author, uploadPatch(event), timestamp)
		s.changed()

	case chat.Directed:
		s.directed(event, timestamp)

	case chat.Unknown:
		s.logger.Debug("ignoring unknown event", "kind", event.Kind)

	default:
		s.logger.Warn("no route for event", "kind", event.EventKind())
	}
}

func (s *Session) fault(kind chat.Kind) {
	s.state = StateClosed
	switch kind {
	case chat.KindDisconnect:
		s.flash.Flash(retryingMessage, flash.Notice, 0)
	case chat.KindRateLimited:
		s.flash.Flash(rateLimitedMessage, flash.Error, 0)
	case chat.KindRoomFull:
		s.flash.Flash(roomFullMessage, flash.Error, 0)
	case chat.KindRoomDispose:
		s.flash.Flash(disposedMessage, flash.Error, 0)
		s.state = StateDisposed
		s.directory.ReplaceAll(nil)
		s.log.Clear()
		s.typing.Clear()
		s.debouncer.Reset()
	}
	s.changed()
}

func (s *Session) presence(peer chat.Peer, kind chatlog.Kind, timestamp time.Time) {
	if _, err := s.log.AppendPresenceNotice(peer, kind, timestamp); err != nil {
		s.logger.Error("appending presence notice", "error", err)
	}
}

func (s *Session) directed(event chat.Directed, timestamp time.Time) {
	if event.Text == "" {
		return
	}
	kind := chatlog.KindWhisper
	if event.Kind == chat.KindPing {
		kind = chatlog.KindPing
		if s.notifyDesktop(event) {
			return
		}
	}
	if _, err := s.log.AppendDirected(kind, event.Author, event.Text, timestamp); err != nil {
		s.logger.Error("appending directed message", "error", err)
		return
	}
	s.attention.Signal()
	s.changed()
}

// notifyDesktop raises a native notification for a ping while the
// window is unfocused. It reports whether the ping was delivered that
// way.
func (s *Session) notifyDesktop(event chat.Directed) bool {
	if s.attention.Focused() || s.notifier == nil || s.notifier.NeedsPermission() {
		return false
	}
	from := event.From
	if from == "" {
		from = event.Author.Handle
	}
	if err := s.notifier.Notify(from+" pings you!", event.Text); err != nil {
		s.logger.Warn("desktop notification failed, logging ping instead", "error", err)
		return false
	}
	return true
}

func uploadPatch(event chat.Upload) chatlog.UploadPatch {
	patch := chatlog.UploadPatch{
		Files:    event.Files,
		Percent:  event.Percent,
		Complete: event.Complete,
		Result:   event.Result,
	}
	if event.Err != "" {
		message := event.Err
		patch.Err = &message
	}
	return patch
}

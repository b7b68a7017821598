// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatlog

import (
	"fmt"
	"time"

	"github.com/bureau-foundation/roomchat/lib/chat"
	"github.com/bureau-foundation/roomchat/lib/enrich"
)

// Enricher renders raw message text. *enrich.Enricher satisfies it.
type Enricher interface {
	Enrich(raw string) enrich.Content
}

// Log is the ordered message record of a session. Not safe for
// concurrent use.
type Log struct {
	enricher Enricher
	self     string
	messages []Message
	uploads  map[chat.UploadID]int
}

// New returns an empty log that enriches bodies with enricher.
func New(enricher Enricher) *Log {
	return &Log{enricher: enricher, uploads: make(map[chat.UploadID]int)}
}

// SetSelf records the local peer id so presence notices about self are
// suppressed.
func (l *Log) SetSelf(id string) { l.self = id }

// AppendChat enriches raw and appends a chat record.
func (l *Log) AppendChat(author chat.Peer, raw string, timestamp time.Time) {
	l.appendEnriched(KindChat, author, raw, timestamp)
}

// AppendMotd enriches raw and appends a message-of-the-day record.
func (l *Log) AppendMotd(author chat.Peer, raw string, timestamp time.Time) {
	l.appendEnriched(KindMotd, author, raw, timestamp)
}

func (l *Log) appendEnriched(kind Kind, author chat.Peer, raw string, timestamp time.Time) {
	l.messages = append(l.messages, Message{
		Kind:      kind,
		Timestamp: timestamp,
		Peer:      author,
		Text:      raw,
		Body:      l.enricher.Enrich(raw),
	})
}

// AppendPresenceNotice appends a join or leave record for peer unless
// peer is self. It reports whether a record was appended.
func (l *Log) AppendPresenceNotice(peer chat.Peer, kind Kind, timestamp time.Time) (bool, error) {
	if kind != KindJoin && kind != KindLeave {
		return false, fmt.Errorf("presence notice kind %q: want %q or %q", kind, KindJoin, KindLeave)
	}
	if l.self != "" && peer.ID == l.self {
		return false, nil
	}
	l.messages = append(l.messages, Message{Kind: kind, Timestamp: timestamp, Peer: peer})
	return true, nil
}

// UpsertUpload applies patch to the upload record for id, appending a
// new record if none exists. An existing record keeps its position and
// original timestamp. It reports whether a record was created.
func (l *Log) UpsertUpload(id chat.UploadID, author chat.Peer, patch UploadPatch, timestamp time.Time) bool {
	if index, ok := l.uploads[id]; ok {
		message := &l.messages[index]
		if message.Peer.ID == "" {
			message.Peer = author
		}
		patch.apply(message.Upload)
		return false
	}

	upload := &Upload{ID: id}
	patch.apply(upload)
	l.uploads[id] = len(l.messages)
	l.messages = append(l.messages, Message{
		Kind:      KindUpload,
		Timestamp: timestamp,
		Peer:      author,
		Upload:    upload,
	})
	return true
}

// Upload returns a copy of the upload record for id.
func (l *Log) Upload(id chat.UploadID) (Upload, bool) {
	index, ok := l.uploads[id]
	if !ok {
		return Upload{}, false
	}
	return *l.messages[index].clone().Upload, true
}

// AppendDirected appends a ping, whisper, help or motd record when
// text is non-empty. Motd bodies are enriched. It reports whether a
// record was appended.
func (l *Log) AppendDirected(kind Kind, author chat.Peer, text string, timestamp time.Time) (bool, error) {
	switch kind {
	case KindPing, KindWhisper, KindHelp:
	case KindMotd:
		if text == "" {
			return false, nil
		}
		l.AppendMotd(author, text, timestamp)
		return true, nil
	default:
		return false, fmt.Errorf("directed record kind %q not supported", kind)
	}
	if text == "" {
		return false, nil
	}
	l.messages = append(l.messages, Message{Kind: kind, Timestamp: timestamp, Peer: author, Text: text})
	return true, nil
}

// Snapshot returns a deep copy of the records in order.
func (l *Log) Snapshot() []Message {
	snapshot := make([]Message, len(l.messages))
	for i, message := range l.messages {
		snapshot[i] = message.clone()
	}
	return snapshot
}

// Len returns the number of records.
func (l *Log) Len() int { return len(l.messages) }

// Clear drops every record and forgets self.
func (l *Log) Clear() {
	l.messages = nil
	clear(l.uploads)
	l.self = ""
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatlog

import (
	"maps"
	"slices"
	"time"

	"github.com/bureau-foundation/roomchat/lib/chat"
	"github.com/bureau-foundation/roomchat/lib/enrich"
)

// Kind discriminates log records.
type Kind string

const (
	KindChat    Kind = "chat"
	KindJoin    Kind = "join"
	KindLeave   Kind = "leave"
	KindHelp    Kind = "help"
	KindUpload  Kind = "upload"
	KindMotd    Kind = "motd"
	KindPing    Kind = "ping"
	KindWhisper Kind = "whisper"
)

// Message is one log record.
type Message struct {
	Kind      Kind
	Timestamp time.Time

	// Peer is the author, or for join and leave records the peer whose
	// presence changed. Help records have no peer.
	Peer chat.Peer

	// Text is the raw text of chat, motd, help, ping and whisper
	// records.
	Text string

	// Body is the enriched form of Text. Only chat and motd records
	// carry one.
	Body enrich.Content

	// Upload is set on upload records.
	Upload *Upload
}

// Upload is the state of one upload batch.
type Upload struct {
	ID       chat.UploadID
	Files    []string
	Percent  int
	Complete bool
	Result   *chat.UploadResponse
	Err      string
}

// Failed reports whether the batch ended in an error, either for the
// whole request or for any file in it.
func (u *Upload) Failed() bool {
	if u.Err != "" {
		return true
	}
	if u.Result == nil {
		return false
	}
	if u.Result.Error != nil && *u.Result.Error != "" {
		return true
	}
	for _, file := range u.Result.Data {
		if file.Err != "" {
			return true
		}
	}
	return false
}

// UploadPatch carries the fields of an upload event. Nil fields leave
// the record unchanged, and progress arriving after completion is
// ignored.
type UploadPatch struct {
	Files    []string
	Percent  *int
	Complete bool
	Result   *chat.UploadResponse
	Err      *string
}

func (p UploadPatch) apply(upload *Upload) {
	if p.Files != nil {
		upload.Files = slices.Clone(p.Files)
	}
	if p.Percent != nil && !upload.Complete {
		upload.Percent = min(max(*p.Percent, 0), 100)
	}
	if p.Complete {
		upload.Complete = true
		if p.Err == nil {
			upload.Percent = 100
		}
	}
	if p.Result != nil {
		upload.Result = cloneResponse(p.Result)
	}
	if p.Err != nil {
		upload.Err = *p.Err
	}
}

func (m Message) clone() Message {
	m.Body.Embeds = slices.Clone(m.Body.Embeds)
	m.Body.Links = slices.Clone(m.Body.Links)
	if m.Upload != nil {
		upload := *m.Upload
		upload.Files = slices.Clone(upload.Files)
		upload.Result = cloneResponse(upload.Result)
		m.Upload = &upload
	}
	return m
}

func cloneResponse(response *chat.UploadResponse) *chat.UploadResponse {
	if response == nil {
		return nil
	}
	clone := &chat.UploadResponse{Data: maps.Clone(response.Data)}
	if response.Error != nil {
		text := *response.Error
		clone.Error = &text
	}
	return clone
}

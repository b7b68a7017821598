// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// PeerPayload is the data of peer.info, peer.join, peer.leave and
// typing, and each element of peer.list.
type PeerPayload struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
}

// ChatPayload is the data of message and motd.
type ChatPayload struct {
	PeerID     string `json:"peer_id"`
	PeerHandle string `json:"peer_handle"`
	Message    string `json:"message"`
}

// Relayed wraps a payload the server forwarded on a peer's behalf,
// naming the peer that sent it.
type Relayed[T any] struct {
	PeerID     string `json:"peer_id"`
	PeerHandle string `json:"peer_handle"`
	Data       T      `json:"data"`
}

// UploadData is the client-authored part of uploading and upload
// events. Uploading carries Files and Percent; upload carries Result or
// Err.
type UploadData struct {
	UID     UploadID        `json:"uid"`
	Files   []string        `json:"files,omitempty"`
	Percent *int            `json:"percent,omitempty"`
	Result  *UploadResponse `json:"res,omitempty"`
	Err     string          `json:"err,omitempty"`
}

// UploadResponse is the upload endpoint's JSON reply, relayed verbatim
// in the terminal upload event.
type UploadResponse struct {
	Error *string                 `json:"error"`
	Data  map[string]UploadedFile `json:"data"`
}

// UploadedFile is the server's verdict for one file, keyed by the
// original file name in UploadResponse.Data. ID is the stored file's
// name under the room's upload path.
type UploadedFile struct {
	ID  string `json:"ID"`
	Err string `json:"Err,omitempty"`
}

// DirectedData is the client-authored part of ping, whisper and growl.
type DirectedData struct {
	To   string `json:"to"`
	Msg  string `json:"msg,omitempty"`
	From string `json:"from"`
}

// ReconnectingPayload is the data of the transport's reconnecting
// event.
type ReconnectingPayload struct {
	TimeoutMillis int64 `json:"timeout"`
}

// UploadID correlates the progress and completion events of one upload
// batch. The web client sends it as a JSON number, so both numbers and
// strings are accepted; numeric ids are written back as numbers.
type UploadID string

// NewUploadID derives an id from the current time in milliseconds.
func NewUploadID(now time.Time) UploadID {
	return UploadID(strconv.FormatInt(now.UnixMilli(), 10))
}

// UnmarshalJSON accepts a JSON string or number.
func (id *UploadID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*id = UploadID(text)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("upload id: %w", err)
	}
	*id = UploadID(number.String())
	return nil
}

// MarshalJSON writes numeric ids as JSON numbers and everything else as
// strings.
func (id UploadID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

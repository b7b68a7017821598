// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Event is a decoded inbound envelope. The concrete type is one of the
// variants below; consumers type-switch over them.
type Event interface {
	// EventKind returns the wire kind the event was decoded from.
	EventKind() Kind
}

// Connected reports that the transport (re)established the session.
type Connected struct{}

// SessionFault reports that the session dropped. Kind is one of
// KindDisconnect, KindRateLimited, KindRoomFull or KindRoomDispose.
type SessionFault struct {
	Kind Kind
}

// Reconnecting reports that the transport will retry after Timeout.
type Reconnecting struct {
	Timeout time.Duration
}

// SelfInfo tells the client which peer it is.
type SelfInfo struct {
	Peer Peer
}

// PeerList is the full set of peers in the room.
type PeerList struct {
	Peers []Peer
}

// PeerJoined and PeerLeft report presence changes.
type PeerJoined struct {
	Peer Peer
}

type PeerLeft struct {
	Peer Peer
}

// Message is a chat message or the room's message of the day.
type Message struct {
	Kind   Kind
	Author Peer
	Text   string
}

// Typing reports that Peer is composing a message.
type Typing struct {
	Peer Peer
}

// Upload reports progress or completion of a peer's upload batch.
// Complete is false for uploading events and true for upload events.
type Upload struct {
	Author   Peer
	ID       UploadID
	Complete bool
	Files    []string
	Percent  *int
	Result   *UploadResponse
	Err      string
}

// Directed is a ping or whisper addressed to this client.
type Directed struct {
	Kind   Kind
	Author Peer
	To     string
	From   string
	Text   string
}

// Unknown is any kind this client does not handle.
type Unknown struct {
	Kind Kind
}

func (Connected) EventKind() Kind { return KindConnect }
func (e SessionFault) EventKind() Kind { return e.Kind }
func (Reconnecting) EventKind() Kind { return KindReconnecting }
func (SelfInfo) EventKind() Kind { return KindPeerInfo }
func (PeerList) EventKind() Kind { return KindPeerList }
func (PeerJoined) EventKind() Kind { return KindPeerJoin }
func (PeerLeft) EventKind() Kind { return KindPeerLeave }
func (e Message) EventKind() Kind { return e.Kind }
func (Typing) EventKind() Kind { return KindTyping }
func (e Upload) EventKind() Kind { return uploadKind(e.Complete) }
func (e Directed) EventKind() Kind { return e.Kind }
func (e Unknown) EventKind() Kind { return e.Kind }

func uploadKind(complete bool) Kind {
	if complete {
		return KindUpload
	}
	return KindUploading
}

// DecodeError reports a payload that does not match its kind's shape.
type DecodeError struct {
	Kind Kind
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s event: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode converts an envelope into its typed event.
func Decode(envelope Envelope) (Event, error) {
	event, err := decode(envelope)
	if err != nil {
		return nil, &DecodeError{Kind: envelope.Type, Err: err}
	}
	return event, nil
}

func decode(envelope Envelope) (Event, error) {
	switch kind := envelope.Type; kind {
	case KindConnect:
		return Connected{}, nil

	case KindDisconnect, KindRateLimited, KindRoomFull, KindRoomDispose:
		return SessionFault{Kind: kind}, nil

	case KindReconnecting:
		timeout, err := decodeTimeout(envelope.Data)
		if err != nil {
			return nil, err
		}
		return Reconnecting{Timeout: timeout}, nil

	case KindPeerInfo, KindPeerJoin, KindPeerLeave, KindTyping:
		var payload PeerPayload
		if err := unmarshal(envelope.Data, &payload); err != nil {
			return nil, err
		}
		if payload.ID == "" {
			return nil, fmt.Errorf("missing peer id")
		}
		peer := NewPeer(payload.ID, payload.Handle)
		switch kind {
		case KindPeerInfo:
			return SelfInfo{Peer: peer}, nil
		case KindPeerJoin:
			return PeerJoined{Peer: peer}, nil
		case KindPeerLeave:
			return PeerLeft{Peer: peer}, nil
		default:
			return Typing{Peer: peer}, nil
		}

	case KindPeerList:
		var payload []PeerPayload
		if err := unmarshal(envelope.Data, &payload); err != nil {
			return nil, err
		}
		peers := make([]Peer, 0, len(payload))
		for _, entry := range payload {
			peers = append(peers, NewPeer(entry.ID, entry.Handle))
		}
		return PeerList{Peers: peers}, nil

	case KindMessage, KindMotd:
		var payload ChatPayload
		if err := unmarshal(envelope.Data, &payload); err != nil {
			return nil, err
		}
		return Message{
			Kind:   kind,
			Author: NewPeer(payload.PeerID, payload.PeerHandle),
			Text:   payload.Message,
		}, nil

	case KindUploading, KindUpload:
		var payload Relayed[UploadData]
		if err := unmarshal(envelope.Data, &payload); err != nil {
			return nil, err
		}
		if payload.Data.UID == "" {
			return nil, fmt.Errorf("missing upload id")
		}
		return Upload{
			Author:   NewPeer(payload.PeerID, payload.PeerHandle),
			ID:       payload.Data.UID,
			Complete: kind == KindUpload,
			Files:    payload.Data.Files,
			Percent:  clampPercent(payload.Data.Percent),
			Result:   payload.Data.Result,
			Err:      payload.Data.Err,
		}, nil

	case KindPing, KindWhisper:
		var payload Relayed[DirectedData]
		if err := unmarshal(envelope.Data, &payload); err != nil {
			return nil, err
		}
		return Directed{
			Kind:   kind,
			Author: NewPeer(payload.PeerID, payload.PeerHandle),
			To:     payload.Data.To,
			From:   payload.Data.From,
			Text:   payload.Data.Msg,
		}, nil

	default:
		return Unknown{Kind: kind}, nil
	}
}

func unmarshal(data json.RawMessage, target any) error {
	if len(data) == 0 {
		return fmt.Errorf("missing data")
	}
	return json.Unmarshal(data, target)
}

// decodeTimeout accepts {"timeout": ms} or a bare millisecond count.
func decodeTimeout(data json.RawMessage) (time.Duration, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return 0, nil
	}
	if trimmed[0] == '{' {
		var payload ReconnectingPayload
		if err := json.Unmarshal(trimmed, &payload); err != nil {
			return 0, err
		}
		return time.Duration(payload.TimeoutMillis) * time.Millisecond, nil
	}
	var millis int64
	if err := json.Unmarshal(trimmed, &millis); err != nil {
		return 0, err
	}
	return time.Duration(millis) * time.Millisecond, nil
}

func clampPercent(percent *int) *int {
	if percent == nil {
		return nil
	}
	value := min(max(*percent, 0), 100)
	return &value
}

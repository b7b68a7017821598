// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventlog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bureau-foundation/roomchat/lib/chat"
)

// Format identifies a recording in its header.
const Format = "roomchat-recording"

// Version is the recording layout version written by this package.
const Version = 1

// Direction says which way an entry travelled.
type Direction string

const (
	Inbound  Direction = "in"
	Outbound Direction = "out"
)

// Header is the first item of a recording.
type Header struct {
	Format  string    `cbor:"format"`
	Version int       `cbor:"version"`
	Room    string    `cbor:"room,omitempty"`
	Started time.Time `cbor:"started"`
}

// Entry is one recorded event.
type Entry struct {
	// At is when the event was recorded, on the recorder's clock.
	At time.Time `cbor:"at"`

	Direction Direction `cbor:"dir"`
	Kind      chat.Kind `cbor:"kind"`

	// Timestamp is the server's timestamp on inbound envelopes.
	Timestamp time.Time `cbor:"ts,omitempty"`

	// Data is the JSON payload, if any.
	Data []byte `cbor:"data,omitempty"`
}

// Envelope returns the entry as an inbound envelope.
func (e Entry) Envelope() chat.Envelope {
	return chat.Envelope{Type: e.Kind, Timestamp: e.Timestamp, Data: json.RawMessage(e.Data)}
}

// InboundEntry records an envelope received at at.
func InboundEntry(at time.Time, envelope chat.Envelope) Entry {
	return Entry{
		At:        at,
		Direction: Inbound,
		Kind:      envelope.Type,
		Timestamp: envelope.Timestamp,
		Data:      []byte(envelope.Data),
	}
}

// OutboundEntry records an event sent at at. The payload is stored as
// the JSON the transport writes.
func OutboundEntry(at time.Time, kind chat.Kind, payload any) (Entry, error) {
	entry := Entry{At: at, Direction: Outbound, Kind: kind}
	if payload == nil {
		return entry, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Entry{}, fmt.Errorf("encoding %s payload: %w", kind, err)
	}
	entry.Data = data
	return entry, nil
}

// Source yields entries in order. Next returns io.EOF after the last
// one.
type Source interface {
	Next() (Entry, error)
}

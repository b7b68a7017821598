// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is one frame from the room server: the event kind, the
// server's timestamp, and the kind-specific payload left undecoded.
type Envelope struct {
	Type      Kind            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Outbound is a frame sent to the room server. The server stamps the
// time, so outbound frames carry none.
type Outbound struct {
	Type Kind `json:"type"`
	Data any  `json:"data,omitempty"`
}

// NewEnvelope builds an Envelope with payload encoded as JSON. A nil
// payload leaves Data empty.
func NewEnvelope(kind Kind, timestamp time.Time, payload any) (Envelope, error) {
	envelope := Envelope{Type: kind, Timestamp: timestamp}
	if payload == nil {
		return envelope, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encoding %s payload: %w", kind, err)
	}
	envelope.Data = data
	return envelope, nil
}

// ParseEnvelope decodes a JSON frame.
func ParseEnvelope(frame []byte) (Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(frame, &envelope); err != nil {
		return Envelope{}, fmt.Errorf("parsing frame: %w", err)
	}
	if envelope.Type == "" {
		return Envelope{}, fmt.Errorf("parsing frame: missing type")
	}
	return envelope, nil
}

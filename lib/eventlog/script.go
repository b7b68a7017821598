// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/roomchat/lib/chat"
)

// Script is a hand-written scenario of inbound events.
//
//	{
//	  "room": "demo",
//	  "events": [
//	    {"type": "connect"},
//	    {"type": "peer.info", "data": {"id": "a1", "handle": "alice"}},
//	    // bob starts typing half a second later
//	    {"after_ms": 500, "type": "typing", "data": {"id": "b1", "handle": "bob"}},
//	  ],
//	}
type Script struct {
	Room   string        `json:"room"`
	Events []ScriptEvent `json:"events"`
}

// ScriptEvent is one scripted inbound envelope. AfterMillis is the gap
// since the previous event.
type ScriptEvent struct {
	AfterMillis int64           `json:"after_ms"`
	Type        chat.Kind       `json:"type"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// ParseScript strips JSONC comments and trailing commas from data and
// decodes and validates the scenario.
func ParseScript(data []byte) (*Script, error) {
	var script Script
	if err := json.Unmarshal(jsonc.ToJSON(data), &script); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	if err := script.Validate(); err != nil {
		return nil, err
	}
	return &script, nil
}

// LoadScript reads and parses a scenario file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	script, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return script, nil
}

// Validate reports every malformed event.
func (s *Script) Validate() error {
	var errs []error
	if len(s.Events) == 0 {
		errs = append(errs, errors.New("script has no events"))
	}
	for i, event := range s.Events {
		if event.Type == "" {
			errs = append(errs, fmt.Errorf("event %d: missing type", i))
		}
		if event.AfterMillis < 0 {
			errs = append(errs, fmt.Errorf("event %d: negative after_ms %d", i, event.AfterMillis))
		}
	}
	return errors.Join(errs...)
}

// Source returns the script's events as inbound entries, the first one
// at start. Envelope timestamps equal the entry times.
func (s *Script) Source(start time.Time) Source {
	return &scriptSource{events: s.Events, at: start}
}

type scriptSource struct {
	events []ScriptEvent
	at     time.Time
	next   int
}

func (s *scriptSource) Next() (Entry, error) {
	if s.next >= len(s.events) {
		return Entry{}, io.EOF
	}
	event := s.events[s.next]
	s.next++
	s.at = s.at.Add(time.Duration(event.AfterMillis) * time.Millisecond)
	return Entry{
		At:        s.at,
		Direction: Inbound,
		Kind:      event.Type,
		Timestamp: s.at,
		Data:      []byte(event.Data),
	}, nil
}

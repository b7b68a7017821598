// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventlog

import (
	"log/slog"

	"github.com/bureau-foundation/roomchat/lib/chat"
	"github.com/bureau-foundation/roomchat/lib/clock"
)

// Transport is the connection interface a Tap wraps and provides.
type Transport interface {
	Subscribe(handler func(chat.Envelope))
	Send(kind chat.Kind, payload any) error
}

// Tap records every envelope passing through a transport. Recording
// failures are logged and never affect the traffic.
type Tap struct {
	transport Transport
	recorder  *Recorder
	clock     clock.Clock
	logger    *slog.Logger
}

// NewTap wraps transport. A nil logger selects slog.Default().
func NewTap(transport Transport, recorder *Recorder, c clock.Clock, logger *slog.Logger) *Tap {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tap{transport: transport, recorder: recorder, clock: c, logger: logger}
}

// Subscribe records each inbound envelope before handing it on.
func (t *Tap) Subscribe(handler func(chat.Envelope)) {
	t.transport.Subscribe(func(envelope chat.Envelope) {
		t.record(InboundEntry(t.clock.Now(), envelope))
		handler(envelope)
	})
}

// Send records the event once the wrapped transport accepted it.
func (t *Tap) Send(kind chat.Kind, payload any) error {
	if err := t.transport.Send(kind, payload); err != nil {
		return err
	}
	entry, err := OutboundEntry(t.clock.Now(), kind, payload)
	if err != nil {
		t.logger.Warn("not recording outbound event", "kind", kind, "error", err)
		return nil
	}
	t.record(entry)
	return nil
}

func (t *Tap) record(entry Entry) {
	if err := t.recorder.Record(entry); err != nil {
		t.logger.Warn("recording event failed", "kind", entry.Kind, "direction", entry.Direction, "error", err)
	}
}

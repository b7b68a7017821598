// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventlog

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/bureau-foundation/roomchat/lib/chat"
	"github.com/bureau-foundation/roomchat/lib/clock"
)

// Player is a Transport that replays the inbound entries of a Source.
// Outbound entries in the source are skipped; events the session sends
// during replay are collected instead. Time is driven on a fake clock:
// before each entry the clock advances by the gap since the previous
// one, so timers (typing expiry, notification lifetime) fire as they
// would have live.
type Player struct {
	source Source
	clock  *clock.FakeClock

	mu      sync.Mutex
	handler func(chat.Envelope)
	sent    []Entry
}

// NewPlayer returns a Player reading from source. The fake clock should
// start at or before the first entry's time.
func NewPlayer(source Source, c *clock.FakeClock) *Player {
	return &Player{source: source, clock: c}
}

// Subscribe registers the handler that receives replayed envelopes.
func (p *Player) Subscribe(handler func(chat.Envelope)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = handler
}

// Send collects an outbound event.
func (p *Player) Send(kind chat.Kind, payload any) error {
	entry, err := OutboundEntry(p.clock.Now(), kind, payload)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, entry)
	return nil
}

// Sent returns the events sent so far.
func (p *Player) Sent() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Entry(nil), p.sent...)
}

// Run replays every inbound entry, calling step after each one. It
// returns the number of entries delivered. step may be nil.
func (p *Player) Run(ctx context.Context, step func(Entry)) (int, error) {
	p.mu.Lock()
	handler := p.handler
	p.mu.Unlock()
	if handler == nil {
		return 0, errors.New("eventlog: player has no subscriber")
	}

	delivered := 0
	for {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		entry, err := p.source.Next()
		if errors.Is(err, io.EOF) {
			return delivered, nil
		}
		if err != nil {
			return delivered, err
		}
		if entry.Direction == Outbound {
			continue
		}
		if gap := entry.At.Sub(p.clock.Now()); gap > 0 {
			p.clock.Advance(gap)
		}
		handler(entry.Envelope())
		delivered++
		if step != nil {
			step(entry)
		}
	}
}

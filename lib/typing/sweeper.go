// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package typing

import (
	"github.com/bureau-foundation/roomchat/lib/clock"
	"github.com/bureau-foundation/roomchat/lib/loop"
)

// Sweeper sweeps a Registry every interval until stopped.
type Sweeper struct {
	registry *Registry
	clock    clock.Clock
	poster   loop.Poster
	slot     *clock.Slot
	onChange func()
	running  bool
}

// NewSweeper returns a stopped sweeper. onChange runs on the poster
// after a sweep that dropped entries; it may be nil.
func NewSweeper(registry *Registry, c clock.Clock, poster loop.Poster, onChange func()) *Sweeper {
	if onChange == nil {
		onChange = func() {}
	}
	return &Sweeper{
		registry: registry,
		clock:    c,
		poster:   poster,
		slot:     clock.NewSlot(c),
		onChange: onChange,
	}
}

// Start schedules the first sweep one interval from now. Starting a
// running sweeper does nothing.
func (s *Sweeper) Start() {
	if s.running {
		return
	}
	s.running = true
	s.arm()
}

// Stop cancels the pending sweep.
func (s *Sweeper) Stop() {
	s.running = false
	s.slot.Stop()
}

// Running reports whether sweeps are scheduled.
func (s *Sweeper) Running() bool { return s.running }

func (s *Sweeper) arm() {
	s.slot.Arm(s.registry.Interval(), func() {
		s.poster.Post(s.tick)
	})
}

func (s *Sweeper) tick() {
	if !s.running {
		return
	}
	if s.registry.Sweep(s.clock.Now()) {
		s.onChange()
	}
	s.arm()
}

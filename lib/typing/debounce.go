// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package typing

import (
	"time"
	"unicode"

	"github.com/bureau-foundation/roomchat/lib/clock"
	"github.com/bureau-foundation/roomchat/lib/loop"
)

// Key is a local keystroke in the message composer. Rune is zero for
// keys that produce no character (arrows, function keys, modifiers).
type Key struct {
	Rune  rune
	Enter bool
	Shift bool
}

// Action tells the composer what a keystroke should do.
type Action int

const (
	// ActionNone means the keystroke needs no outbound traffic.
	ActionNone Action = iota

	// ActionSignal means the composer should send a typing signal.
	ActionSignal

	// ActionSubmit means the composer should submit its message.
	ActionSubmit
)

func (a Action) String() string {
	switch a {
	case ActionSignal:
		return "signal"
	case ActionSubmit:
		return "submit"
	default:
		return "none"
	}
}

// Debouncer limits outbound typing signals to one per interval.
type Debouncer struct {
	interval   time.Duration
	poster     loop.Poster
	slot       *clock.Slot
	armed      bool
	generation uint64
}

// NewDebouncer returns an idle debouncer. A non-positive interval
// selects DefaultInterval.
func NewDebouncer(c clock.Clock, poster loop.Poster, interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Debouncer{interval: interval, poster: poster, slot: clock.NewSlot(c)}
}

// Keystroke classifies key. Enter without Shift submits. Letters,
// digits, underscore and whitespace count as typing activity and yield
// ActionSignal unless a signal was already let through in the current
// window. Every other key yields ActionNone and leaves the window
// untouched.
func (d *Debouncer) Keystroke(key Key) Action {
	character := key.Rune
	if key.Enter {
		if !key.Shift {
			return ActionSubmit
		}
		character = '\n'
	}
	if !isTypingRune(character) || d.armed {
		return ActionNone
	}

	d.armed = true
	d.generation++
	generation := d.generation
	d.slot.Arm(d.interval, func() {
		d.poster.Post(func() {
			if d.generation == generation {
				d.armed = false
			}
		})
	})
	return ActionSignal
}

// Reset ends the current window so the next typing keystroke signals
// again. Submitting a message resets.
func (d *Debouncer) Reset() {
	d.slot.Stop()
	d.armed = false
	d.generation++
}

// Suppressing reports whether a window is open.
func (d *Debouncer) Suppressing() bool { return d.armed }

func isTypingRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r)
}

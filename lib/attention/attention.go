// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package attention draws the user back to an unfocused chat window.
//
// While new activity is pending the window title alternates between
// the plain title and a marked one, and each signal optionally sounds
// a cue. Focusing the window ends the blinking and restores the title.
package attention

import (
	"time"

	"github.com/bureau-foundation/roomchat/lib/clock"
	"github.com/bureau-foundation/roomchat/lib/loop"
)

// DefaultBlinkInterval is the title toggle period.
const DefaultBlinkInterval = 2500 * time.Millisecond

// Marker prefixes the title while activity is pending.
const Marker = "[•] "

// Display is the window the signal is drawn on.
type Display interface {
	SetTitle(title string)
	Beep()
}

// Options configures an Activity.
type Options struct {
	Title         string
	BlinkInterval time.Duration
	Sound         bool
}

// Activity tracks window focus and pending activity. Not safe for
// concurrent use; blink callbacks are delivered through the poster.
type Activity struct {
	clock   clock.Clock
	poster  loop.Poster
	display Display
	slot    *clock.Slot
	options Options

	focused bool
	pending bool
	marked  bool
}

// New returns a focused Activity with no pending activity.
func New(c clock.Clock, poster loop.Poster, display Display, options Options) *Activity {
	if options.BlinkInterval <= 0 {
		options.BlinkInterval = DefaultBlinkInterval
	}
	return &Activity{
		clock:   c,
		poster:  poster,
		display: display,
		slot:    clock.NewSlot(c),
		options: options,
		focused: true,
	}
}

// Focused reports whether the window has input focus.
func (a *Activity) Focused() bool { return a.focused }

// Pending reports whether unseen activity is being signalled.
func (a *Activity) Pending() bool { return a.pending }

// Signal records new activity. It beeps when sound is enabled and
// starts the title blink if it is not already running. Signals while
// focused are ignored.
func (a *Activity) Signal() {
	if a.focused {
		return
	}
	if a.options.Sound {
		a.display.Beep()
	}
	if a.pending {
		return
	}
	a.pending = true
	a.slot.Arm(a.options.BlinkInterval, a.scheduleTick)
}

// Focus marks the window focused, stopping any blink.
func (a *Activity) Focus() {
	a.focused = true
	a.stop()
}

// Blur marks the window unfocused.
func (a *Activity) Blur() { a.focused = false }

// SetTitle changes the base title.
func (a *Activity) SetTitle(title string) {
	a.options.Title = title
	if !a.marked {
		a.display.SetTitle(title)
	}
}

// Close stops blinking and restores the title.
func (a *Activity) Close() { a.stop() }

func (a *Activity) stop() {
	a.slot.Stop()
	a.pending = false
	if a.marked {
		a.marked = false
		a.display.SetTitle(a.options.Title)
	}
}

func (a *Activity) scheduleTick() {
	a.poster.Post(a.tick)
}

func (a *Activity) tick() {
	if !a.pending {
		return
	}
	a.marked = !a.marked
	if a.marked {
		a.display.SetTitle(Marker + a.options.Title)
	} else {
		a.display.SetTitle(a.options.Title)
	}
	a.slot.Arm(a.options.BlinkInterval, a.scheduleTick)
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package flash holds the single transient notification shown to the
// user.
package flash

import (
	"time"

	"github.com/bureau-foundation/roomchat/lib/clock"
	"github.com/bureau-foundation/roomchat/lib/loop"
)

// DefaultTimeout is how long a notification stays up when the caller
// does not choose.
const DefaultTimeout = 3 * time.Second

// Severity classifies a notification.
type Severity int

const (
	Notice Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "notice"
}

// Notification is the visible message.
type Notification struct {
	Message   string
	Severity  Severity
	ExpiresAt time.Time
}

// Center holds at most one notification. Each Flash replaces the
// previous notification and its expiry timer. Not safe for concurrent
// use; expiry callbacks are delivered through the poster.
type Center struct {
	clock          clock.Clock
	poster         loop.Poster
	slot           *clock.Slot
	defaultTimeout time.Duration
	onChange       func()

	current    Notification
	active     bool
	generation uint64
}

// New returns an empty center. onChange runs whenever the visible
// notification changes, including on expiry; it may be nil. A
// non-positive defaultTimeout selects DefaultTimeout.
func New(c clock.Clock, poster loop.Poster, defaultTimeout time.Duration, onChange func()) *Center {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}
	if onChange == nil {
		onChange = func() {}
	}
	return &Center{
		clock:          c,
		poster:         poster,
		slot:           clock.NewSlot(c),
		defaultTimeout: defaultTimeout,
		onChange:       onChange,
	}
}

// Flash shows message until timeout elapses or another Flash replaces
// it. A non-positive timeout selects the center's default.
func (c *Center) Flash(message string, severity Severity, timeout time.Duration) {
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	c.generation++
	generation := c.generation
	c.current = Notification{
		Message:   message,
		Severity:  severity,
		ExpiresAt: c.clock.Now().Add(timeout),
	}
	c.active = true
	c.slot.Arm(timeout, func() {
		c.poster.Post(func() { c.expire(generation) })
	})
	c.onChange()
}

// Notice flashes message as a notice with the default timeout.
func (c *Center) Notice(message string) { c.Flash(message, Notice, 0) }

// Error flashes message as an error with the default timeout.
func (c *Center) Error(message string) { c.Flash(message, Error, 0) }

// expire clears the notification if it is still the one the timer was
// armed for. A timer that fired just as a newer Flash replaced it
// arrives here with a stale generation and does nothing.
func (c *Center) expire(generation uint64) {
	if generation != c.generation || !c.active {
		return
	}
	c.active = false
	c.current = Notification{}
	c.onChange()
}

// Clear removes the notification and cancels its timer.
func (c *Center) Clear() {
	c.slot.Stop()
	c.generation++
	if !c.active {
		return
	}
	c.active = false
	c.current = Notification{}
	c.onChange()
}

// Current returns the visible notification, if any.
func (c *Center) Current() (Notification, bool) {
	return c.current, c.active
}

// Close cancels the pending timer without notifying.
func (c *Center) Close() {
	c.slot.Stop()
	c.generation++
	c.active = false
	c.current = Notification{}
}

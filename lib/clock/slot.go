// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Slot holds at most one pending timer. Arm replaces the pending timer,
// Stop releases it. A Slot is owned by a single component and is not
// safe for concurrent use; the callbacks it schedules run on the
// clock's goroutine and are expected to hand work back to the owner's
// loop.
type Slot struct {
	clock Clock
	timer *Timer
}

// NewSlot returns an empty slot that schedules timers on c.
func NewSlot(c Clock) *Slot {
	return &Slot{clock: c}
}

// Arm cancels any pending timer and schedules f to run after d.
func (s *Slot) Arm(d time.Duration, f func()) {
	s.Stop()
	s.timer = s.clock.AfterFunc(d, f)
}

// Stop cancels the pending timer, if any. It reports whether a timer
// was cancelled before it fired.
func (s *Slot) Stop() bool {
	if s.timer == nil {
		return false
	}
	stopped := s.timer.Stop()
	s.timer = nil
	return stopped
}

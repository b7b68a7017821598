// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock is the time source for chat session timers.
//
// Every component that expires state (typing entries, flash
// notifications, the outbound typing debounce, the title blink) takes a
// [Clock] instead of calling the time package. Production code passes
// [Real]; tests pass [Fake] and drive time with [FakeClock.Advance], so
// expiry properties such as "present at 2999ms, gone at 3001ms" are
// checked without sleeping.
//
// [Slot] wraps the common pattern of a component owning exactly one
// pending timer: arming a slot cancels whatever it held, and stopping it
// on teardown guarantees the component's callback never runs late.
package clock

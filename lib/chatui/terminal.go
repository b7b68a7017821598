// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"io"
	"strings"
	"sync"

	"github.com/muesli/termenv"
)

// Terminal draws the window title, rings the bell and raises desktop
// notifications through terminal escape sequences. It satisfies both
// attention.Display and session.Notifier.
//
// Escape sequences are invisible, so they are written straight to the
// terminal alongside the bubbletea renderer.
type Terminal struct {
	mu            sync.Mutex
	output        *termenv.Output
	notifications bool
}

// NewTerminal writes to w, normally /dev/tty. notifications enables
// OSC 777 desktop notifications; terminals that do not understand the
// sequence ignore it.
func NewTerminal(w io.Writer, notifications bool) *Terminal {
	return &Terminal{
		output:        termenv.NewOutput(w),
		notifications: notifications,
	}
}

// SetTitle sets the window title.
func (t *Terminal) SetTitle(title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.output.SetWindowTitle(title)
}

// Beep rings the terminal bell.
func (t *Terminal) Beep() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.output.WriteString("\a")
}

// NeedsPermission reports whether desktop notifications are turned
// off, in which case pings are logged instead.
func (t *Terminal) NeedsPermission() bool { return !t.notifications }

// Notify raises a desktop notification.
func (t *Terminal) Notify(title, body string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	// The sequence is ';'-delimited.
	t.output.Notify(strings.ReplaceAll(title, ";", ","), strings.ReplaceAll(body, ";", ","))
	return nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package loop runs a session's handlers one at a time on a single
// goroutine.
//
// Transport callbacks and timer callbacks arrive on arbitrary
// goroutines. Instead of locking the state they touch, they Post a
// closure onto the session's Loop; Run executes closures strictly in
// the order they were posted. Code running inside a closure owns the
// session state exclusively and must not Post and wait on itself.
package loop

import (
	"context"
	"sync"
)

// Poster accepts work for serialized execution.
type Poster interface {
	Post(task func())
}

// Inline runs each task immediately on the caller's goroutine. Tests
// and single-goroutine tools use it in place of a Loop.
type Inline struct{}

// Post runs task before returning.
func (Inline) Post(task func()) { task() }

// Loop is a FIFO executor drained by Run.
type Loop struct {
	queue chan func()
	done  chan struct{}
	once  sync.Once
}

// New returns a Loop whose queue holds up to capacity pending tasks
// before Post blocks.
func New(capacity int) *Loop {
	return &Loop{
		queue: make(chan func(), capacity),
		done:  make(chan struct{}),
	}
}

// Post enqueues task. It blocks while the queue is full and drops the
// task once the loop has stopped.
func (l *Loop) Post(task func()) {
	select {
	case <-l.done:
		return
	default:
	}
	select {
	case l.queue <- task:
	case <-l.done:
	}
}

// Run executes posted tasks until ctx is cancelled or Stop is called.
// Tasks still queued at that point are discarded.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case task := <-l.queue:
			task()
		}
	}
}

// Stop ends Run. Safe to call more than once and from any goroutine.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.done) })
}

// Done is closed once the loop has stopped.
func (l *Loop) Done() <-chan struct{} { return l.done }

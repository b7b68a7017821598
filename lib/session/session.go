// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bureau-foundation/roomchat/lib/attention"
	"github.com/bureau-foundation/roomchat/lib/chat"
	"github.com/bureau-foundation/roomchat/lib/chatlog"
	"github.com/bureau-foundation/roomchat/lib/clock"
	"github.com/bureau-foundation/roomchat/lib/enrich"
	"github.com/bureau-foundation/roomchat/lib/flash"
	"github.com/bureau-foundation/roomchat/lib/loop"
	"github.com/bureau-foundation/roomchat/lib/roster"
	"github.com/bureau-foundation/roomchat/lib/typing"
	"github.com/bureau-foundation/roomchat/lib/upload"
)

// Transport is the room connection.
type Transport interface {
	// Subscribe registers the handler for every inbound envelope. It
	// is called once per session. The handler may be invoked from any
	// goroutine.
	Subscribe(handler func(chat.Envelope))

	// Send queues an outbound event. payload may be nil.
	Send(kind chat.Kind, payload any) error
}

// Uploader transfers a batch of files. *upload.Client satisfies it.
type Uploader interface {
	Upload(ctx context.Context, files []upload.File, progress func(percent int)) (*chat.UploadResponse, error)
}

// Notifier raises native desktop notifications.
type Notifier interface {
	// NeedsPermission reports whether notifications cannot be shown
	// yet.
	NeedsPermission() bool

	Notify(title, body string) error
}

// ErrDisposed is returned by actions attempted after the room was
// disposed.
var ErrDisposed = errors.New("session: room disposed")

// ErrNoUploader is returned by Upload when no Uploader is configured.
var ErrNoUploader = errors.New("session: uploads not available")

// Config holds the collaborators and settings of a Session.
type Config struct {
	// Transport is required.
	Transport Transport

	// Uploader is optional; without one Upload fails with a notice.
	Uploader Uploader

	// Notifier is optional; without one pings are always logged.
	Notifier Notifier

	// Display receives the window title and audible cue. Defaults to
	// a display that ignores both.
	Display attention.Display

	// Enricher renders message bodies. Defaults to enrich.New().
	Enricher chatlog.Enricher

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Poster runs timer callbacks, transport events and upload
	// progress. Defaults to loop.Inline{}, which is only suitable when
	// everything happens on one goroutine (tests, replay).
	Poster loop.Poster

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Title is the base window title.
	Title string

	// TypingInterval is the typing debounce window (3s).
	TypingInterval time.Duration

	// FlashTimeout is the default notification lifetime (3s).
	FlashTimeout time.Duration

	// BlinkInterval is the title blink period (2.5s).
	BlinkInterval time.Duration

	// Sound enables the audible cue.
	Sound bool

	// MaxUploadFiles bounds a batch (20).
	MaxUploadFiles int

	// OnChange receives a snapshot after every batch of mutations.
	OnChange func(Snapshot)
}

// Session is the state of one room connection.
type Session struct {
	transport Transport
	uploader  Uploader
	notifier  Notifier
	clock     clock.Clock
	poster    loop.Poster
	logger    *slog.Logger
	onChange  func(Snapshot)

	maxUploadFiles int

	directory *roster.Directory
	log       *chatlog.Log
	typing    *typing.Registry
	sweeper   *typing.Sweeper
	debouncer *typing.Debouncer
	flash     *flash.Center
	attention *attention.Activity

	state      State
	started    bool
	closed     bool
	depth      int
	dirty      bool
	version    uint64
	lastUpload int64

	ctx    context.Context
	cancel context.CancelFunc
	spawn  func(func())
}

// New builds a Session from config. Call Start to subscribe to the
// transport.
func New(config Config) (*Session, error) {
	if config.Transport == nil {
		return nil, errors.New("session: transport is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Poster == nil {
		config.Poster = loop.Inline{}
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Display == nil {
		config.Display = nopDisplay{}
	}
	if config.Enricher == nil {
		config.Enricher = enrich.New(enrich.WithLogger(config.Logger))
	}
	if config.MaxUploadFiles <= 0 || config.MaxUploadFiles > upload.MaxFiles {
		config.MaxUploadFiles = upload.MaxFiles
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		transport:      config.Transport,
		uploader:       config.Uploader,
		notifier:       config.Notifier,
		clock:          config.Clock,
		poster:         config.Poster,
		logger:         config.Logger,
		onChange:       config.OnChange,
		maxUploadFiles: config.MaxUploadFiles,
		directory:      roster.New(),
		log:            chatlog.New(config.Enricher),
		typing:         typing.NewRegistry(config.TypingInterval),
		state:          StateConnecting,
		ctx:            ctx,
		cancel:         cancel,
		spawn:          func(task func()) { go task() },
	}
	s.sweeper = typing.NewSweeper(s.typing, s.clock, s.poster, s.changed)
	s.debouncer = typing.NewDebouncer(s.clock, s.poster, config.TypingInterval)
	s.flash = flash.New(s.clock, s.poster, config.FlashTimeout, s.changed)
	s.attention = attention.New(s.clock, s.poster, config.Display, attention.Options{
		Title:         config.Title,
		BlinkInterval: config.BlinkInterval,
		Sound:         config.Sound,
	})
	return s, nil
}

// Start subscribes to the transport and starts the typing sweep.
// Calling it again does nothing.
func (s *Session) Start() {
	if s.started || s.closed {
		return
	}
	s.started = true
	s.transport.Subscribe(func(envelope chat.Envelope) {
		s.poster.Post(func() { s.Dispatch(envelope) })
	})
	s.sweeper.Start()
}

// Reset clears the roster, the log, typing state and the notification,
// as on logout. The session stays subscribed.
func (s *Session) Reset() {
	s.batch(func() {
		s.directory.Clear()
		s.log.Clear()
		s.typing.Clear()
		s.flash.Clear()
		s.attention.Focus()
		s.debouncer.Reset()
		if s.state != StateDisposed {
			s.state = StateConnecting
		}
		s.changed()
	})
}

// Close cancels every timer and in-flight upload. Events delivered
// afterwards are ignored.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	s.sweeper.Stop()
	s.debouncer.Reset()
	s.flash.Close()
	s.attention.Close()
}

// Focus records that the window gained input focus.
func (s *Session) Focus() {
	s.batch(func() {
		s.attention.Focus()
		s.changed()
	})
}

// Blur records that the window lost input focus.
func (s *Session) Blur() {
	s.batch(func() {
		s.attention.Blur()
		s.changed()
	})
}

// SetTitle changes the base window title.
func (s *Session) SetTitle(title string) {
	s.attention.SetTitle(title)
}

// Flash shows a notification from outside the session, e.g. a UI
// error.
func (s *Session) Flash(message string, severity flash.Severity) {
	s.batch(func() { s.flash.Flash(message, severity, 0) })
}

// batch runs f and publishes one snapshot afterwards if f changed
// anything. Batches nest; only the outermost publishes.
func (s *Session) batch(f func()) {
	s.depth++
	defer func() {
		s.depth--
		if s.depth == 0 && s.dirty {
			s.publish()
		}
	}()
	f()
}

// changed marks state dirty. Outside a batch (timer expiry) it
// publishes immediately.
func (s *Session) changed() {
	s.dirty = true
	if s.depth == 0 {
		s.publish()
	}
}

func (s *Session) publish() {
	s.dirty = false
	s.version++
	if s.onChange != nil && !s.closed {
		s.onChange(s.Snapshot())
	}
}

func (s *Session) now() time.Time { return s.clock.Now() }

type nopDisplay struct{}

func (nopDisplay) SetTitle(string) {}
func (nopDisplay) Beep() {}

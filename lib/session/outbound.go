// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"

	"github.com/bureau-foundation/roomchat/lib/chat"
	"github.com/bureau-foundation/roomchat/lib/chatlog"
	"github.com/bureau-foundation/roomchat/lib/flash"
	"github.com/bureau-foundation/roomchat/lib/slash"
	"github.com/bureau-foundation/roomchat/lib/typing"
)

// Submit sends one composed line. Slash commands are interpreted:
// /help appends local help, directed commands send to their target.
// Usage errors and send failures are flashed and returned.
func (s *Session) Submit(line string) error {
	var err error
	s.batch(func() { err = s.submit(line) })
	return err
}

func (s *Session) submit(line string) error {
	s.debouncer.Reset()
	if s.state == StateDisposed {
		s.flash.Flash(disposedMessage, flash.Error, 0)
		return ErrDisposed
	}

	invocation, err := slash.Parse(line)
	if err != nil {
		s.flash.Flash(err.Error(), flash.Error, 0)
		return err
	}

	switch invocation.Action {
	case slash.ActionHelp:
		if _, err := s.log.AppendDirected(chatlog.KindHelp, chat.Peer{}, invocation.Text, s.now()); err != nil {
			return err
		}
		s.changed()
		return nil

	case slash.ActionDirected:
		self, _ := s.directory.Self()
		return s.sendOrFlash(invocation.Command.Kind, invocation.Payload(self.Handle))

	default:
		if invocation.Text == "" {
			return nil
		}
		return s.sendOrFlash(chat.KindMessage, invocation.Text)
	}
}

// Keystroke feeds one composer keystroke through the typing debouncer
// and sends a typing signal when it allows one. The returned action
// tells the composer whether the key submits the message. Until the
// session is open keystrokes only classify Enter; they never open a
// debounce window.
func (s *Session) Keystroke(key typing.Key) typing.Action {
	if s.state != StateOpen {
		if key.Enter && !key.Shift {
			return typing.ActionSubmit
		}
		return typing.ActionNone
	}
	action := s.debouncer.Keystroke(key)
	if action == typing.ActionSignal {
		if err := s.transport.Send(chat.KindTyping, nil); err != nil {
			s.logger.Debug("typing signal not sent", "error", err)
		}
	}
	return action
}

// DisposeRoom asks the server to dispose the room for everyone.
func (s *Session) DisposeRoom() error {
	var err error
	s.batch(func() {
		if s.state == StateDisposed {
			err = ErrDisposed
			return
		}
		err = s.sendOrFlash(chat.KindRoomDispose, nil)
	})
	return err
}

func (s *Session) sendOrFlash(kind chat.Kind, payload any) error {
	if err := s.transport.Send(kind, payload); err != nil {
		s.logger.Warn("send failed", "kind", kind, "error", err)
		s.flash.Flash(fmt.Sprintf("Not sent: %v", err), flash.Error, 0)
		return fmt.Errorf("sending %s: %w", kind, err)
	}
	return nil
}

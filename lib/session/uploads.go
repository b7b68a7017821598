// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/bureau-foundation/roomchat/lib/chat"
	"github.com/bureau-foundation/roomchat/lib/chatlog"
	"github.com/bureau-foundation/roomchat/lib/flash"
	"github.com/bureau-foundation/roomchat/lib/upload"
)

const tooManyFilesMessage = "Too many files to upload"

// Upload starts transferring files as one batch. The batch appears in
// the log immediately and is announced to the room; progress and the
// final result follow as the transfer runs. Every peer, this one
// included, receives the announcements back from the server, which
// update the same record.
func (s *Session) Upload(files []upload.File) error {
	var err error
	s.batch(func() { err = s.startUpload(files) })
	return err
}

func (s *Session) startUpload(files []upload.File) error {
	if len(files) == 0 {
		return nil
	}
	if s.state == StateDisposed {
		s.flash.Flash(disposedMessage, flash.Error, 0)
		return ErrDisposed
	}
	if s.uploader == nil {
		s.flash.Flash("Uploads are not available", flash.Error, 0)
		return ErrNoUploader
	}
	if len(files) > s.maxUploadFiles {
		s.flash.Flash(tooManyFilesMessage, flash.Error, 0)
		return upload.ErrTooManyFiles
	}

	id := s.nextUploadID()
	names := upload.Names(files)
	self, _ := s.directory.Self()
	start := 0
	s.log.UpsertUpload(id, self, chatlog.UploadPatch{Files: names, Percent: &start}, s.now())
	s.changed()
	s.announce(chat.KindUploading, chat.UploadData{UID: id, Files: names, Percent: &start})

	ctx := s.ctx
	batch := slices.Clone(files)
	s.spawn(func() {
		response, err := s.uploader.Upload(ctx, batch, func(percent int) {
			s.poster.Post(func() { s.batch(func() { s.uploadProgress(id, names, percent) }) })
		})
		s.poster.Post(func() { s.batch(func() { s.uploadFinished(id, response, err) }) })
	})
	return nil
}

// nextUploadID derives the id from the current time in milliseconds,
// bumped past the previous id when two batches start in the same
// millisecond.
func (s *Session) nextUploadID() chat.UploadID {
	millis := s.now().UnixMilli()
	if millis <= s.lastUpload {
		millis = s.lastUpload + 1
	}
	s.lastUpload = millis
	return chat.NewUploadID(time.UnixMilli(millis))
}

func (s *Session) uploadProgress(id chat.UploadID, names []string, percent int) {
	if s.closed {
		return
	}
	s.log.UpsertUpload(id, chat.Peer{}, chatlog.UploadPatch{Percent: &percent}, s.now())
	s.changed()
	s.announce(chat.KindUploading, chat.UploadData{UID: id, Files: names, Percent: &percent})
}

func (s *Session) uploadFinished(id chat.UploadID, response *chat.UploadResponse, err error) {
	if s.closed {
		return
	}
	if err == nil && response != nil && response.Error != nil && *response.Error != "" {
		err = errors.New(*response.Error)
	}
	if err == nil && response == nil {
		err = errors.New("empty upload response")
	}

	if err != nil {
		message := err.Error()
		var serverError *upload.ServerError
		if errors.As(err, &serverError) {
			message = serverError.Message
		}
		s.logger.Warn("upload failed", "uid", id, "error", err)
		s.flash.Flash(message, flash.Error, 0)
		s.log.UpsertUpload(id, chat.Peer{}, chatlog.UploadPatch{Complete: true, Err: &message}, s.now())
		s.changed()
		s.announce(chat.KindUpload, chat.UploadData{UID: id, Err: message})
		return
	}

	if failures := fileFailures(response); failures != "" {
		s.flash.Flash(failures, flash.Error, 0)
	}
	s.log.UpsertUpload(id, chat.Peer{}, chatlog.UploadPatch{Complete: true, Result: response}, s.now())
	s.changed()
	s.announce(chat.KindUpload, chat.UploadData{UID: id, Result: response})
}

// announce sends an upload event. Failures only cost other peers the
// progress display, so they are logged, not flashed.
func (s *Session) announce(kind chat.Kind, data chat.UploadData) {
	if err := s.transport.Send(kind, data); err != nil {
		s.logger.Warn("upload announcement not sent", "kind", kind, "uid", data.UID, "error", err)
	}
}

func fileFailures(response *chat.UploadResponse) string {
	names := make([]string, 0, len(response.Data))
	for name, file := range response.Data {
		if file.Err != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	slices.Sort(names)
	first := names[0]
	if len(names) == 1 {
		return fmt.Sprintf("%s: %s", first, response.Data[first].Err)
	}
	return fmt.Sprintf("%s: %s (and %d more)", first, response.Data[first].Err, len(names)-1)
}

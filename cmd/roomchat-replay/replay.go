// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/roomchat/lib/chatui"
	"github.com/bureau-foundation/roomchat/lib/clock"
	"github.com/bureau-foundation/roomchat/lib/codec"
	"github.com/bureau-foundation/roomchat/lib/eventlog"
	"github.com/bureau-foundation/roomchat/lib/loop"
	"github.com/bureau-foundation/roomchat/lib/session"
)

// replayOptions controls what replay prints besides the transcript.
type replayOptions struct {
	Room  string
	Start time.Time

	// Width wraps transcript lines; zero disables wrapping.
	Width int

	// Steps prints one line per delivered event with the resulting
	// session state.
	Steps bool

	// Dump prints each delivered entry in CBOR diagnostic notation.
	Dump bool
}

// replayResult summarizes a replay.
type replayResult struct {
	Delivered int
	Snapshots int
	Final     session.Snapshot
	Sent      []eventlog.Entry
}

// replay feeds source through a session on a fake clock starting at
// options.Start and writes the resulting transcript to out. Timers run
// as the recorded gaps elapse, so typing expiry and notification
// timeouts behave as they did live.
func replay(ctx context.Context, source eventlog.Source, options replayOptions, logger *slog.Logger, out io.Writer) (replayResult, error) {
	fake := clock.Fake(options.Start)
	player := eventlog.NewPlayer(source, fake)

	var result replayResult
	chat, err := session.New(session.Config{
		Transport: player,
		Clock:     fake,
		Poster:    loop.Inline{},
		Logger:    logger,
		Title:     "roomchat: " + options.Room,
		OnChange: func(snapshot session.Snapshot) {
			result.Snapshots++
			result.Final = snapshot
		},
	})
	if err != nil {
		return result, err
	}
	chat.Start()
	defer chat.Close()

	step := func(entry eventlog.Entry) {
		if options.Steps {
			snapshot := chat.Snapshot()
			fmt.Fprintf(out, "+%-8s %-16s state=%s peers=%d messages=%d typing=%d\n",
				entry.At.Sub(options.Start).Round(time.Millisecond), entry.Kind,
				snapshot.State, len(snapshot.Peers), len(snapshot.Messages), len(snapshot.Typing))
		}
		if options.Dump {
			encoded, err := codec.Marshal(entry)
			if err == nil {
				var notation string
				notation, err = codec.Diagnose(encoded)
				fmt.Fprint(out, notation)
			}
			if err != nil {
				logger.Warn("cannot dump entry", "kind", entry.Kind, "error", err)
			}
		}
	}

	result.Delivered, err = player.Run(ctx, step)
	result.Final = chat.Snapshot()
	result.Sent = player.Sent()
	if err != nil {
		return result, err
	}

	writeTranscript(out, result, options.Width)
	return result, nil
}

// writeTranscript prints the final log as plain text, then a summary.
func writeTranscript(out io.Writer, result replayResult, width int) {
	renderer := chatui.Renderer{Theme: chatui.DefaultTheme}
	self := ""
	if result.Final.HasSelf {
		self = result.Final.Self.ID
	}
	for _, message := range result.Final.Messages {
		fmt.Fprintln(out, ansi.Strip(renderer.Message(message, self, width)))
	}

	sent := make([]string, len(result.Sent))
	for index, entry := range result.Sent {
		sent[index] = string(entry.Kind)
	}
	fmt.Fprintf(out, "-- %d events, %d snapshots, state %s, %d peers, %d messages\n",
		result.Delivered, result.Snapshots, result.Final.State, len(result.Final.Peers), len(result.Final.Messages))
	if len(sent) > 0 {
		fmt.Fprintf(out, "-- sent: %s\n", strings.Join(sent, ", "))
	}
}

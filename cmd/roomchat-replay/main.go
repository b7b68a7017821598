// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// roomchat-replay plays a recorded or scripted room session through the
// chat engine without a server and prints the resulting transcript.
//
// Input is either a recording written by roomchat --record (CBOR, with
// optional .zst or .lz4 compression) or a JSONC scenario (.json or
// .jsonc) listing inbound events with the gaps between them. Time is
// simulated, so a scenario spanning minutes replays instantly and
// deterministically.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/roomchat/lib/eventlog"
	"github.com/bureau-foundation/roomchat/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var options replayOptions
	var start, logLevel string

	flagSet := pflag.NewFlagSet("roomchat-replay", pflag.ContinueOnError)
	flagSet.BoolVar(&options.Steps, "steps", false, "print the session state after every event")
	flagSet.BoolVar(&options.Dump, "dump", false, "print every event in CBOR diagnostic notation")
	flagSet.IntVar(&options.Width, "width", 0, "wrap transcript lines at this width (0: no wrapping)")
	flagSet.StringVar(&start, "start", "", "scenario start time, RFC 3339 (default: now; recordings use their own)")
	flagSet.StringVar(&logLevel, "log-level", "warn", "debug, info, warn or error")
	flagSet.BoolP("help", "h", false, "show help")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Println("roomchat-replay", version.Full())
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	args := flagSet.Args()
	if len(args) != 1 {
		printHelp(flagSet)
		return errors.New("expected exactly one recording or scenario file")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	options.Start = time.Now().Truncate(time.Second)
	if start != "" {
		parsed, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		options.Start = parsed
	}

	source, closeSource, err := openSource(args[0], &options)
	if err != nil {
		return err
	}
	defer closeSource()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	_, err = replay(ctx, source, options, logger, os.Stdout)
	return err
}

// openSource opens a scenario or a recording. Recordings replace
// options.Start and options.Room with the values in their header.
func openSource(path string, options *replayOptions) (eventlog.Source, func(), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		script, err := eventlog.LoadScript(path)
		if err != nil {
			return nil, nil, err
		}
		options.Room = script.Room
		return script.Source(options.Start), func() {}, nil
	}

	reader, err := eventlog.Open(path)
	if err != nil {
		return nil, nil, err
	}
	header := reader.Header()
	options.Room = header.Room
	if !header.Started.IsZero() {
		options.Start = header.Started
	}
	return reader, func() { reader.Close() }, nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `roomchat-replay: replay a room session offline.

Plays a recording made with "roomchat --record" or a JSONC scenario
through the chat engine on a simulated clock, then prints the message
log as it would appear in the client.

Usage:
  roomchat-replay [flags] <file>

Examples:
  # Replay a compressed recording, showing state after each event
  roomchat-replay --steps session.cbor.zst

  # Run a hand-written scenario
  roomchat-replay testdata/typing.jsonc

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}

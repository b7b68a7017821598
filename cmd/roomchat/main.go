// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// roomchat is a terminal client for a room chat server. It joins one
// room over a websocket, keeps the roster and message log in sync with
// the server's event stream, and renders them as a full-screen TUI.
//
// Configuration comes from a YAML file (--config, or the file named by
// ROOMCHAT_CONFIG) with command-line overrides for the common fields.
// With record.path set, every inbound event and every sent event is
// written to a recording that roomchat-replay can play back.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/roomchat/lib/chatui"
	"github.com/bureau-foundation/roomchat/lib/clock"
	"github.com/bureau-foundation/roomchat/lib/config"
	"github.com/bureau-foundation/roomchat/lib/eventlog"
	"github.com/bureau-foundation/roomchat/lib/loop"
	"github.com/bureau-foundation/roomchat/lib/session"
	"github.com/bureau-foundation/roomchat/lib/upload"
	"github.com/bureau-foundation/roomchat/lib/version"
	"github.com/bureau-foundation/roomchat/lib/wsconn"
)

// loopCapacity bounds the session's task queue.
const loopCapacity = 256

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// overrides are the command-line replacements for config fields.
type overrides struct {
	configPath string
	url        string
	room       string
	sessionID  string
	record     string
	logOutput  string
	logLevel   string
}

func (o *overrides) addFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&o.configPath, "config", "c", "", "path to roomchat.yaml (default: $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&o.url, "url", "", "room server base URL (overrides server.url)")
	flagSet.StringVarP(&o.room, "room", "r", "", "room id (overrides server.room)")
	flagSet.StringVar(&o.sessionID, "session", "", "session cookie value (overrides server.session_id)")
	flagSet.StringVar(&o.record, "record", "", "record the session to this file; .zst or .lz4 compresses (overrides record.path)")
	flagSet.StringVar(&o.logOutput, "log-output", "", "write JSON log records to this file (overrides log.output)")
	flagSet.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error (overrides log.level)")
}

func run() error {
	flagSet := pflag.NewFlagSet("roomchat", pflag.ContinueOnError)
	flags := &overrides{}
	flags.addFlags(flagSet)
	flagSet.BoolP("help", "h", false, "show help")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Println("roomchat", version.Full())
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
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := loadConfig(*flags)
	if err != nil {
		return err
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("roomchat needs an interactive terminal; use roomchat-replay for scripted sessions")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runChat(ctx, cfg)
}

// loadConfig reads the config file, applies flag overrides and
// validates the result. Without a file the defaults are used, so a
// session can be started from flags alone.
func loadConfig(flags overrides) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case flags.configPath != "":
		cfg, err = config.LoadFile(flags.configPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}

	replacements := []struct {
		value  string
		target *string
	}{
		{flags.url, &cfg.Server.URL},
		{flags.room, &cfg.Server.Room},
		{flags.sessionID, &cfg.Server.SessionID},
		{flags.record, &cfg.Record.Path},
		{flags.logOutput, &cfg.Log.Output},
		{flags.logLevel, &cfg.Log.Level},
	}
	for _, replacement := range replacements {
		if replacement.value != "" {
			*replacement.target = replacement.value
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// runChat wires the connection, the session and the TUI, and runs
// until the user quits or ctx is cancelled.
//
// Logs never go to stderr while the alt screen is up: warnings and
// errors appear in the status line, and log.output captures every
// record at the configured level as JSON.
func runChat(ctx context.Context, cfg *config.Config) error {
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return err
	}
	tuiHandler := chatui.NewLogHandler(max(level, slog.LevelWarn))
	var handler slog.Handler = tuiHandler
	if cfg.Log.Output != "" {
		fileHandler, closeFile, err := openFileLogHandler(cfg.Log.Output, level)
		if err != nil {
			return fmt.Errorf("cannot open log file %s: %w", cfg.Log.Output, err)
		}
		defer closeFile()
		handler = chatui.FanoutHandler{tuiHandler, fileHandler}
	}
	logger := slog.New(handler).With("room", cfg.Server.Room)

	conn, err := wsconn.New(wsconn.Config{
		BaseURL:          cfg.Server.URL,
		Room:             cfg.Server.Room,
		Path:             cfg.Server.WebsocketPath,
		CookieName:       cookieName(cfg.Server),
		SessionID:        cfg.Server.SessionID,
		UserAgent:        version.UserAgent(),
		Logger:           logger,
		ReconnectInitial: cfg.Server.ReconnectInitial.Std(),
		ReconnectMax:     cfg.Server.ReconnectMax.Std(),
		MaxReconnects:    cfg.Server.MaxReconnects,
	})
	if err != nil {
		return err
	}

	var transport session.Transport = conn
	if cfg.Record.Path != "" {
		recorder, err := eventlog.Create(cfg.Record.Path, eventlog.Header{
			Room:    cfg.Server.Room,
			Started: time.Now(),
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := recorder.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: closing recording: %v\n", err)
			}
		}()
		transport = eventlog.NewTap(conn, recorder, clock.Real(), logger)
	}

	uploader, err := upload.NewClient(upload.Config{
		BaseURL:    cfg.Server.URL,
		Room:       cfg.Server.Room,
		Path:       cfg.Server.UploadPath,
		CookieName: cookieName(cfg.Server),
		SessionID:  cfg.Server.SessionID,
		UserAgent:  version.UserAgent(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	tty, closeTTY := openTTY()
	defer closeTTY()
	terminal := chatui.NewTerminal(tty, cfg.Chat.DesktopNotifications)

	eventLoop := loop.New(loopCapacity)
	var program *tea.Program
	chat, err := session.New(session.Config{
		Transport:      transport,
		Uploader:       uploader,
		Notifier:       terminal,
		Display:        terminal,
		Poster:         eventLoop,
		Logger:         logger,
		Title:          "roomchat: " + cfg.Server.Room,
		TypingInterval: cfg.Chat.TypingInterval.Std(),
		FlashTimeout:   cfg.Chat.FlashTimeout.Std(),
		BlinkInterval:  cfg.Chat.TitleBlinkInterval.Std(),
		Sound:          cfg.Chat.Sound,
		MaxUploadFiles: cfg.Chat.MaxUploadFiles,
		OnChange: func(snapshot session.Snapshot) {
			program.Send(chatui.SnapshotMsg{Snapshot: snapshot})
		},
	})
	if err != nil {
		return err
	}

	model := chatui.NewModel(chatui.Options{
		Controller: chat,
		Poster:     eventLoop,
		Room:       cfg.Server.Room,
		FileURL:    cfg.Server.FileURL,
	})
	program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(ctx))
	tuiHandler.SetProgram(program)

	runContext, cancel := context.WithCancel(ctx)
	defer cancel()
	eventLoop.Post(chat.Start)
	go eventLoop.Run(runContext)
	go func() {
		err := conn.Run(runContext)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("connection ended", "error", err)
		}
	}()

	_, err = program.Run()

	eventLoop.Post(func() {
		chat.Close()
		eventLoop.Stop()
	})
	<-eventLoop.Done()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// cookieName is empty when no session id is configured, so neither
// client sends a cookie.
func cookieName(server config.ServerConfig) string {
	if server.SessionID == "" {
		return ""
	}
	return server.SessionCookie
}

// openTTY opens the controlling terminal for escape sequences the
// bubbletea renderer does not manage. Falls back to stdout.
func openTTY() (io.Writer, func()) {
	tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return os.Stdout, func() {}
	}
	return tty, func() { tty.Close() }
}

// openFileLogHandler creates a JSON handler writing to path at level.
// The file is created or truncated.
func openFileLogHandler(path string, level slog.Level) (slog.Handler, func(), error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return handler, func() { file.Close() }, nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `roomchat: terminal client for a room chat server.

Joins one room and shows its members, messages, typing indicators
and uploads. Slash commands:

  /ping user [message]     ping a user
  /whisper user message    send a private message
  /growl user message      send a notification
  /upload file...          share files
  /help [command]          show command help

Tab completes user names after /ping, /whisper and /growl.

Usage:
  roomchat [flags]

Examples:
  # Join a room using the configured server
  ROOMCHAT_CONFIG=~/.config/roomchat.yaml roomchat --room 3kq9xv

  # Join without a config file and record the session
  roomchat --url https://chat.example.com --room 3kq9xv --record session.cbor.zst

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}

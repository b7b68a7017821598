// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLogHandlerSummary(t *testing.T) {
	handler := NewLogHandler(slog.LevelWarn)
	derived := handler.WithAttrs([]slog.Attr{slog.String("room", "demo")}).WithGroup("upload")

	record := slog.NewRecord(epoch, slog.LevelWarn, "upload failed", 0)
	record.AddAttrs(slog.String("error", "boom"))
	summary := derived.(*LogHandler).summarize(record)
	if summary != "upload failed (room=demo, upload.error=boom)" {
		t.Errorf("summary = %q", summary)
	}

	bare := slog.NewRecord(epoch, slog.LevelWarn, "plain", 0)
	if summary := handler.summarize(bare); summary != "plain" {
		t.Errorf("summary = %q", summary)
	}
}

func TestLogHandlerLevelAndProgram(t *testing.T) {
	handler := NewLogHandler(slog.LevelWarn)
	ctx := context.Background()
	if handler.Enabled(ctx, slog.LevelInfo) || !handler.Enabled(ctx, slog.LevelError) {
		t.Error("Enabled does not follow the configured level")
	}
	// No program yet: records are dropped without error.
	if err := handler.Handle(ctx, slog.NewRecord(time.Now(), slog.LevelError, "dropped", 0)); err != nil {
		t.Errorf("Handle = %v", err)
	}
}

func TestFanoutHandler(t *testing.T) {
	var debug, warn bytes.Buffer
	fanout := FanoutHandler{
		slog.NewJSONHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&warn, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}
	logger := slog.New(fanout).With("room", "demo")

	logger.Debug("quiet")
	logger.Warn("loud")

	if !strings.Contains(debug.String(), `"msg":"quiet"`) || !strings.Contains(debug.String(), `"msg":"loud"`) {
		t.Errorf("debug handler got %s", debug.String())
	}
	if strings.Contains(warn.String(), "quiet") || !strings.Contains(warn.String(), `"room":"demo"`) {
		t.Errorf("warn handler got %s", warn.String())
	}
	if fanout.Enabled(context.Background(), slog.LevelDebug-4) {
		t.Error("fanout enabled below every sub-handler")
	}
}

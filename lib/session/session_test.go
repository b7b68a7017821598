// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/roomchat/lib/chat"
	"github.com/bureau-foundation/roomchat/lib/chatlog"
	"github.com/bureau-foundation/roomchat/lib/clock"
	"github.com/bureau-foundation/roomchat/lib/flash"
	"github.com/bureau-foundation/roomchat/lib/loop"
	"github.com/bureau-foundation/roomchat/lib/slash"
	"github.com/bureau-foundation/roomchat/lib/typing"
	"github.com/bureau-foundation/roomchat/lib/upload"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type sent struct {
	kind    chat.Kind
	payload any
}

type fakeTransport struct {
	handler func(chat.Envelope)
	sent    []sent
	err     error
}

func (f *fakeTransport) Subscribe(handler func(chat.Envelope)) { f.handler = handler }

func (f *fakeTransport) Send(kind chat.Kind, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sent{kind: kind, payload: payload})
	return nil
}

func (f *fakeTransport) kinds() []chat.Kind {
	kinds := make([]chat.Kind, len(f.sent))
	for i, s := range f.sent {
		kinds[i] = s.kind
	}
	return kinds
}

type fakeNotifier struct {
	needsPermission bool
	err             error
	titles          []string
	bodies          []string
}

func (f *fakeNotifier) NeedsPermission() bool { return f.needsPermission }

func (f *fakeNotifier) Notify(title, body string) error {
	if f.err != nil {
		return f.err
	}
	f.titles = append(f.titles, title)
	f.bodies = append(f.bodies, body)
	return nil
}

type fakeUploader struct {
	progress []int
	response *chat.UploadResponse
	err      error
	batches  [][]string
}

func (f *fakeUploader) Upload(ctx context.Context, files []upload.File, progress func(int)) (*chat.UploadResponse, error) {
	f.batches = append(f.batches, upload.Names(files))
	for _, percent := range f.progress {
		progress(percent)
	}
	return f.response, f.err
}

type recordingDisplay struct {
	titles []string
	beeps  int
}

func (d *recordingDisplay) SetTitle(title string) { d.titles = append(d.titles, title) }
func (d *recordingDisplay) Beep() { d.beeps++ }

type harness struct {
	t         *testing.T
	clock     *clock.FakeClock
	transport *fakeTransport
	display   *recordingDisplay
	session   *Session
	snapshots []Snapshot
}

func newHarness(t *testing.T, configure func(*Config)) *harness {
	t.Helper()
	h := &harness{
		t:         t,
		clock:     clock.Fake(epoch),
		transport: &fakeTransport{},
		display:   &recordingDisplay{},
	}
	config := Config{
		Transport: h.transport,
		Display:   h.display,
		Clock:     h.clock,
		Poster:    loop.Inline{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Title:     "room",
		Sound:     true,
		OnChange:  func(s Snapshot) { h.snapshots = append(h.snapshots, s) },
	}
	if configure != nil {
		configure(&config)
	}
	session, err := New(config)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	session.spawn = func(task func()) { task() }
	session.Start()
	t.Cleanup(session.Close)
	h.session = session
	return h
}

func (h *harness) deliver(kind chat.Kind, payload any) {
	h.t.Helper()
	envelope, err := chat.NewEnvelope(kind, h.clock.Now(), payload)
	if err != nil {
		h.t.Fatalf("NewEnvelope(%s): %v", kind, err)
	}
	h.transport.handler(envelope)
}

func (h *harness) join(self chat.PeerPayload, others ...chat.PeerPayload) {
	h.t.Helper()
	h.deliver(chat.KindConnect, nil)
	h.deliver(chat.KindPeerInfo, self)
	h.deliver(chat.KindPeerList, append([]chat.PeerPayload{self}, others...))
	h.transport.sent = nil
}

func (h *harness) messages() []chatlog.Message {
	return h.session.Snapshot().Messages
}

func (h *harness) flash() string {
	snapshot := h.session.Snapshot()
	if snapshot.Flash == nil {
		return ""
	}
	return snapshot.Flash.Message
}

var (
	alice = chat.PeerPayload{ID: "a1", Handle: "alice"}
	bob   = chat.PeerPayload{ID: "b1", Handle: "bob"}
	carol = chat.PeerPayload{ID: "c1", Handle: "carol"}
)

func chatMessage(peer chat.PeerPayload, text string) chat.ChatPayload {
	return chat.ChatPayload{PeerID: peer.ID, PeerHandle: peer.Handle, Message: text}
}

func TestNewRequiresTransport(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("New without transport succeeded")
	}
}

func TestConnectRequestsPeerList(t *testing.T) {
	h := newHarness(t, nil)
	if state := h.session.State(); state != StateConnecting {
		t.Fatalf("initial state = %v", state)
	}

	h.deliver(chat.KindConnect, nil)
	if state := h.session.State(); state != StateOpen {
		t.Errorf("state = %v, want open", state)
	}
	kinds := h.transport.kinds()
	if len(kinds) != 1 || kinds[0] != chat.KindPeerList {
		t.Errorf("sent %v, want one peer.list request", kinds)
	}
}

func TestPresence(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice, bob)

	snapshot := h.session.Snapshot()
	if !snapshot.HasSelf || snapshot.Self.ID != alice.ID {
		t.Fatalf("self = %+v, %v", snapshot.Self, snapshot.HasSelf)
	}
	if len(snapshot.Peers) != 2 || snapshot.Peers[0].Handle != "alice" || snapshot.Peers[1].Handle != "bob" {
		t.Fatalf("peers = %+v", snapshot.Peers)
	}

	h.deliver(chat.KindPeerJoin, carol)
	h.deliver(chat.KindPeerJoin, alice)
	h.deliver(chat.KindPeerLeave, bob)

	snapshot = h.session.Snapshot()
	if len(snapshot.Peers) != 2 || snapshot.Peers[1].ID != carol.ID {
		t.Errorf("peers after join/leave = %+v", snapshot.Peers)
	}
	messages := snapshot.Messages
	if len(messages) != 2 {
		t.Fatalf("log = %+v, want join and leave notices only", messages)
	}
	if messages[0].Kind != chatlog.KindJoin || messages[0].Peer.ID != carol.ID {
		t.Errorf("first notice = %+v", messages[0])
	}
	if messages[1].Kind != chatlog.KindLeave || messages[1].Peer.ID != bob.ID {
		t.Errorf("second notice = %+v", messages[1])
	}
}

func TestMessageClearsTypingAndSignals(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice, bob)
	h.session.Blur()

	h.deliver(chat.KindTyping, bob)
	if typing := h.session.Snapshot().Typing; len(typing) != 1 || typing[0].Peer.ID != bob.ID {
		t.Fatalf("typing = %+v", typing)
	}

	h.deliver(chat.KindMessage, chatMessage(bob, "see https://example.com/x"))
	snapshot := h.session.Snapshot()
	if len(snapshot.Typing) != 0 {
		t.Errorf("typing after message = %+v", snapshot.Typing)
	}
	message := snapshot.Messages[len(snapshot.Messages)-1]
	if message.Kind != chatlog.KindChat || message.Peer.Handle != "bob" {
		t.Fatalf("message = %+v", message)
	}
	if !strings.Contains(message.Body.HTML, `href="https://example.com/x"`) {
		t.Errorf("body = %q, want linkified URL", message.Body.HTML)
	}
	if h.display.beeps != 1 {
		t.Errorf("beeps = %d, want 1", h.display.beeps)
	}
}

func TestMotdIsEnriched(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice)
	h.deliver(chat.KindMotd, chatMessage(bob, "**welcome**"))

	messages := h.messages()
	if len(messages) != 1 || messages[0].Kind != chatlog.KindMotd {
		t.Fatalf("log = %+v", messages)
	}
	if !strings.Contains(messages[0].Body.HTML, "<strong>welcome</strong>") {
		t.Errorf("motd body = %q", messages[0].Body.HTML)
	}
}

func TestTypingExpires(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice, bob)

	h.deliver(chat.KindTyping, bob)
	h.deliver(chat.KindTyping, alice)
	if typing := h.session.Snapshot().Typing; len(typing) != 1 {
		t.Fatalf("typing = %+v, want bob only", typing)
	}

	h.clock.Advance(2 * typing.DefaultInterval)
	if typing := h.session.Snapshot().Typing; len(typing) != 0 {
		t.Errorf("typing after expiry = %+v", typing)
	}
}

func TestPeerLeaveClearsTyping(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice, bob)
	h.deliver(chat.KindTyping, bob)
	h.deliver(chat.KindPeerLeave, bob)
	if typing := h.session.Snapshot().Typing; len(typing) != 0 {
		t.Errorf("typing = %+v", typing)
	}
}

func TestFaults(t *testing.T) {
	cases := []struct {
		kind     chat.Kind
		message  string
		severity flash.Severity
	}{
		{chat.KindDisconnect, retryingMessage, flash.Notice},
		{chat.KindRateLimited, rateLimitedMessage, flash.Error},
		{chat.KindRoomFull, roomFullMessage, flash.Error},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			h := newHarness(t, nil)
			h.join(alice, bob)
			h.deliver(tc.kind, nil)

			snapshot := h.session.Snapshot()
			if snapshot.State != StateClosed {
				t.Errorf("state = %v, want closed", snapshot.State)
			}
			if snapshot.Flash == nil || snapshot.Flash.Message != tc.message || snapshot.Flash.Severity != tc.severity {
				t.Errorf("flash = %+v", snapshot.Flash)
			}
			if len(snapshot.Peers) != 2 {
				t.Errorf("peers = %+v, want roster kept", snapshot.Peers)
			}

			h.deliver(chat.KindConnect, nil)
			if state := h.session.State(); state != StateOpen {
				t.Errorf("state after reconnect = %v", state)
			}
		})
	}
}

func TestReconnectingFlashUsesTimeout(t *testing.T) {
	h := newHarness(t, nil)
	h.deliver(chat.KindReconnecting, chat.ReconnectingPayload{TimeoutMillis: 5000})

	snapshot := h.session.Snapshot()
	if snapshot.Flash == nil || snapshot.Flash.Message != retryingMessage {
		t.Fatalf("flash = %+v", snapshot.Flash)
	}
	if !snapshot.Flash.ExpiresAt.Equal(epoch.Add(5 * time.Second)) {
		t.Errorf("ExpiresAt = %v", snapshot.Flash.ExpiresAt)
	}
	h.clock.Advance(5 * time.Second)
	if message := h.flash(); message != "" {
		t.Errorf("flash after timeout = %q", message)
	}
}

func TestDisposeIsTerminal(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice, bob)
	h.deliver(chat.KindMessage, chatMessage(bob, "bye"))
	h.deliver(chat.KindTyping, bob)
	h.deliver(chat.KindRoomDispose, nil)

	snapshot := h.session.Snapshot()
	if snapshot.State != StateDisposed {
		t.Fatalf("state = %v", snapshot.State)
	}
	if len(snapshot.Peers) != 0 || len(snapshot.Typing) != 0 {
		t.Errorf("peers = %+v typing = %+v, want both empty", snapshot.Peers, snapshot.Typing)
	}
	if len(snapshot.Messages) != 0 {
		t.Errorf("log = %+v, want cleared", snapshot.Messages)
	}
	if snapshot.Flash == nil || snapshot.Flash.Message != disposedMessage {
		t.Errorf("flash = %+v", snapshot.Flash)
	}

	h.deliver(chat.KindConnect, nil)
	h.deliver(chat.KindMessage, chatMessage(bob, "late"))
	if state := h.session.State(); state != StateDisposed {
		t.Errorf("state after late connect = %v", state)
	}
	if n := len(h.messages()); n != 0 {
		t.Errorf("log length after dispose = %d", n)
	}

	if err := h.session.Submit("hello"); !errors.Is(err, ErrDisposed) {
		t.Errorf("Submit after dispose: %v", err)
	}
	if err := h.session.DisposeRoom(); !errors.Is(err, ErrDisposed) {
		t.Errorf("DisposeRoom after dispose: %v", err)
	}
	if len(h.transport.sent) != 0 {
		t.Errorf("sent after dispose: %v", h.transport.kinds())
	}
}

func TestMalformedEventDropped(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice)
	before := len(h.snapshots)

	h.transport.handler(chat.Envelope{Type: chat.KindMessage, Timestamp: epoch})
	h.transport.handler(chat.Envelope{Type: "mystery", Timestamp: epoch})

	if len(h.snapshots) != before {
		t.Errorf("published %d snapshots for dropped events", len(h.snapshots)-before)
	}
}

func TestOneSnapshotPerEvent(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice, bob)
	before := len(h.snapshots)

	h.deliver(chat.KindPeerLeave, bob)
	if published := len(h.snapshots) - before; published != 1 {
		t.Errorf("leave published %d snapshots, want 1", published)
	}
	last := h.snapshots[len(h.snapshots)-1]
	if last.Version != h.session.Snapshot().Version {
		t.Errorf("last published version %d, session at %d", last.Version, h.session.Snapshot().Version)
	}
}

func TestMissingTimestampUsesClock(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice)
	h.clock.Advance(time.Minute)

	envelope, err := chat.NewEnvelope(chat.KindPeerJoin, time.Time{}, bob)
	if err != nil {
		t.Fatal(err)
	}
	h.transport.handler(envelope)

	messages := h.messages()
	if len(messages) != 1 || !messages[0].Timestamp.Equal(epoch.Add(time.Minute)) {
		t.Errorf("log = %+v", messages)
	}
}

func TestSubmitMessage(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice, bob)

	if err := h.session.Submit("  hello  "); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := h.session.Submit("   "); err != nil {
		t.Fatalf("Submit blank: %v", err)
	}
	if len(h.transport.sent) != 1 {
		t.Fatalf("sent %v, want one message", h.transport.kinds())
	}
	if got := h.transport.sent[0]; got.kind != chat.KindMessage || got.payload != "hello" {
		t.Errorf("sent %+v", got)
	}
}

func TestSubmitDirected(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice, bob)

	if err := h.session.Submit("/whisper bob meet at noon"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := h.session.Submit("/ping bob"); err != nil {
		t.Fatalf("Submit ping: %v", err)
	}

	want := []sent{
		{chat.KindWhisper, chat.DirectedData{To: "bob", Msg: "meet at noon", From: "alice"}},
		{chat.KindPing, chat.DirectedData{To: "bob", Msg: slash.DefaultPingText, From: "alice"}},
	}
	if len(h.transport.sent) != len(want) {
		t.Fatalf("sent %v", h.transport.kinds())
	}
	for i := range want {
		if h.transport.sent[i] != want[i] {
			t.Errorf("sent[%d] = %+v, want %+v", i, h.transport.sent[i], want[i])
		}
	}
}

func TestSubmitUsageError(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice, bob)

	err := h.session.Submit("/whisper bob")
	var usage *slash.UsageError
	if !errors.As(err, &usage) {
		t.Fatalf("Submit error = %v, want *slash.UsageError", err)
	}
	if message := h.flash(); message != err.Error() {
		t.Errorf("flash = %q, want %q", message, err.Error())
	}
	if len(h.transport.sent) != 0 {
		t.Errorf("sent %v", h.transport.kinds())
	}
}

func TestSubmitHelp(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice)

	if err := h.session.Submit("/help ping"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	messages := h.messages()
	if len(messages) != 1 || messages[0].Kind != chatlog.KindHelp {
		t.Fatalf("log = %+v", messages)
	}
	if !strings.Contains(messages[0].Text, "/ping") {
		t.Errorf("help text = %q", messages[0].Text)
	}
	if len(h.transport.sent) != 0 {
		t.Errorf("help sent %v", h.transport.kinds())
	}
}

func TestSubmitSendFailureFlashes(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice)
	h.transport.err = errors.New("socket closed")

	if err := h.session.Submit("hi"); err == nil {
		t.Fatal("Submit succeeded with failing transport")
	}
	if message := h.flash(); !strings.Contains(message, "socket closed") {
		t.Errorf("flash = %q", message)
	}
}

func TestKeystrokeSignalsOncePerWindow(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice)

	for _, r := range "hello" {
		h.session.Keystroke(typing.Key{Rune: r})
	}
	if kinds := h.transport.kinds(); len(kinds) != 1 || kinds[0] != chat.KindTyping {
		t.Fatalf("sent %v, want one typing signal", kinds)
	}

	h.clock.Advance(typing.DefaultInterval)
	h.session.Keystroke(typing.Key{Rune: 'x'})
	if n := len(h.transport.sent); n != 2 {
		t.Errorf("sent %d signals after window, want 2", n)
	}

	if action := h.session.Keystroke(typing.Key{Enter: true}); action != typing.ActionSubmit {
		t.Errorf("Enter = %v, want submit", action)
	}
}

func TestSubmitResetsTypingWindow(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice)

	h.session.Keystroke(typing.Key{Rune: 'a'})
	if err := h.session.Submit("a"); err != nil {
		t.Fatal(err)
	}
	h.session.Keystroke(typing.Key{Rune: 'b'})

	want := []chat.Kind{chat.KindTyping, chat.KindMessage, chat.KindTyping}
	kinds := h.transport.kinds()
	if len(kinds) != len(want) {
		t.Fatalf("sent %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("sent %v, want %v", kinds, want)
			break
		}
	}
}

func TestKeystrokesBeforeConnectDoNotHoldBackTyping(t *testing.T) {
	h := newHarness(t, nil)

	for _, r := range "early" {
		if action := h.session.Keystroke(typing.Key{Rune: r}); action != typing.ActionNone {
			t.Errorf("Keystroke(%q) while connecting = %v, want none", r, action)
		}
	}
	if action := h.session.Keystroke(typing.Key{Enter: true}); action != typing.ActionSubmit {
		t.Errorf("Enter while connecting = %v, want submit", action)
	}
	if len(h.transport.sent) != 0 {
		t.Fatalf("sent %v while connecting", h.transport.kinds())
	}

	h.join(alice)
	h.session.Keystroke(typing.Key{Rune: 'x'})
	if kinds := h.transport.kinds(); len(kinds) != 1 || kinds[0] != chat.KindTyping {
		t.Errorf("sent %v after connect, want one typing signal", kinds)
	}
}

func TestReconnectReopensTypingWindow(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice)

	h.session.Keystroke(typing.Key{Rune: 'a'})
	h.deliver(chat.KindDisconnect, nil)
	h.deliver(chat.KindConnect, nil)
	h.transport.sent = nil

	h.session.Keystroke(typing.Key{Rune: 'b'})
	if kinds := h.transport.kinds(); len(kinds) != 1 || kinds[0] != chat.KindTyping {
		t.Errorf("sent %v after reconnect, want one typing signal", kinds)
	}
}

func TestDisposeRoomSends(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice)
	if err := h.session.DisposeRoom(); err != nil {
		t.Fatal(err)
	}
	if kinds := h.transport.kinds(); len(kinds) != 1 || kinds[0] != chat.KindRoomDispose {
		t.Errorf("sent %v", kinds)
	}
}

func pingFrom(peer chat.PeerPayload, text string) chat.Relayed[chat.DirectedData] {
	return chat.Relayed[chat.DirectedData]{
		PeerID:     peer.ID,
		PeerHandle: peer.Handle,
		Data:       chat.DirectedData{To: "alice", Msg: text, From: peer.Handle},
	}
}

func TestPingWhileFocusedIsLogged(t *testing.T) {
	notifier := &fakeNotifier{}
	h := newHarness(t, func(c *Config) { c.Notifier = notifier })
	h.join(alice, bob)

	h.deliver(chat.KindPing, pingFrom(bob, "look"))
	messages := h.messages()
	if len(messages) != 1 || messages[0].Kind != chatlog.KindPing || messages[0].Text != "look" {
		t.Fatalf("log = %+v", messages)
	}
	if len(notifier.titles) != 0 {
		t.Errorf("notified while focused: %v", notifier.titles)
	}
}

func TestPingWhileBlurredNotifies(t *testing.T) {
	notifier := &fakeNotifier{}
	h := newHarness(t, func(c *Config) { c.Notifier = notifier })
	h.join(alice, bob)
	h.session.Blur()

	h.deliver(chat.KindPing, pingFrom(bob, "look"))
	if len(notifier.titles) != 1 || notifier.titles[0] != "bob pings you!" || notifier.bodies[0] != "look" {
		t.Fatalf("notifications = %v %v", notifier.titles, notifier.bodies)
	}
	if n := len(h.messages()); n != 0 {
		t.Errorf("log length = %d, want ping delivered natively", n)
	}
}

func TestPingFallsBackToLog(t *testing.T) {
	cases := map[string]*fakeNotifier{
		"permission": {needsPermission: true},
		"failure":    {err: errors.New("no bus")},
	}
	for name, notifier := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, func(c *Config) { c.Notifier = notifier })
			h.join(alice, bob)
			h.session.Blur()

			h.deliver(chat.KindPing, pingFrom(bob, "look"))
			messages := h.messages()
			if len(messages) != 1 || messages[0].Kind != chatlog.KindPing {
				t.Errorf("log = %+v", messages)
			}
		})
	}
}

func TestWhisperLoggedAndEmptyIgnored(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice, bob)

	whisper := pingFrom(bob, "secret")
	h.deliver(chat.KindWhisper, whisper)
	h.deliver(chat.KindWhisper, pingFrom(bob, ""))

	messages := h.messages()
	if len(messages) != 1 || messages[0].Kind != chatlog.KindWhisper || messages[0].Text != "secret" {
		t.Errorf("log = %+v", messages)
	}
}

func TestUploadSuccess(t *testing.T) {
	uploader := &fakeUploader{
		progress: []int{50},
		response: &chat.UploadResponse{Data: map[string]chat.UploadedFile{"a.png": {ID: "x1.png"}}},
	}
	h := newHarness(t, func(c *Config) { c.Uploader = uploader })
	h.join(alice, bob)

	if err := h.session.Upload([]upload.File{upload.FromBytes("a.png", []byte("png"))}); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	want := []chat.Kind{chat.KindUploading, chat.KindUploading, chat.KindUpload}
	kinds := h.transport.kinds()
	if len(kinds) != len(want) {
		t.Fatalf("sent %v, want %v", kinds, want)
	}
	first := h.transport.sent[0].payload.(chat.UploadData)
	if first.Percent == nil || *first.Percent != 0 || len(first.Files) != 1 {
		t.Errorf("first announcement = %+v", first)
	}
	second := h.transport.sent[1].payload.(chat.UploadData)
	if second.Percent == nil || *second.Percent != 50 || second.UID != first.UID {
		t.Errorf("progress announcement = %+v", second)
	}
	final := h.transport.sent[2].payload.(chat.UploadData)
	if final.Result == nil || final.UID != first.UID {
		t.Errorf("final announcement = %+v", final)
	}
	if first.UID != chat.NewUploadID(epoch) {
		t.Errorf("uid = %q", first.UID)
	}

	messages := h.messages()
	if len(messages) != 1 || messages[0].Upload == nil {
		t.Fatalf("log = %+v", messages)
	}
	record := messages[0].Upload
	if !record.Complete || record.Percent != 100 || record.Failed() || messages[0].Peer.ID != alice.ID {
		t.Errorf("record = %+v by %+v", record, messages[0].Peer)
	}

	// The server echoes the announcements back; they update the same
	// record.
	h.deliver(chat.KindUploading, chat.Relayed[chat.UploadData]{
		PeerID: alice.ID, PeerHandle: alice.Handle, Data: second,
	})
	messages = h.messages()
	if len(messages) != 1 || messages[0].Upload.Percent != 100 {
		t.Errorf("after echo: %+v", messages[0].Upload)
	}
}

func TestUploadFailure(t *testing.T) {
	uploader := &fakeUploader{err: &upload.ServerError{StatusCode: 400, Message: "too big"}}
	h := newHarness(t, func(c *Config) { c.Uploader = uploader })
	h.join(alice)

	if err := h.session.Upload([]upload.File{upload.FromBytes("a.bin", nil)}); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if message := h.flash(); message != "too big" {
		t.Errorf("flash = %q", message)
	}
	final := h.transport.sent[len(h.transport.sent)-1]
	if final.kind != chat.KindUpload || final.payload.(chat.UploadData).Err != "too big" {
		t.Errorf("final announcement = %+v", final)
	}
	record := h.messages()[0].Upload
	if !record.Complete || !record.Failed() || record.Err != "too big" {
		t.Errorf("record = %+v", record)
	}
}

func TestUploadPerFileErrorFlashes(t *testing.T) {
	uploader := &fakeUploader{response: &chat.UploadResponse{Data: map[string]chat.UploadedFile{
		"a.png": {ID: "1.png"},
		"b.exe": {Err: "file type not allowed"},
	}}}
	h := newHarness(t, func(c *Config) { c.Uploader = uploader })
	h.join(alice)

	if err := h.session.Upload([]upload.File{upload.FromBytes("a.png", nil), upload.FromBytes("b.exe", nil)}); err != nil {
		t.Fatal(err)
	}
	if message := h.flash(); message != "b.exe: file type not allowed" {
		t.Errorf("flash = %q", message)
	}
	if record := h.messages()[0].Upload; !record.Failed() {
		t.Errorf("record = %+v, want failed", record)
	}
}

func TestUploadRejections(t *testing.T) {
	t.Run("no uploader", func(t *testing.T) {
		h := newHarness(t, nil)
		if err := h.session.Upload([]upload.File{upload.FromBytes("a", nil)}); !errors.Is(err, ErrNoUploader) {
			t.Errorf("Upload = %v", err)
		}
	})
	t.Run("too many files", func(t *testing.T) {
		uploader := &fakeUploader{}
		h := newHarness(t, func(c *Config) {
			c.Uploader = uploader
			c.MaxUploadFiles = 2
		})
		files := []upload.File{upload.FromBytes("a", nil), upload.FromBytes("b", nil), upload.FromBytes("c", nil)}
		if err := h.session.Upload(files); !errors.Is(err, upload.ErrTooManyFiles) {
			t.Errorf("Upload = %v", err)
		}
		if message := h.flash(); message != tooManyFilesMessage {
			t.Errorf("flash = %q", message)
		}
		if len(uploader.batches) != 0 || len(h.transport.sent) != 0 {
			t.Errorf("batches = %v sent = %v", uploader.batches, h.transport.kinds())
		}
	})
}

func TestUploadIDsAreUnique(t *testing.T) {
	uploader := &fakeUploader{response: &chat.UploadResponse{}}
	h := newHarness(t, func(c *Config) { c.Uploader = uploader })
	h.join(alice)

	for range 3 {
		if err := h.session.Upload([]upload.File{upload.FromBytes("a", nil)}); err != nil {
			t.Fatal(err)
		}
	}
	messages := h.messages()
	if len(messages) != 3 {
		t.Fatalf("log = %+v, want three upload records", messages)
	}
	seen := map[chat.UploadID]bool{}
	for _, message := range messages {
		if seen[message.Upload.ID] {
			t.Errorf("duplicate upload id %q", message.Upload.ID)
		}
		seen[message.Upload.ID] = true
	}
}

func TestResetClearsState(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice, bob)
	h.deliver(chat.KindMessage, chatMessage(bob, "hi"))
	h.session.Flash("oops", flash.Error)

	h.session.Reset()
	snapshot := h.session.Snapshot()
	if snapshot.HasSelf || len(snapshot.Peers) != 0 || len(snapshot.Messages) != 0 || snapshot.Flash != nil {
		t.Errorf("snapshot after reset = %+v", snapshot)
	}
	if snapshot.State != StateConnecting {
		t.Errorf("state = %v", snapshot.State)
	}
}

func TestCloseStopsEverything(t *testing.T) {
	h := newHarness(t, nil)
	h.join(alice, bob)
	h.session.Flash("bye", flash.Notice)
	h.session.Close()

	if n := h.clock.PendingCount(); n != 0 {
		t.Errorf("%d timers pending after Close", n)
	}
	before := len(h.snapshots)
	h.deliver(chat.KindMessage, chatMessage(bob, "late"))
	if len(h.messages()) != 0 || len(h.snapshots) != before {
		t.Errorf("event applied after Close")
	}
}

func TestBlinkWhileBlurred(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.BlinkInterval = time.Second })
	h.join(alice, bob)
	h.session.Blur()

	h.deliver(chat.KindMessage, chatMessage(bob, "hi"))
	h.clock.Advance(time.Second)
	if len(h.display.titles) == 0 || !strings.HasPrefix(h.display.titles[len(h.display.titles)-1], "[") {
		t.Errorf("titles = %q, want marked title", h.display.titles)
	}

	h.session.Focus()
	if last := h.display.titles[len(h.display.titles)-1]; last != "room" {
		t.Errorf("title after focus = %q", last)
	}
	if !h.session.Snapshot().Focused {
		t.Error("snapshot not focused")
	}
}

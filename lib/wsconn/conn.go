// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wsconn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bureau-foundation/roomchat/lib/chat"
	"github.com/bureau-foundation/roomchat/lib/clock"
	"github.com/bureau-foundation/roomchat/lib/netutil"
)

const (
	// DefaultPath is the websocket endpoint; %s is the room id.
	DefaultPath = "/ws/%s"

	// DefaultReconnectInitial is the first backoff delay.
	DefaultReconnectInitial = time.Second

	// DefaultReconnectMax caps the backoff delay.
	DefaultReconnectMax = 30 * time.Second

	// maxFrameSize bounds a single inbound frame.
	maxFrameSize = 1 << 20

	// writeTimeout bounds a single outbound write. Socket deadlines are
	// wall-clock, so this uses the real time regardless of Config.Clock.
	writeTimeout = 10 * time.Second
)

// ErrNotConnected is returned by Send while no connection is up.
var ErrNotConnected = errors.New("wsconn: not connected")

// ErrGaveUp is returned by Run once MaxReconnects consecutive attempts
// have failed.
var ErrGaveUp = errors.New("wsconn: reconnect attempts exhausted")

// CloseError reports that the server ended the session for good. Kind
// is the terminal fault named in the close frame.
type CloseError struct {
	Kind chat.Kind
	Code int
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("wsconn: session ended by server: %s (close code %d)", e.Kind, e.Code)
}

// Config configures a Conn.
type Config struct {
	// BaseURL is the room server, e.g. "https://chat.example.com". An
	// http(s) scheme is mapped to ws(s).
	BaseURL string

	// Room is the room id substituted into Path.
	Room string

	// Path is the endpoint path format. Defaults to DefaultPath.
	Path string

	// CookieName and SessionID authenticate the connection. The
	// server names its session cookie in its own configuration; both
	// must be set or neither.
	CookieName string
	SessionID  string

	// UserAgent, when set, is sent with the handshake.
	UserAgent string

	// Dialer defaults to a dialer with a 10s handshake timeout that
	// honours proxy environment variables.
	Dialer *websocket.Dialer

	// Clock drives the backoff waits. Defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// ReconnectInitial and ReconnectMax bound the exponential backoff.
	ReconnectInitial time.Duration
	ReconnectMax     time.Duration

	// MaxReconnects is the number of consecutive failed attempts after
	// which Run gives up. Zero retries forever.
	MaxReconnects int
}

// Conn is a reconnecting room connection. Subscribe before Run; Send
// is safe to call from any goroutine.
type Conn struct {
	endpoint string
	header   http.Header
	dialer   *websocket.Dialer
	clock    clock.Clock
	logger   *slog.Logger

	reconnectInitial time.Duration
	reconnectMax     time.Duration
	maxReconnects    int

	mu      sync.Mutex
	handler func(chat.Envelope)
	conn    *websocket.Conn

	// writeMu serializes frames; gorilla connections allow one
	// concurrent writer.
	writeMu sync.Mutex
}

// New validates config and returns an unconnected Conn.
func New(config Config) (*Conn, error) {
	endpoint, err := Endpoint(config.BaseURL, config.Path, config.Room)
	if err != nil {
		return nil, err
	}
	if (config.CookieName == "") != (config.SessionID == "") {
		return nil, errors.New("wsconn: cookie name and session id must be set together")
	}
	if config.Dialer == nil {
		config.Dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		}
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.ReconnectInitial <= 0 {
		config.ReconnectInitial = DefaultReconnectInitial
	}
	if config.ReconnectMax < config.ReconnectInitial {
		config.ReconnectMax = max(DefaultReconnectMax, config.ReconnectInitial)
	}

	header := http.Header{}
	if config.CookieName != "" {
		cookie := &http.Cookie{Name: config.CookieName, Value: config.SessionID}
		header.Set("Cookie", cookie.String())
	}
	if config.UserAgent != "" {
		header.Set("User-Agent", config.UserAgent)
	}

	return &Conn{
		endpoint:         endpoint,
		header:           header,
		dialer:           config.Dialer,
		clock:            config.Clock,
		logger:           config.Logger.With("endpoint", endpoint),
		reconnectInitial: config.ReconnectInitial,
		reconnectMax:     config.ReconnectMax,
		maxReconnects:    config.MaxReconnects,
	}, nil
}

// Endpoint builds the websocket URL for room on the server at base.
// An empty path selects DefaultPath.
func Endpoint(base, path, room string) (string, error) {
	if room == "" {
		return "", errors.New("wsconn: room is required")
	}
	if path == "" {
		path = DefaultPath
	}
	if strings.Count(path, "%s") != 1 {
		return "", fmt.Errorf("wsconn: path %q must contain exactly one %%s", path)
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("wsconn: parsing base URL: %w", err)
	}
	switch parsed.Scheme {
	case "http", "ws":
		parsed.Scheme = "ws"
	case "https", "wss":
		parsed.Scheme = "wss"
	default:
		return "", fmt.Errorf("wsconn: base URL %q: unsupported scheme %q", base, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("wsconn: base URL %q has no host", base)
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + fmt.Sprintf(path, room)
	parsed.RawPath = ""
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String(), nil
}

// Endpoint returns the websocket URL this Conn dials.
func (c *Conn) Endpoint() string { return c.endpoint }

// Subscribe registers the handler for inbound and synthesized
// envelopes. It is called from the goroutine running Run.
func (c *Conn) Subscribe(handler func(chat.Envelope)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

// Send writes one outbound event. payload may be nil.
func (c *Conn) Send(kind chat.Kind, payload any) error {
	frame, err := json.Marshal(chat.Outbound{Type: kind, Data: payload})
	if err != nil {
		return fmt.Errorf("encoding %s: %w", kind, err)
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("sending %s: %w", kind, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("sending %s: %w", kind, err)
	}
	return nil
}

// Run connects and keeps the connection up until ctx is cancelled, the
// server ends the session, or MaxReconnects is exhausted. It returns
// ctx.Err(), a *CloseError or ErrGaveUp respectively.
func (c *Conn) Run(ctx context.Context) error {
	failures := 0
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var closeError *CloseError
		if errors.As(err, &closeError) {
			c.logger.Info("session ended by server", "kind", closeError.Kind)
			c.emit(closeError.Kind, nil)
			return closeError
		}

		if errors.Is(err, errConnected) {
			failures = 0
		}
		failures++
		c.emit(chat.KindDisconnect, nil)
		if c.maxReconnects > 0 && failures > c.maxReconnects {
			c.logger.Warn("giving up reconnecting", "attempts", failures)
			return ErrGaveUp
		}

		delay := c.backoff(failures)
		c.logger.Info("reconnecting", "delay", delay, "attempt", failures, "error", err)
		c.emit(chat.KindReconnecting, chat.ReconnectingPayload{TimeoutMillis: delay.Milliseconds()})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clock.After(delay):
		}
	}
}

// errConnected wraps the error of a session that got as far as a
// connect event, which resets the backoff.
var errConnected = errors.New("connection dropped")

// session dials once and reads until the connection ends.
func (c *Conn) session(ctx context.Context) error {
	conn, response, err := c.dialer.DialContext(ctx, c.endpoint, c.header)
	if response != nil && response.Body != nil {
		response.Body.Close()
	}
	if err != nil {
		if response != nil {
			return fmt.Errorf("dialing %s: %w (HTTP %d)", c.endpoint, err, response.StatusCode)
		}
		return fmt.Errorf("dialing %s: %w", c.endpoint, err)
	}
	conn.SetReadLimit(maxFrameSize)

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c.setConn(conn)
	defer func() {
		c.setConn(nil)
		conn.Close()
	}()

	c.logger.Info("connected")
	c.emit(chat.KindConnect, nil)

	err = c.read(conn)
	if closeError := terminalClose(err); closeError != nil {
		return closeError
	}
	if netutil.IsExpectedCloseError(err) || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Debug("connection closed", "error", err)
	} else {
		c.logger.Warn("connection lost", "error", err)
	}
	return fmt.Errorf("%w: %w", errConnected, err)
}

func (c *Conn) read(conn *websocket.Conn) error {
	for {
		messageType, frame, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		envelope, err := chat.ParseEnvelope(frame)
		if err != nil {
			c.logger.Warn("dropping unparseable frame", "error", err, "size", len(frame))
			continue
		}
		c.deliver(envelope)
	}
}

// terminalClose maps a close frame naming a terminal fault to a
// *CloseError.
func terminalClose(err error) *CloseError {
	var closeError *websocket.CloseError
	if !errors.As(err, &closeError) {
		return nil
	}
	kind := chat.Kind(closeError.Text)
	if !kind.Terminal() {
		return nil
	}
	return &CloseError{Kind: kind, Code: closeError.Code}
}

func (c *Conn) backoff(attempt int) time.Duration {
	delay := c.reconnectInitial
	for range attempt - 1 {
		delay *= 2
		if delay >= c.reconnectMax {
			return c.reconnectMax
		}
	}
	return delay
}

func (c *Conn) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
}

// emit delivers a synthesized lifecycle envelope.
func (c *Conn) emit(kind chat.Kind, payload any) {
	envelope, err := chat.NewEnvelope(kind, c.clock.Now(), payload)
	if err != nil {
		c.logger.Error("building lifecycle event", "kind", kind, "error", err)
		return
	}
	c.deliver(envelope)
}

func (c *Conn) deliver(envelope chat.Envelope) {
	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()
	if handler != nil {
		handler(envelope)
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/bureau-foundation/roomchat/lib/chat"
	"github.com/bureau-foundation/roomchat/lib/netutil"
)

// MaxFiles is the largest batch the server accepts.
const MaxFiles = 20

// DefaultPath is the upload endpoint path; %s is the room id.
const DefaultPath = "/api/upload/%s"

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the server root, e.g. "https://chat.example.org".
	BaseURL string

	// Room is the room id the files are shared in.
	Room string

	// Path overrides DefaultPath. It must contain one %s for the room.
	Path string

	// CookieName and SessionID authenticate the request the same way
	// the websocket connection is authenticated. Both empty sends no
	// cookie.
	CookieName string
	SessionID  string

	// UserAgent, when set, is sent with every request.
	UserAgent string

	// HTTPClient is used for requests. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client uploads batches to one room.
type Client struct {
	endpoint   string
	cookie     *http.Cookie
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient validates config and returns a Client.
func NewClient(config Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(config.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("upload: parsing base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("upload: base URL %q must use http or https", config.BaseURL)
	}
	if config.Room == "" {
		return nil, fmt.Errorf("upload: room is required")
	}
	path := config.Path
	if path == "" {
		path = DefaultPath
	}
	if strings.Count(path, "%s") != 1 {
		return nil, fmt.Errorf("upload: path %q must contain exactly one %%s", path)
	}

	client := &Client{
		endpoint:   base.String() + fmt.Sprintf(path, url.PathEscape(config.Room)),
		userAgent:  config.UserAgent,
		httpClient: config.HTTPClient,
		logger:     config.Logger,
	}
	if client.httpClient == nil {
		client.httpClient = http.DefaultClient
	}
	if client.logger == nil {
		client.logger = slog.Default()
	}
	if config.CookieName != "" && config.SessionID != "" {
		client.cookie = &http.Cookie{Name: config.CookieName, Value: config.SessionID}
	}
	return client, nil
}

// Endpoint returns the URL batches are posted to.
func (c *Client) Endpoint() string { return c.endpoint }

// Upload posts files as one batch. progress, if non-nil, receives
// increasing percentages as the body is sent; it may be called from
// another goroutine. The returned response can still carry a
// request-level error string or per-file errors.
func (c *Client) Upload(ctx context.Context, files []File, progress func(percent int)) (*chat.UploadResponse, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("upload: no files")
	}
	if len(files) > MaxFiles {
		return nil, ErrTooManyFiles
	}

	body, contentType, err := encodeBatch(files)
	if err != nil {
		return nil, err
	}

	reader := &progressReader{reader: bytes.NewReader(body), total: int64(len(body)), report: progress, last: -1}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("upload: building request: %w", err)
	}
	request.ContentLength = int64(len(body))
	request.Header.Set("Content-Type", contentType)
	if c.cookie != nil {
		request.AddCookie(c.cookie)
	}
	if c.userAgent != "" {
		request.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("uploading batch", "files", len(files), "bytes", len(body), "endpoint", c.endpoint)
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, decodeServerError(response)
	}

	var result chat.UploadResponse
	if err := netutil.DecodeResponse(response.Body, &result); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	reader.finish()
	return &result, nil
}

func encodeBatch(files []File) ([]byte, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for index, file := range files {
		part, err := writer.CreateFormFile(fmt.Sprintf("file%d", index), file.Name)
		if err != nil {
			return nil, "", fmt.Errorf("upload: adding %s: %w", file.Name, err)
		}
		if err := copyFile(part, file); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("upload: closing multipart body: %w", err)
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}

func copyFile(destination io.Writer, file File) error {
	source, err := file.Open()
	if err != nil {
		return fmt.Errorf("upload: opening %s: %w", file.Name, err)
	}
	defer source.Close()
	if _, err := io.Copy(destination, source); err != nil {
		return fmt.Errorf("upload: reading %s: %w", file.Name, err)
	}
	return nil
}

func decodeServerError(response *http.Response) error {
	data, _ := netutil.ReadResponse(response.Body)
	var document struct {
		Error *string `json:"error"`
	}
	message := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &document) == nil && document.Error != nil {
		message = *document.Error
	}
	if message == "" {
		message = http.StatusText(response.StatusCode)
	}
	return &ServerError{StatusCode: response.StatusCode, Message: message}
}

// progressReader reports the share of the body read so far. The
// transport may read the body on its own goroutine.
type progressReader struct {
	reader io.Reader
	total  int64
	report func(percent int)

	mu   sync.Mutex
	read int64
	last int
}

func (r *progressReader) Read(buffer []byte) (int, error) {
	count, err := r.reader.Read(buffer)
	if count > 0 {
		r.mu.Lock()
		r.read += int64(count)
		r.emitLocked()
		r.mu.Unlock()
	}
	return count, err
}

// finish reports 100 if the transport did not read the body to the
// end before the server answered.
func (r *progressReader) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.read = r.total
	r.emitLocked()
}

func (r *progressReader) emitLocked() {
	if r.report == nil || r.total == 0 {
		return
	}
	percent := int(r.read * 100 / r.total)
	if percent > r.last {
		r.last = percent
		r.report(percent)
	}
}

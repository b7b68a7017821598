// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file for Load.
const EnvironmentVariable = "ROOMCHAT_CONFIG"

// maxUploadFiles is the server's per-request file limit.
const maxUploadFiles = 20

// Config is the client configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Chat   ChatConfig   `yaml:"chat"`
	Record RecordConfig `yaml:"record"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig locates the room and authenticates to it.
type ServerConfig struct {
	// URL is the room server's base URL (http or https).
	URL string `yaml:"url"`

	// Room is the room id.
	Room string `yaml:"room"`

	// SessionCookie is the name of the server's session cookie.
	// Default: sess
	SessionCookie string `yaml:"session_cookie"`

	// SessionID is the cookie value obtained by logging in to the
	// room. Empty connects without a cookie.
	SessionID string `yaml:"session_id"`

	// WebsocketPath and UploadPath are endpoint path formats with one
	// %s for the room id.
	// Default: /ws/%s and /api/upload/%s
	WebsocketPath string `yaml:"websocket_path"`
	UploadPath    string `yaml:"upload_path"`

	// FilePath is the download path of an uploaded file; %s is the
	// stored file id.
	// Default: /api/uploaded/%s
	FilePath string `yaml:"file_path"`

	// ReconnectInitial and ReconnectMax bound the reconnect backoff.
	// Default: 1s and 30s
	ReconnectInitial Duration `yaml:"reconnect_initial"`
	ReconnectMax     Duration `yaml:"reconnect_max"`

	// MaxReconnects is the number of consecutive failed attempts
	// before giving up. Zero retries forever.
	MaxReconnects int `yaml:"max_reconnects"`
}

// ChatConfig tunes the chat surface.
type ChatConfig struct {
	// TypingInterval is the typing debounce and expiry window.
	// Default: 3s
	TypingInterval Duration `yaml:"typing_interval"`

	// FlashTimeout is how long a notification stays up.
	// Default: 3s
	FlashTimeout Duration `yaml:"flash_timeout"`

	// TitleBlinkInterval is the title blink period while unfocused
	// activity is pending.
	// Default: 2.5s
	TitleBlinkInterval Duration `yaml:"title_blink_interval"`

	// Sound rings the terminal bell on unseen activity.
	Sound bool `yaml:"sound"`

	// DesktopNotifications delivers pings as desktop notifications
	// while the window is unfocused.
	DesktopNotifications bool `yaml:"desktop_notifications"`

	// MaxUploadFiles bounds an upload batch.
	// Default: 20
	MaxUploadFiles int `yaml:"max_upload_files"`
}

// RecordConfig enables event recording.
type RecordConfig struct {
	// Path is the recording file. Empty disables recording. The
	// extension selects compression (.zst, .lz4).
	Path string `yaml:"path"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	// Default: info
	Level string `yaml:"level"`

	// Output is a file receiving JSON log records. Empty keeps logs
	// inside the client.
	Output string `yaml:"output"`
}

// Duration is a time.Duration written as a Go duration string.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalYAML parses a duration string such as "2.5s".
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var text string
	if err := node.Decode(&text); err != nil {
		return fmt.Errorf("line %d: duration must be a string like \"3s\"", node.Line)
	}
	parsed, err := time.ParseDuration(text)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Default returns the configuration used for every key the file leaves
// out. Server.URL and Server.Room have no default.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			SessionCookie:    "sess",
			WebsocketPath:    "/ws/%s",
			UploadPath:       "/api/upload/%s",
			FilePath:         "/api/uploaded/%s",
			ReconnectInitial: Duration(time.Second),
			ReconnectMax:     Duration(30 * time.Second),
		},
		Chat: ChatConfig{
			TypingInterval:       Duration(3 * time.Second),
			FlashTimeout:         Duration(3 * time.Second),
			TitleBlinkInterval:   Duration(2500 * time.Millisecond),
			Sound:                false,
			DesktopNotifications: true,
			MaxUploadFiles:       maxUploadFiles,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load loads the file named by ROOMCHAT_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your roomchat.yaml, or use --config", EnvironmentVariable)
	}
	return LoadFile(path)
}

// LoadFile loads path over Default and expands variables. It does not
// validate; call Validate once command-line overrides are applied.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	config, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// Parse decodes YAML data over Default and expands variables. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	config := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	config.expandVariables()
	return config, nil
}

func (c *Config) expandVariables() {
	c.Server.SessionID = expandVars(c.Server.SessionID)
	c.Record.Path = expandVars(c.Record.Path)
	c.Log.Output = expandVars(c.Log.Output)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} from the environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.URL == "" {
		errs = append(errs, errors.New("server.url is required"))
	} else if parsed, err := url.Parse(c.Server.URL); err != nil {
		errs = append(errs, fmt.Errorf("server.url: %w", err))
	} else if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("server.url %q must be an http or https URL", c.Server.URL))
	}
	if c.Server.Room == "" {
		errs = append(errs, errors.New("server.room is required"))
	}
	if c.Server.SessionID != "" && c.Server.SessionCookie == "" {
		errs = append(errs, errors.New("server.session_cookie is required when server.session_id is set"))
	}
	paths := []struct{ key, value string }{
		{"server.websocket_path", c.Server.WebsocketPath},
		{"server.upload_path", c.Server.UploadPath},
		{"server.file_path", c.Server.FilePath},
	}
	for _, path := range paths {
		if strings.Count(path.value, "%s") != 1 {
			errs = append(errs, fmt.Errorf("%s %q must contain exactly one %%s", path.key, path.value))
		}
	}
	if c.Server.ReconnectInitial <= 0 {
		errs = append(errs, errors.New("server.reconnect_initial must be positive"))
	}
	if c.Server.ReconnectMax < c.Server.ReconnectInitial {
		errs = append(errs, errors.New("server.reconnect_max must be at least server.reconnect_initial"))
	}
	if c.Server.MaxReconnects < 0 {
		errs = append(errs, errors.New("server.max_reconnects must not be negative"))
	}

	intervals := []struct {
		key   string
		value Duration
	}{
		{"chat.typing_interval", c.Chat.TypingInterval},
		{"chat.flash_timeout", c.Chat.FlashTimeout},
		{"chat.title_blink_interval", c.Chat.TitleBlinkInterval},
	}
	for _, interval := range intervals {
		if interval.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", interval.key))
		}
	}
	if c.Chat.MaxUploadFiles < 1 || c.Chat.MaxUploadFiles > maxUploadFiles {
		errs = append(errs, fmt.Errorf("chat.max_upload_files must be between 1 and %d", maxUploadFiles))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// FileURL returns the download URL of the uploaded file with the
// stored id.
func (s ServerConfig) FileURL(id string) string {
	return strings.TrimRight(s.URL, "/") + fmt.Sprintf(s.FilePath, url.PathEscape(id))
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level %q must be one of debug, info, warn, error", l.Level)
	}
	return level, nil
}

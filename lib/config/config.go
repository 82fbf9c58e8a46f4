// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devtrack-foundation/devtrack/lib/boardcache"
	"github.com/devtrack-foundation/devtrack/lib/rolegate"
	"github.com/devtrack-foundation/devtrack/lib/session"
)

// Environment variables read by Load.
const (
	EnvConfig      = "DEVTRACK_CONFIG"
	EnvServer      = "DEVTRACK_SERVER"
	EnvSessionFile = "DEVTRACK_SESSION_FILE"
)

// DefaultServerURL is where a locally run backend listens.
const DefaultServerURL = "http://localhost:8000"

// Config is the client configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	Board   BoardConfig   `yaml:"board"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`

	// Source is the file the configuration was read from, or "" for
	// built-in defaults.
	Source string `yaml:"-"`
}

// ServerConfig locates the DevTrack backend.
type ServerConfig struct {
	URL string `yaml:"url"`

	// Timeout bounds each request. A request that exceeds it fails
	// as a network error.
	Timeout Duration `yaml:"timeout"`
}

// SessionConfig locates the persisted session.
type SessionConfig struct {
	// File is the session JSON file. Empty means the default path
	// (see session.DefaultPath).
	File string `yaml:"file"`
}

// BoardConfig tunes the board state manager.
type BoardConfig struct {
	// Debounce is the quiet period after search and filter edits
	// before the board reloads.
	Debounce Duration `yaml:"debounce"`

	// StatusPolicy decides who the board offers status changes to:
	// "assignee-only" or "role-or-assignee".
	StatusPolicy string `yaml:"status_policy"`
}

// CacheConfig controls the offline board cache.
type CacheConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	Compression string `yaml:"compression"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	// File receives JSON log records in addition to the terminal.
	// Empty disables it.
	File string `yaml:"file"`

	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`
}

// Duration is a time.Duration written in YAML as a Go duration
// string ("400ms", "30s").
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var text string
	if err := node.Decode(&text); err != nil {
		return fmt.Errorf("line %d: duration must be a string like \"30s\"", node.Line)
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(text))
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() *Config {
	cacheRoot, err := os.UserCacheDir()
	if err != nil {
		cacheRoot = filepath.Join(os.TempDir(), "devtrack-cache")
	}
	return &Config{
		Server: ServerConfig{
			URL:     DefaultServerURL,
			Timeout: Duration(30 * time.Second),
		},
		Board: BoardConfig{
			Debounce:     Duration(400 * time.Millisecond),
			StatusPolicy: string(rolegate.DefaultPolicy),
		},
		Cache: CacheConfig{
			Enabled:     true,
			Path:        filepath.Join(cacheRoot, "devtrack", "board.db"),
			Compression: string(boardcache.CompressionZstd),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration from path, or from $DEVTRACK_CONFIG
// when path is empty, or uses the defaults when both are empty. The
// result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	config := Default()
	if path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
	}
	config.applyEnvironment()
	config.expandVariables()
	config.normalize()
	if err := config.Validate(); err != nil {
		if config.Source != "" {
			return nil, fmt.Errorf("config %s: %w", config.Source, err)
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	return config, nil
}

// loadFile merges a YAML file over the current values. Keys absent
// from the file keep their current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	c.Source = path
	return nil
}

func (c *Config) applyEnvironment() {
	if server := os.Getenv(EnvServer); server != "" {
		c.Server.URL = server
	}
	if sessionFile := os.Getenv(EnvSessionFile); sessionFile != "" {
		c.Session.File = sessionFile
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	c.Session.File = expandVars(c.Session.File)
	c.Cache.Path = expandVars(c.Cache.Path)
	c.Log.File = expandVars(c.Log.File)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

func (c *Config) normalize() {
	c.Server.URL = strings.TrimRight(strings.TrimSpace(c.Server.URL), "/")
	c.Board.StatusPolicy = strings.ToLower(strings.TrimSpace(c.Board.StatusPolicy))
	c.Cache.Compression = strings.ToLower(strings.TrimSpace(c.Cache.Compression))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Board.StatusPolicy == "" {
		c.Board.StatusPolicy = string(rolegate.DefaultPolicy)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports every invalid value, joined.
func (c *Config) Validate() error {
	var errs []error

	if parsed, err := url.Parse(c.Server.URL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("server.url must be an http or https URL, got %q", c.Server.URL))
	}
	if c.Server.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout.Std()))
	}
	if c.Board.Debounce <= 0 {
		errs = append(errs, fmt.Errorf("board.debounce must be positive, got %s", c.Board.Debounce.Std()))
	}
	if _, err := rolegate.ParsePolicy(c.Board.StatusPolicy); err != nil {
		errs = append(errs, fmt.Errorf("board.status_policy: %w", err))
	}
	if _, err := boardcache.ParseCompression(c.Cache.Compression); err != nil {
		errs = append(errs, fmt.Errorf("cache.compression: %w", err))
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		errs = append(errs, errors.New("cache.path is required when the cache is enabled"))
	}
	if _, ok := logLevels[c.Log.Level]; !ok {
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn, or error, got %q", c.Log.Level))
	}

	return errors.Join(errs...)
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	return logLevels[c.Log.Level]
}

// StatusPolicy returns the configured status-change policy.
func (c *Config) StatusPolicy() rolegate.Policy {
	policy, err := rolegate.ParsePolicy(c.Board.StatusPolicy)
	if err != nil {
		return rolegate.DefaultPolicy
	}
	return policy
}

// CacheCompression returns the configured cache compression.
func (c *Config) CacheCompression() boardcache.Compression {
	compression, err := boardcache.ParseCompression(c.Cache.Compression)
	if err != nil {
		return boardcache.CompressionZstd
	}
	return compression
}

// SessionPath returns the session file to use.
func (c *Config) SessionPath() string {
	if c.Session.File != "" {
		return c.Session.File
	}
	return session.DefaultPath()
}

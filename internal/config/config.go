// ABOUTME: Configuration loading and parsing for quickreply
// ABOUTME: Supports TOML and YAML files with environment variable expansion and duration parsing

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable that overrides the config path.
const EnvConfigPath = "QUICKREPLY_CONFIG"

// Config represents the complete quickreply configuration
type Config struct {
	Telegram TelegramConfig `toml:"telegram" yaml:"telegram"`
	Poller   PollerConfig   `toml:"poller" yaml:"poller"`
	Sender   SenderConfig   `toml:"sender" yaml:"sender"`
	Notify   NotifyConfig   `toml:"notify" yaml:"notify"`
	Console  ConsoleConfig  `toml:"console" yaml:"console"`
	Logging  LoggingConfig  `toml:"logging" yaml:"logging"`
}

// TelegramConfig holds the bot connection settings
type TelegramConfig struct {
	Token       string `toml:"token" yaml:"token"`
	APIEndpoint string `toml:"api_endpoint,omitempty" yaml:"api_endpoint,omitempty"` // format string: token, method

	RequestTimeout    time.Duration `toml:"-" yaml:"-"`
	RequestTimeoutRaw string        `toml:"request_timeout,omitempty" yaml:"request_timeout,omitempty"`
}

// PollerConfig holds the retrieval loop timing
type PollerConfig struct {
	WaitTimeout time.Duration `toml:"-" yaml:"-"`
	Interval    time.Duration `toml:"-" yaml:"-"`
	ErrorWindow time.Duration `toml:"-" yaml:"-"`

	// Raw string values for unmarshaling
	WaitTimeoutRaw string `toml:"wait_timeout,omitempty" yaml:"wait_timeout,omitempty"`
	IntervalRaw    string `toml:"interval,omitempty" yaml:"interval,omitempty"`
	ErrorWindowRaw string `toml:"error_window,omitempty" yaml:"error_window,omitempty"`
}

// SenderConfig holds outbound message settings
type SenderConfig struct {
	// Signature overrides the default wire prefix. Empty means the default.
	Signature        string `toml:"signature,omitempty" yaml:"signature,omitempty"`
	DisableSignature bool   `toml:"disable_signature" yaml:"disable_signature"`

	Timeout    time.Duration `toml:"-" yaml:"-"`
	TimeoutRaw string        `toml:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// NotifyConfig holds the new-message notification settings
type NotifyConfig struct {
	Bell    bool     `toml:"bell" yaml:"bell"`
	Command []string `toml:"command,omitempty" yaml:"command,omitempty"` // e.g. ["paplay", "notification.wav"]
}

// ConsoleConfig holds terminal console settings
type ConsoleConfig struct {
	LocalAuthor string `toml:"local_author,omitempty" yaml:"local_author,omitempty"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Default returns the configuration written by `quickreply init`.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{RequestTimeoutRaw: "10s"},
		Poller: PollerConfig{
			WaitTimeoutRaw: "1s",
			IntervalRaw:    "1s",
			ErrorWindowRaw: "1m",
		},
		Sender:  SenderConfig{TimeoutRaw: "30s"},
		Notify:  NotifyConfig{Bell: true},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// DefaultPath returns the config path: $QUICKREPLY_CONFIG if set, otherwise
// config.toml under the XDG config directory.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "quickreply", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "quickreply", "config.toml")
	}
	return filepath.Join(home, ".config", "quickreply", "config.toml")
}

// Load reads a configuration file from the given path and returns a parsed Config.
// The format follows the extension: .yaml and .yml are YAML, anything else TOML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data, formatOf(path))
}

// Parse decodes raw config content in the given format ("toml" or "yaml").
func Parse(data []byte, format string) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	switch format {
	case "yaml":
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case "toml":
		md, err := toml.Decode(expanded, &cfg)
		if err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parsing config file: unknown key %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Save writes cfg as TOML, creating parent directories. The file is private
// to the user since it holds the bot token.
func Save(path string, cfg *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "toml"
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if ep := c.Telegram.APIEndpoint; ep != "" && strings.Count(ep, "%s") != 2 {
		return fmt.Errorf("telegram.api_endpoint must contain two %%s verbs (token, method)")
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json")
	}

	for name, d := range map[string]time.Duration{
		"telegram.request_timeout": c.Telegram.RequestTimeout,
		"poller.wait_timeout":      c.Poller.WaitTimeout,
		"poller.interval":          c.Poller.Interval,
		"poller.error_window":      c.Poller.ErrorWindow,
		"sender.timeout":           c.Sender.Timeout,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values.
// Unset values stay zero and the components fall back to their own defaults.
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"request_timeout", cfg.Telegram.RequestTimeoutRaw, &cfg.Telegram.RequestTimeout},
		{"wait_timeout", cfg.Poller.WaitTimeoutRaw, &cfg.Poller.WaitTimeout},
		{"interval", cfg.Poller.IntervalRaw, &cfg.Poller.Interval},
		{"error_window", cfg.Poller.ErrorWindowRaw, &cfg.Poller.ErrorWindow},
		{"timeout", cfg.Sender.TimeoutRaw, &cfg.Sender.Timeout},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}

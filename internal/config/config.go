// Package config handles configuration for chatui.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// HomeEnv overrides the configuration directory when set
const HomeEnv = "CHATUI_HOME"

// Storage backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// DefaultStorageKey is the name of the persisted record
const DefaultStorageKey = "chat-store"

// RedisConfig configures the redis storage backend
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix,omitempty"`
}

// StorageConfig selects where the session store snapshot lives
type StorageConfig struct {
	Backend string      `json:"backend"` // file | sqlite | redis | memory
	Path    string      `json:"path,omitempty"`
	Key     string      `json:"key"`
	Redis   RedisConfig `json:"redis"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `json:"level"`          // trace|debug|info|warn|error
	Format string `json:"format"`         // console|json
	File   string `json:"file,omitempty"` // empty means stderr (or chatui.log for the TUI)
}

// CompletionConfig tunes the mock completion backend
type CompletionConfig struct {
	MinLatencyMs int     `json:"min_latency_ms"`
	MaxLatencyMs int     `json:"max_latency_ms"`
	FailureRate  float64 `json:"failure_rate"`
}

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`             // "dark", "light", "notty" or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`      // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"` // Preserve original line breaks
	WordWrap         int    `json:"word_wrap"`         // 0 means terminal width
}

// Config represents the user configuration
type Config struct {
	Storage         StorageConfig    `json:"storage"`
	Log             LogConfig        `json:"log"`
	Completion      CompletionConfig `json:"completion"`
	CopyToClipboard bool             `json:"copy_to_clipboard"`
	// MetricsAddr enables the Prometheus endpoint (e.g. "127.0.0.1:9464").
	MetricsAddr string         `json:"metrics_addr,omitempty"`
	TUITheme    string         `json:"tui_theme,omitempty"`
	Markdown    MarkdownConfig `json:"markdown"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Backend: BackendFile,
			Key:     DefaultStorageKey,
			Redis: RedisConfig{
				Addr: "127.0.0.1:6379",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Completion: CompletionConfig{
			MinLatencyMs: 300,
			MaxLatencyMs: 2000,
			FailureRate:  0.05,
		},
		TUITheme: "nexus",
		Markdown: DefaultMarkdownConfig(),
	}
}

// Validate checks the configuration for values no component can work with
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return fmt.Errorf("storage key must not be empty")
	}
	if c.Completion.MinLatencyMs < 0 || c.Completion.MaxLatencyMs < c.Completion.MinLatencyMs {
		return fmt.Errorf("invalid completion latency range [%d, %d]",
			c.Completion.MinLatencyMs, c.Completion.MaxLatencyMs)
	}
	if c.Completion.FailureRate < 0 || c.Completion.FailureRate > 1 {
		return fmt.Errorf("failure rate %.2f out of range [0, 1]", c.Completion.FailureRate)
	}
	return nil
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return filepath.Abs(dir)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".chatui"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory holds every conversation
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// StoragePath returns the path used by file based backends, creating the
// config directory when the configured path is empty.
func StoragePath(cfg StorageConfig) (string, error) {
	if cfg.Path != "" {
		return cfg.Path, nil
	}

	dir, err := EnsureConfigDir()
	if err != nil {
		return "", err
	}

	switch cfg.Backend {
	case BackendSQLite:
		return filepath.Join(dir, "chatui.db"), nil
	default:
		return filepath.Join(dir, "store"), nil
	}
}

// LogPath returns the log file for interactive sessions
func LogPath(cfg LogConfig) (string, error) {
	if cfg.File != "" {
		return cfg.File, nil
	}
	dir, err := EnsureConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "chatui.log"), nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), fmt.Errorf("invalid config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Use 0o600 since the file may carry a redis password
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Set assigns a configuration value addressed by its dotted JSON key,
// e.g. "storage.backend" or "completion.failure_rate".
func (c *Config) Set(key, value string) error {
	switch key {
	case "storage.backend":
		c.Storage.Backend = value
	case "storage.path":
		c.Storage.Path = value
	case "storage.key":
		c.Storage.Key = value
	case "storage.redis.addr":
		c.Storage.Redis.Addr = value
	case "storage.redis.password":
		c.Storage.Redis.Password = value
	case "storage.redis.db":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		c.Storage.Redis.DB = n
	case "storage.redis.prefix":
		c.Storage.Redis.Prefix = value
	case "log.level":
		c.Log.Level = value
	case "log.format":
		c.Log.Format = value
	case "log.file":
		c.Log.File = value
	case "completion.min_latency_ms", "completion.max_latency_ms":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		if key == "completion.min_latency_ms" {
			c.Completion.MinLatencyMs = n
		} else {
			c.Completion.MaxLatencyMs = n
		}
	case "completion.failure_rate":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		c.Completion.FailureRate = f
	case "copy_to_clipboard":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		c.CopyToClipboard = b
	case "metrics_addr":
		c.MetricsAddr = value
	case "tui_theme":
		c.TUITheme = value
	case "markdown.style":
		c.Markdown.Style = value
	case "markdown.enable_emoji", "markdown.preserve_newlines":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		if key == "markdown.enable_emoji" {
			c.Markdown.EnableEmoji = b
		} else {
			c.Markdown.PreserveNewLines = b
		}
	case "markdown.word_wrap":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		c.Markdown.WordWrap = n
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return c.Validate()
}

// Keys returns every key accepted by Set
func Keys() []string {
	return []string{
		"storage.backend", "storage.path", "storage.key",
		"storage.redis.addr", "storage.redis.password", "storage.redis.db", "storage.redis.prefix",
		"log.level", "log.format", "log.file",
		"completion.min_latency_ms", "completion.max_latency_ms", "completion.failure_rate",
		"copy_to_clipboard", "metrics_addr", "tui_theme",
		"markdown.style", "markdown.enable_emoji", "markdown.preserve_newlines", "markdown.word_wrap",
	}
}

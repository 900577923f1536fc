// Package logging builds the zerolog loggers used across chatui.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/diogo/chatui/internal/config"
)

// New creates a logger writing to w, configured from cfg.
// Supports "trace" | "debug" | "info" | "warn" | "error" levels
// and "json" | "console" formats. An unknown level falls back to info.
func New(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if strings.ToLower(cfg.Format) == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: !isTTY(w)}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Open returns a logger for command-line use: the configured file, or
// stderr when none is configured. The returned closer releases the file.
func Open(cfg config.LogConfig) (zerolog.Logger, io.Closer, error) {
	if cfg.File == "" {
		return New(cfg, os.Stderr), nopCloser{}, nil
	}
	return openFile(cfg, cfg.File)
}

// OpenForTUI always logs to a file since the terminal belongs to the UI.
func OpenForTUI(cfg config.LogConfig) (zerolog.Logger, io.Closer, error) {
	path, err := config.LogPath(cfg)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	return openFile(cfg, path)
}

func openFile(cfg config.LogConfig, path string) (zerolog.Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("failed to open log file: %w", err)
	}
	return New(cfg, f), f, nil
}

// Redact shortens s for log output so message content never lands in logs
// verbatim.
func Redact(s string) string {
	r := []rune(s)
	if len(r) <= 8 {
		return "***"
	}
	return string(r[:4]) + "..." + string(r[len(r)-2:])
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}

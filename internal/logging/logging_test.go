package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/chatui/internal/config"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.LogConfig{Level: "debug", Format: "json"}, &buf)

	log.Debug().Str("session_id", "s1").Msg("created")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["session_id"] != "s1" || entry["message"] != "created" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if entry["level"] != "debug" {
		t.Errorf("level = %v, want debug", entry["level"])
	}
}

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.LogConfig{Level: "warn", Format: "json"}, &buf)

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info entry should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn entry missing")
	}
}

func TestNew_UnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.LogConfig{Level: "chatty", Format: "json"}, &buf)

	log.Debug().Msg("debug")
	log.Info().Msg("info")

	if strings.Contains(buf.String(), `"debug"`) {
		t.Error("unknown level should fall back to info")
	}
	if !strings.Contains(buf.String(), "info") {
		t.Error("info entry missing")
	}
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.LogConfig{Level: "info", Format: "console"}, &buf)

	log.Info().Str("backend", "file").Msg("snapshot saved")

	out := buf.String()
	if !strings.Contains(out, "snapshot saved") || !strings.Contains(out, "backend=file") {
		t.Errorf("console output = %q", out)
	}
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatui.log")

	log, closer, err := Open(config.LogConfig{Level: "info", Format: "json", File: path})
	if err != nil {
		t.Fatalf("Open() returned error: %v", err)
	}
	log.Info().Msg("to file")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file content = %q", data)
	}
}

func TestOpenForTUI_DefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.HomeEnv, dir)

	log, closer, err := OpenForTUI(config.LogConfig{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("OpenForTUI() returned error: %v", err)
	}
	log.Info().Msg("tui")
	_ = closer.Close()

	if _, err := os.Stat(filepath.Join(dir, "chatui.log")); err != nil {
		t.Errorf("expected chatui.log in config dir: %v", err)
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"short", "***"},
		{"Hello there, friend", "Hell...nd"},
		{"", "***"},
	}
	for _, tt := range tests {
		if got := Redact(tt.in); got != tt.want {
			t.Errorf("Redact(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

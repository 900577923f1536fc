package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/diogo/chatui/internal/completion"
	"github.com/diogo/chatui/internal/config"
	"github.com/diogo/chatui/internal/models"
	"github.com/diogo/chatui/internal/tui"
)

// harness runs commands against a throwaway config directory with the real
// file backend, so state carries over between invocations.
type harness struct {
	t      *testing.T
	deps   *Dependencies
	out    bytes.Buffer
	errOut bytes.Buffer

	clipboard []string
	tuiRuns   []tui.Model
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv(config.HomeEnv, t.TempDir())

	h := &harness{t: t}
	deps := NewDependencies()
	deps.Stdin = strings.NewReader("")
	deps.Stdout = &h.out
	deps.Stderr = &h.errOut
	deps.NewClient = func(config.Config, zerolog.Logger) completion.Client {
		return echoClient()
	}
	deps.StdinPiped = func() bool { return false }
	deps.StdoutTTY = func() bool { return false }
	deps.Clipboard = func(text string) error {
		h.clipboard = append(h.clipboard, text)
		return nil
	}
	deps.RunTUI = func(m tui.Model) error {
		h.tuiRuns = append(h.tuiRuns, m)
		return nil
	}
	h.deps = deps
	return h
}

func echoClient() completion.Client {
	return completion.ClientFunc(func(ctx context.Context, content string, history []models.Message, modelID string, settings models.Settings) (string, error) {
		return "Echo: " + content, nil
	})
}

// run executes args and returns stdout
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	h.out.Reset()
	h.errOut.Reset()

	cmd := NewRootCmd(h.deps)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return h.out.String(), err
}

// mustRun executes args and fails the test on error
func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("%v: %v\nstderr: %s", args, err, h.errOut.String())
	}
	return out
}

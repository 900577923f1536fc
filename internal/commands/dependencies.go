package commands

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/diogo/chatui/internal/completion"
	"github.com/diogo/chatui/internal/config"
	"github.com/diogo/chatui/internal/persist"
	"github.com/diogo/chatui/internal/store"
	"github.com/diogo/chatui/internal/tui"
)

// StoreCloser flushes pending writes and releases the storage backend
type StoreCloser func(ctx context.Context) error

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// LoadConfig reads the user configuration
	LoadConfig func() (config.Config, error)

	// OpenStore opens the persistent chat store described by cfg
	OpenStore func(ctx context.Context, cfg config.Config, log zerolog.Logger) (*store.Persistent, StoreCloser, error)

	// NewClient builds the completion client
	NewClient func(cfg config.Config, log zerolog.Logger) completion.Client

	// Presets lists the settings presets
	Presets func() ([]config.Preset, error)

	// RunTUI runs the interactive chat
	RunTUI func(m tui.Model) error

	// Clipboard copies text to the system clipboard
	Clipboard func(text string) error

	// StdinPiped reports whether stdin carries a prompt
	StdinPiped func() bool

	// StdoutTTY reports whether stdout is a terminal
	StdoutTTY func() bool
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		LoadConfig: config.LoadConfig,
		OpenStore:  openStore,
		NewClient:  newMockClient,
		Presets:    loadPresets,
		RunTUI:     tui.Run,
		Clipboard:  clipboard.WriteAll,
		StdinPiped: stdinPiped,
		StdoutTTY:  isStdoutTTY,
	}
}

// openStore wires the configured backend behind an async writer and restores
// the stored sessions from it.
func openStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (*store.Persistent, StoreCloser, error) {
	adapter, err := persist.Open(ctx, cfg.Storage, log)
	if err != nil {
		return nil, nil, err
	}

	writer := persist.NewWriter(adapter, persist.WithWriterLogger(log))
	st := store.Open(ctx, writer, store.WithLogger(log))

	closeStore := func(ctx context.Context) error {
		if err := st.Sync(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to queue final snapshot")
		}
		return writer.Close(ctx)
	}
	return st, closeStore, nil
}

func newMockClient(cfg config.Config, log zerolog.Logger) completion.Client {
	return completion.NewMock(
		completion.WithLatency(
			time.Duration(cfg.Completion.MinLatencyMs)*time.Millisecond,
			time.Duration(cfg.Completion.MaxLatencyMs)*time.Millisecond,
		),
		completion.WithFailureRate(cfg.Completion.FailureRate),
		completion.WithLogger(log),
	)
}

func loadPresets() ([]config.Preset, error) {
	cfg, err := config.LoadPresets()
	if err != nil {
		return nil, err
	}
	return cfg.Presets, nil
}

func stdinPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice == 0
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// Package commands provides the chatui command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/diogo/chatui/internal/config"
	"github.com/diogo/chatui/internal/logging"
	"github.com/diogo/chatui/internal/store"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// closeTimeout bounds the final flush of pending writes
const closeTimeout = 10 * time.Second

// app carries the dependencies and persistent flags shared by every command
type app struct {
	deps        *Dependencies
	logLevel    string
	metricsAddr string
}

// env is what a command body needs once config, logger and store are open
type env struct {
	cfg   config.Config
	log   zerolog.Logger
	store *store.Persistent
}

// NewRootCmd creates the command tree
func NewRootCmd(deps *Dependencies) *cobra.Command {
	if deps == nil {
		deps = NewDependencies()
	}
	a := &app{deps: deps}

	var opts queryOptions
	rootCmd := &cobra.Command{
		Use:   "chatui [prompt]",
		Short: "Terminal chat client for multiple AI models",
		Long: `chatui keeps your conversations with several AI models in one place.
Sessions, the current selection and generation settings are stored locally
and survive restarts.

Examples:
  chatui chat                           Start interactive chat
  chatui "What is Go?"                  Send a single message
  chatui -f prompt.md                   Read the message from a file
  cat prompt.md | chatui                Read the message from stdin
  chatui "Hello" -o reply.md            Save the reply to a file
  chatui sessions list                  List stored sessions
  chatui settings set --temperature 0.3 Adjust generation settings`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(cmd.OutOrStdout(), "chatui %s (built %s)\n", Version, BuildTime)
				return nil
			}

			if opts.file != "" {
				data, err := os.ReadFile(opts.file)
				if err != nil {
					return fmt.Errorf("failed to read file: %w", err)
				}
				return a.runQuery(cmd, string(data), opts)
			}

			if len(args) > 0 {
				return a.runQuery(cmd, args[0], opts)
			}

			if a.deps.StdinPiped() {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				return a.runQuery(cmd, string(data), opts)
			}

			return cmd.Help()
		},
	}

	rootCmd.SetIn(deps.Stdin)
	rootCmd.SetOut(deps.Stdout)
	rootCmd.SetErr(deps.Stderr)

	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during chat")
	rootCmd.Flags().StringVarP(&opts.model, "model", "m", "", "Model for the current session (see 'chatui models')")
	rootCmd.Flags().StringVarP(&opts.output, "output", "o", "", "Save reply to file")
	rootCmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read message from file")
	rootCmd.Flags().BoolVarP(&opts.newSession, "new", "n", false, "Send in a new session")
	rootCmd.Flags().BoolVar(&opts.raw, "raw", false, "Print the reply without decoration")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	rootCmd.AddCommand(newChatCmd(a))
	rootCmd.AddCommand(newSessionsCmd(a))
	rootCmd.AddCommand(newSettingsCmd(a))
	rootCmd.AddCommand(newModelsCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd(NewDependencies()).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// config loads the user configuration with flag overrides applied. A broken
// config file is reported and the defaults are used.
func (a *app) config(cmd *cobra.Command) config.Config {
	cfg, err := a.deps.LoadConfig()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (using defaults)\n", err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.metricsAddr != "" {
		cfg.MetricsAddr = a.metricsAddr
	}
	return cfg
}

// logger opens the command-line logger. Without a log file it writes to the
// command's stderr.
func (a *app) logger(cmd *cobra.Command, cfg config.Config) (zerolog.Logger, io.Closer, error) {
	if cfg.Log.File == "" {
		return logging.New(cfg.Log, cmd.ErrOrStderr()), nopCloser{}, nil
	}
	return logging.Open(cfg.Log)
}

// withStore runs fn against the opened store and flushes it afterwards
func (a *app) withStore(cmd *cobra.Command, fn func(e *env) error) error {
	cfg := a.config(cmd)

	log, logCloser, err := a.logger(cmd, cfg)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	return a.runWithStore(cmd, cfg, log, fn)
}

func (a *app) runWithStore(cmd *cobra.Command, cfg config.Config, log zerolog.Logger, fn func(e *env) error) (err error) {
	st, closeStore, err := a.deps.OpenStore(commandContext(cmd), cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if cerr := closeStore(ctx); cerr != nil {
			log.Error().Err(cerr).Msg("failed to flush session store")
			if err == nil {
				err = fmt.Errorf("failed to save sessions: %w", cerr)
			}
		}
	}()

	return fn(&env{cfg: cfg, log: log, store: st})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

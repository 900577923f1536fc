package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/chatui/internal/chat"
	"github.com/diogo/chatui/internal/logging"
	"github.com/diogo/chatui/internal/models"
	"github.com/diogo/chatui/internal/render"
	"github.com/diogo/chatui/internal/store"
	"github.com/diogo/chatui/internal/tui"
)

type chatOptions struct {
	session    string
	model      string
	newSession bool
}

func newChatCmd(a *app) *cobra.Command {
	var opts chatOptions

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

The chat continues the current session unless --session or --new is given.
Type /help inside the chat for commands. Type 'exit', 'quit', or press
Ctrl+C to end the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.session, "session", "s", "", "Open this session (@last, index, id or title)")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Model for the opened session")
	cmd.Flags().BoolVarP(&opts.newSession, "new", "n", false, "Start in a new session")
	return cmd
}

func (a *app) runChat(cmd *cobra.Command, opts chatOptions) error {
	if opts.model != "" {
		m, ok := models.ModelByID(opts.model)
		if !ok {
			return fmt.Errorf("unknown model %q (see 'chatui models')", opts.model)
		}
		opts.model = m.ID
	}

	cfg := a.config(cmd)

	// The terminal belongs to the UI, so logs always go to a file
	log, logCloser, err := logging.OpenForTUI(cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	stopMetrics, err := serveMetrics(cfg.MetricsAddr, log)
	if err != nil {
		return err
	}
	defer stopMetrics()

	return a.runWithStore(cmd, cfg, log, func(e *env) error {
		switch {
		case opts.newSession:
			e.store.CreateSession()
		case opts.session != "":
			id, err := store.NewResolver(e.store).Resolve(opts.session)
			if err != nil {
				return err
			}
			e.store.SetCurrentSession(id)
		}
		if opts.model != "" {
			e.store.SetModelForCurrentSession(opts.model)
		}

		if cfg.TUITheme != "" && !tui.ApplyPalette(cfg.TUITheme) {
			log.Warn().Str("theme", cfg.TUITheme).Msg("unknown palette, using default")
		}

		svc := chat.NewService(e.store, a.deps.NewClient(cfg, log), chat.WithLogger(log))
		m := tui.New(e.store, svc,
			tui.WithRenderOptions(render.OptionsFromConfig(cfg.Markdown, 0)),
			tui.WithPresets(a.deps.Presets),
			tui.WithLogger(log),
		)

		log.Info().Int("sessions", len(e.store.Sessions())).Msg("chat started")
		return a.deps.RunTUI(m)
	})
}

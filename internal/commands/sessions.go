package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/chatui/internal/export"
	"github.com/diogo/chatui/internal/models"
	"github.com/diogo/chatui/internal/persist"
	"github.com/diogo/chatui/internal/store"
)

func newSessionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"history"},
		Short:   "Manage chat sessions",
		Long: `View and manage your stored chat sessions.

` + store.ListAliases(),
	}

	cmd.AddCommand(
		newSessionsListCmd(a),
		newSessionsNewCmd(a),
		newSessionsShowCmd(a),
		newSessionsUseCmd(a),
		newSessionsRenameCmd(a),
		newSessionsDeleteCmd(a),
		newSessionsClearCmd(a),
		newSessionsModelCmd(a),
		newSessionsExportCmd(a),
		newSessionsImportCmd(a),
		newSessionsSearchCmd(a),
	)
	return cmd
}

func newSessionsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all sessions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(e *env) error {
				return printSessions(cmd.OutOrStdout(), e.store.Sessions(), e.store.CurrentSessionID())
			})
		},
	}
}

func printSessions(out io.Writer, sessions []models.Session, currentID string) error {
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tID\tTITLE\tMODEL\tMESSAGES\tUPDATED")
	_, _ = fmt.Fprintln(w, "-\t--\t-----\t-----\t--------\t-------")

	for i, sess := range sessions {
		index := fmt.Sprintf("%d", i+1)
		if sess.ID == currentID {
			index += "*"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			index, shortID(sess.ID), truncate(sess.Title, 40), sess.ModelID,
			len(sess.Messages), models.Time(sess.UpdatedAt).Format("2006-01-02 15:04"))
	}

	return w.Flush()
}

func newSessionsNewCmd(a *app) *cobra.Command {
	var model string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a new session and make it current",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if model != "" {
				m, ok := models.ModelByID(model)
				if !ok {
					return fmt.Errorf("unknown model %q (see 'chatui models')", model)
				}
				model = m.ID
			}
			return a.withStore(cmd, func(e *env) error {
				id := e.store.CreateSession()
				if model != "" {
					e.store.SetModelForCurrentSession(model)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Current session: %s\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model for the new session")
	return cmd
}

func newSessionsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [ref]",
		Short: "Show a session (default: current)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(e *env) error {
				sess, err := lookupSession(e.store, argOrCurrent(args))
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), sess)
				return nil
			})
		},
	}
}

func printSession(out io.Writer, sess models.Session) {
	fmt.Fprintf(out, "ID: %s\n", sess.ID)
	fmt.Fprintf(out, "Title: %s\n", sess.Title)
	fmt.Fprintf(out, "Model: %s\n", sess.ModelID)
	fmt.Fprintf(out, "Created: %s\n", models.Time(sess.CreatedAt).Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Updated: %s\n", models.Time(sess.UpdatedAt).Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Messages: %d\n", len(sess.Messages))
	fmt.Fprintln(out)

	for i, msg := range sess.Messages {
		fmt.Fprintf(out, "[%d] %s (%s):\n", i+1, export.RoleLabel(msg.Role), models.Time(msg.Timestamp).Format("15:04"))
		fmt.Fprintf(out, "  %s\n\n", strings.ReplaceAll(truncate(msg.Content, 500), "\n", "\n  "))
	}
}

func newSessionsUseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "use <ref>",
		Aliases: []string{"switch"},
		Short:   "Make a session current",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(e *env) error {
				sess, err := lookupSession(e.store, args[0])
				if err != nil {
					return err
				}
				e.store.SetCurrentSession(sess.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "Switched to '%s'\n", sess.Title)
				return nil
			})
		},
	}
}

func newSessionsRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <ref> <title>",
		Short: "Rename a session",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args[1:], " "))
			if title == "" {
				return fmt.Errorf("title cannot be empty")
			}
			return a.withStore(cmd, func(e *env) error {
				sess, err := lookupSession(e.store, args[0])
				if err != nil {
					return err
				}
				e.store.RenameSession(sess.ID, title)
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed '%s' to '%s'\n", sess.Title, title)
				return nil
			})
		},
	}
}

func newSessionsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <ref>...",
		Aliases: []string{"rm"},
		Short:   "Delete sessions",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(e *env) error {
				// resolve everything first; indexes shift once deletion starts
				var targets []models.Session
				for _, ref := range args {
					sess, err := lookupSession(e.store, ref)
					if err != nil {
						return err
					}
					targets = append(targets, sess)
				}
				for _, sess := range targets {
					e.store.DeleteSession(sess.ID)
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted session: %s\n", sess.Title)
				}
				return nil
			})
		},
	}
}

func newSessionsClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(e *env) error {
				sessions := e.store.Sessions()
				for _, sess := range sessions {
					e.store.DeleteSession(sess.ID)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d sessions.\n", len(sessions))
				return nil
			})
		},
	}
}

func newSessionsModelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "model [model-id]",
		Short: "Show or set the model of the current session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(e *env) error {
				sess, ok := e.store.CurrentSession()
				if !ok {
					return fmt.Errorf("no current session (see 'chatui sessions use')")
				}
				if len(args) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), sess.ModelID)
					return nil
				}
				model, ok := models.ModelByID(args[0])
				if !ok {
					return fmt.Errorf("unknown model %q (see 'chatui models')", args[0])
				}
				e.store.SetModelForCurrentSession(model.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "Model for '%s' set to %s\n", sess.Title, model.Name)
				return nil
			})
		},
	}
}

func newSessionsExportCmd(a *app) *cobra.Command {
	var (
		format       string
		output       string
		system       bool
		noTimestamps bool
	)
	cmd := &cobra.Command{
		Use:   "export [ref]",
		Short: "Export a session as markdown, JSON or YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			opts := export.Options{Format: f, IncludeSystem: system, IncludeTimestamps: !noTimestamps}

			return a.withStore(cmd, func(e *env) error {
				sess, err := lookupSession(e.store, argOrCurrent(args))
				if err != nil {
					return err
				}
				data, err := export.Session(sess, opts)
				if err != nil {
					return err
				}

				if output == "" {
					_, err := cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("failed to write export: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported '%s' to %s\n", sess.Title, output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatMarkdown), "Export format (markdown, json, yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	cmd.Flags().BoolVar(&system, "system", false, "Include system messages")
	cmd.Flags().BoolVar(&noTimestamps, "no-timestamps", false, "Omit message timestamps")
	return cmd
}

func newSessionsImportCmd(a *app) *cobra.Command {
	var withSettings bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import sessions from a store snapshot",
		Long: `Import sessions from a file holding a stored snapshot, a bare state object
or a browser localStorage dump. Sessions whose id already exists are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read import file: %w", err)
			}
			snap, err := persist.ParseImport(data)
			if err != nil {
				return err
			}

			return a.withStore(cmd, func(e *env) error {
				added := e.store.ImportSessions(snap.Sessions)
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d sessions.\n", added, len(snap.Sessions))

				if withSettings {
					s := snap.Settings
					e.store.UpdateSettings(models.SettingsPatch{
						SystemPrompt: &s.SystemPrompt,
						Temperature:  &s.Temperature,
						MaxTokens:    &s.MaxTokens,
					})
					fmt.Fprintln(cmd.OutOrStdout(), "Settings imported.")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&withSettings, "settings", false, "Also import generation settings")
	return cmd
}

func newSessionsSearchCmd(a *app) *cobra.Command {
	var content bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search sessions by title (and content with --content)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("query cannot be empty")
			}
			return a.withStore(cmd, func(e *env) error {
				results := store.Search(e.store.Sessions(), query, content)
				out := cmd.OutOrStdout()
				if len(results) == 0 {
					fmt.Fprintln(out, "No matching sessions.")
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "ID\tTITLE\tMATCH")
				for _, r := range results {
					match := "title"
					if r.MatchField == "content" {
						match = fmt.Sprintf("message %d: %s", r.MatchIndex+1,
							strings.ReplaceAll(r.MatchSnippet, "\n", " "))
					}
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", shortID(r.Session.ID), truncate(r.Session.Title, 40), match)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().BoolVarP(&content, "content", "c", false, "Also search message content")
	return cmd
}

// lookupSession resolves ref against st and returns the session
func lookupSession(st store.ChatStore, ref string) (models.Session, error) {
	id, err := store.NewResolver(st).Resolve(ref)
	if err != nil {
		return models.Session{}, err
	}
	sess, ok := st.Session(id)
	if !ok {
		return models.Session{}, fmt.Errorf("session not found: %s", ref)
	}
	return sess, nil
}

func argOrCurrent(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "@current"
}

func shortID(id string) string {
	r := []rune(id)
	if len(r) <= 8 {
		return id
	}
	return string(r[:8])
}

// truncate shortens s to n runes and appends "..." when it was cut
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

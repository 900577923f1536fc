package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/diogo/chatui/internal/chat"
	apperrors "github.com/diogo/chatui/internal/errors"
	"github.com/diogo/chatui/internal/models"
	"github.com/diogo/chatui/internal/render"
)

var (
	colorText     = lipgloss.Color("#c0caf5")
	colorTextDim  = lipgloss.Color("#565f89")
	colorTextMute = lipgloss.Color("#3b4261")
	colorSuccess  = lipgloss.Color("#9ece6a")
	colorError    = lipgloss.Color("#f7768e")
	colorPrimary  = lipgloss.Color("#7aa2f7")
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)
)

type queryOptions struct {
	model      string
	output     string
	file       string
	newSession bool
	raw        bool
}

// runQuery sends one message through the chat service and prints the reply.
// The exchange is stored like any other, so it shows up in the session list.
func (a *app) runQuery(cmd *cobra.Command, prompt string, opts queryOptions) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}
	if opts.model != "" {
		m, ok := models.ModelByID(opts.model)
		if !ok {
			return fmt.Errorf("unknown model %q (see 'chatui models')", opts.model)
		}
		opts.model = m.ID
	}

	return a.withStore(cmd, func(e *env) error {
		if opts.newSession {
			e.store.CreateSession()
		}
		if opts.model != "" {
			e.store.SetModelForCurrentSession(opts.model)
		}

		svc := chat.NewService(e.store, a.deps.NewClient(e.cfg, e.log), chat.WithLogger(e.log))
		stderr := cmd.ErrOrStderr()
		decorated := !opts.raw && a.deps.StdoutTTY()

		modelName := models.DefaultModel().Name
		if sess, ok := e.store.CurrentSession(); ok {
			if m, ok := models.ModelByID(sess.ModelID); ok {
				modelName = m.Name
			}
		}

		var spin *spinner
		if decorated {
			spin = newSpinner(stderr, modelName+" is thinking")
			spin.start()
		}

		reply, err := svc.Send(commandContext(cmd), prompt)
		if err != nil {
			if spin != nil {
				spin.stopWithError()
			}
			fmt.Fprintln(stderr, formatErrorMessage(err, "Request failed"))
			return fmt.Errorf("request failed: %w", err)
		}
		if spin != nil {
			spin.stopWithSuccess("Done")
		}

		return a.printReply(cmd, e, modelName, reply.Content, opts, decorated)
	})
}

func (a *app) printReply(cmd *cobra.Command, e *env, modelName, text string, opts queryOptions, decorated bool) error {
	out, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	if e.cfg.CopyToClipboard {
		if err := a.deps.Clipboard(text); err != nil {
			e.log.Warn().Err(err).Msg("clipboard copy failed")
			fmt.Fprintln(stderr, lipgloss.NewStyle().Foreground(colorError).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else if decorated {
			fmt.Fprintln(stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard"))
		}
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if decorated {
			fmt.Fprintln(stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render(
				fmt.Sprintf("✓ Response saved to %s", opts.output)))
		}
		return nil
	}

	if !decorated {
		fmt.Fprintln(out, text)
		return nil
	}

	bubbleWidth := getTerminalWidth() - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	fmt.Fprintln(out, assistantLabelStyle.Render("✦ "+modelName))
	rendered := render.MarkdownOrPlain(text, render.OptionsFromConfig(e.cfg.Markdown, contentWidth))
	fmt.Fprintln(out, assistantBubbleStyle.Width(bubbleWidth).Render(rendered))
	return nil
}

// formatErrorMessage formats an error with a hint for the known failure kinds
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %s", context, apperrors.UserMessage(err))))

	var persistErr *apperrors.PersistError
	switch {
	case errors.Is(err, apperrors.ErrCompletionFailed):
		sb.WriteString(dimStyle.Render("\n  Hint: The model did not answer. Send the message again"))
	case errors.Is(err, apperrors.ErrBusy):
		sb.WriteString(dimStyle.Render("\n  Hint: Another reply is still being generated"))
	case errors.Is(err, apperrors.ErrSessionNotFound):
		sb.WriteString(dimStyle.Render("\n  Hint: Run 'chatui sessions list' to see valid references"))
	case errors.As(err, &persistErr):
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Backend: %s", persistErr.Backend)))
		sb.WriteString(dimStyle.Render("\n  Hint: Check the storage settings with 'chatui config show'"))
	}

	return sb.String()
}

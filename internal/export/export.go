// Package export renders a session as Markdown, JSON or YAML.
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/diogo/chatui/internal/models"
)

// Format is an export file format
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat accepts the format names and the usual file extensions
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown export format %q (use markdown, json or yaml)", s)
}

// Extension returns the file extension for f, without the dot
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "md"
	}
}

// Options configures how a session is exported
type Options struct {
	Format            Format
	IncludeSystem     bool // Include system messages
	IncludeTimestamps bool
}

// DefaultOptions returns sensible defaults for export
func DefaultOptions() Options {
	return Options{
		Format:            FormatMarkdown,
		IncludeSystem:     false,
		IncludeTimestamps: true,
	}
}

// RoleLabel returns the display name of a role
func RoleLabel(r models.Role) string {
	switch r {
	case models.RoleAssistant:
		return "Assistant"
	case models.RoleSystem:
		return "System"
	default:
		return "User"
	}
}

// Session renders sess in opts.Format
func Session(sess models.Session, opts Options) ([]byte, error) {
	switch opts.Format {
	case FormatMarkdown, "":
		return []byte(Markdown(sess, opts)), nil
	case FormatJSON:
		return JSON(sess, opts)
	case FormatYAML:
		return YAML(sess, opts)
	}
	return nil, fmt.Errorf("unknown export format %q", opts.Format)
}

func visible(sess models.Session, opts Options) []models.Message {
	out := make([]models.Message, 0, len(sess.Messages))
	for _, m := range sess.Messages {
		if m.Role == models.RoleSystem && !opts.IncludeSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}

func modelName(id string) string {
	if m, ok := models.ModelByID(id); ok {
		return fmt.Sprintf("%s (%s)", m.Name, m.Provider)
	}
	return id
}

// Markdown exports a session to Markdown format
func Markdown(sess models.Session, opts Options) string {
	msgs := visible(sess, opts)

	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(sess.Title)
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "**Model:** %s\n", modelName(sess.ModelID))
	fmt.Fprintf(&sb, "**Created:** %s\n", models.Time(sess.CreatedAt).Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "**Updated:** %s\n", models.Time(sess.UpdatedAt).Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "**Messages:** %d\n\n---\n\n", len(msgs))

	for i, msg := range msgs {
		sb.WriteString("## ")
		sb.WriteString(RoleLabel(msg.Role))
		if opts.IncludeTimestamps && msg.Timestamp > 0 {
			sb.WriteString(" (")
			sb.WriteString(models.Time(msg.Timestamp).Format("15:04:05"))
			sb.WriteString(")")
		}
		sb.WriteString("\n\n")

		sb.WriteString(msg.Content)
		sb.WriteString("\n")

		if i < len(msgs)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

type exportMessage struct {
	ID        string     `json:"id" yaml:"id"`
	Role      string     `json:"role" yaml:"role"`
	Content   string     `json:"content" yaml:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

type exportSession struct {
	ID        string          `json:"id" yaml:"id"`
	Title     string          `json:"title" yaml:"title"`
	Model     string          `json:"model" yaml:"model"`
	CreatedAt time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" yaml:"updated_at"`
	Messages  []exportMessage `json:"messages" yaml:"messages"`
}

func build(sess models.Session, opts Options) exportSession {
	msgs := visible(sess, opts)
	out := exportSession{
		ID:        sess.ID,
		Title:     sess.Title,
		Model:     sess.ModelID,
		CreatedAt: models.Time(sess.CreatedAt).UTC(),
		UpdatedAt: models.Time(sess.UpdatedAt).UTC(),
		Messages:  make([]exportMessage, len(msgs)),
	}
	for i, m := range msgs {
		out.Messages[i] = exportMessage{ID: m.ID, Role: string(m.Role), Content: m.Content}
		if opts.IncludeTimestamps {
			ts := models.Time(m.Timestamp).UTC()
			out.Messages[i].Timestamp = &ts
		}
	}
	return out
}

// JSON exports a session to indented JSON
func JSON(sess models.Session, opts Options) ([]byte, error) {
	return json.MarshalIndent(build(sess, opts), "", "  ")
}

// YAML exports a session to YAML
func YAML(sess models.Session, opts Options) ([]byte, error) {
	return yaml.Marshal(build(sess, opts))
}

// FormatRelativeTime formats a time as a relative string like "2h ago" or
// "yesterday"
func FormatRelativeTime(t time.Time) string {
	return formatRelative(time.Now(), t)
}

func formatRelative(now, t time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 48*time.Hour:
		return "yesterday"
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	case diff < 30*24*time.Hour:
		return fmt.Sprintf("%dw ago", int(diff.Hours()/24/7))
	default:
		return t.Format("2006-01-02")
	}
}

// Package render provides markdown rendering and color palettes for terminal
// output.
package render

import (
	"os"

	"github.com/diogo/chatui/internal/config"
)

// StyleEnv overrides the configured glamour style when set
const StyleEnv = "GLAMOUR_STYLE"

// Options configures the markdown renderer behavior.
type Options struct {
	// Width defines the maximum output width (default: 80)
	Width int

	// Style is a glamour style name ("dark", "light", "notty", ...) or the
	// path to a JSON style file
	Style string

	// EnableEmoji converts :emoji: to unicode characters
	EnableEmoji bool

	// PreserveNewLines preserves original line breaks
	PreserveNewLines bool
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		Width:            80,
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
	}
}

// WithWidth returns Options with the specified width.
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

// WithStyle returns Options with the specified style.
func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

// OptionsFromConfig builds options from the markdown section of the user
// configuration. A configured word wrap wins over width; GLAMOUR_STYLE wins
// over the configured style.
func OptionsFromConfig(md config.MarkdownConfig, width int) Options {
	opts := DefaultOptions()
	if md.Style != "" {
		opts.Style = md.Style
	}
	opts.EnableEmoji = md.EnableEmoji
	opts.PreserveNewLines = md.PreserveNewLines

	if width > 0 {
		opts.Width = width
	}
	if md.WordWrap > 0 {
		opts.Width = md.WordWrap
	}

	if style := os.Getenv(StyleEnv); style != "" {
		opts.Style = style
	}
	return opts
}

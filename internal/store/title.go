package store

import (
	"strings"

	"github.com/diogo/chatui/internal/models"
)

// TitleMaxRunes is the length of a derived title before truncation, counted
// in Unicode code points.
const TitleMaxRunes = 30

// TitleEllipsis marks a truncated title
const TitleEllipsis = "..."

// Summarize derives a session title from the first user message. Content of
// at most TitleMaxRunes code points is used verbatim; longer content keeps its
// first TitleMaxRunes code points followed by TitleEllipsis. Whitespace is
// kept and counted. Content that is only whitespace yields the default title.
func Summarize(content string) string {
	if strings.TrimSpace(content) == "" {
		return models.DefaultTitle
	}

	runes := []rune(content)
	if len(runes) <= TitleMaxRunes {
		return content
	}
	return string(runes[:TitleMaxRunes]) + TitleEllipsis
}

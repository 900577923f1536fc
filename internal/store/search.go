package store

import (
	"strings"

	"github.com/diogo/chatui/internal/models"
)

// SearchResult is one session matching a search query
type SearchResult struct {
	Session      models.Session
	MatchSnippet string // Snippet where the term was found
	MatchField   string // "title" or "content"
	MatchIndex   int    // Message index if MatchField is "content", -1 for title
}

// Search finds query in session titles and, when searchContent is set, in
// message content. Each session matches at most once; a title match wins.
func Search(sessions []models.Session, query string, searchContent bool) []SearchResult {
	queryLower := strings.ToLower(query)
	var results []SearchResult

	for _, sess := range sessions {
		if strings.Contains(strings.ToLower(sess.Title), queryLower) {
			results = append(results, SearchResult{
				Session:      sess,
				MatchSnippet: sess.Title,
				MatchField:   "title",
				MatchIndex:   -1,
			})
			continue
		}

		if !searchContent {
			continue
		}
		for i, msg := range sess.Messages {
			if strings.Contains(strings.ToLower(msg.Content), queryLower) {
				results = append(results, SearchResult{
					Session:      sess,
					MatchSnippet: extractSnippet(msg.Content, query, 100),
					MatchField:   "content",
					MatchIndex:   i,
				})
				break
			}
		}
	}

	return results
}

// extractSnippet returns up to maxLen runes around the first occurrence of
// query, with "..." marking each cut side.
func extractSnippet(content, query string, maxLen int) string {
	runes := []rune(content)
	idx := strings.Index(strings.ToLower(content), strings.ToLower(query))
	if idx < 0 {
		if len(runes) > maxLen {
			return string(runes[:maxLen]) + "..."
		}
		return content
	}

	// convert the byte offset into a rune offset
	pos := len([]rune(content[:idx]))
	qLen := len([]rune(query))

	half := maxLen / 2
	start := pos - half
	end := pos + qLen + half

	if start < 0 {
		start = 0
		end = maxLen
	}
	if end > len(runes) {
		end = len(runes)
		start = max(end-maxLen, 0)
	}

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet += "..."
	}
	return snippet
}

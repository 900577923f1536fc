package store

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/diogo/chatui/internal/errors"
)

// Resolver resolves user-friendly references to session ids
type Resolver struct {
	store ChatStore
}

// NewResolver creates a new reference resolver
func NewResolver(store ChatStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve converts a user-friendly reference to a session id
//
// Supported references:
//   - "@current" - the current session
//   - "@last"    - most recently created session
//   - "@first"   - oldest session
//   - "1", "2"   - by index (1-based, in display order)
//   - full id or unique id prefix
//   - "substring" - case-insensitive match on title (error if ambiguous)
func (r *Resolver) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)

	if ref == "" {
		return "", apperrors.NewResolveError(ref, "empty reference")
	}

	sessions := r.store.Sessions()
	if len(sessions) == 0 {
		return "", apperrors.NewResolveError(ref, "no sessions")
	}

	switch strings.ToLower(ref) {
	case "@current":
		sess, ok := r.store.CurrentSession()
		if !ok {
			return "", apperrors.NewResolveError(ref, "no current session")
		}
		return sess.ID, nil
	case "@last":
		return sessions[0].ID, nil
	case "@first":
		return sessions[len(sessions)-1].ID, nil
	}

	if index, err := strconv.Atoi(ref); err == nil {
		if index < 1 || index > len(sessions) {
			return "", apperrors.NewResolveError(ref, fmt.Sprintf("index out of range (1-%d)", len(sessions)))
		}
		return sessions[index-1].ID, nil
	}

	for _, sess := range sessions {
		if sess.ID == ref {
			return sess.ID, nil
		}
	}

	var prefixed []string
	for _, sess := range sessions {
		if strings.HasPrefix(sess.ID, ref) {
			prefixed = append(prefixed, sess.ID)
		}
	}
	if len(prefixed) == 1 {
		return prefixed[0], nil
	}

	refLower := strings.ToLower(ref)
	var matches []string
	var titles []string
	for _, sess := range sessions {
		if strings.Contains(strings.ToLower(sess.Title), refLower) {
			matches = append(matches, sess.ID)
			titles = append(titles, fmt.Sprintf("'%s'", sess.Title))
		}
	}

	switch len(matches) {
	case 0:
		if len(prefixed) > 1 {
			return "", apperrors.NewResolveError(ref, fmt.Sprintf("id prefix matches %d sessions", len(prefixed)))
		}
		return "", apperrors.NewResolveError(ref, "")
	case 1:
		return matches[0], nil
	default:
		return "", apperrors.NewResolveError(ref,
			fmt.Sprintf("matches %s. Use the id or be more specific", strings.Join(titles, ", ")))
	}
}

// ListAliases returns information about supported references
func ListAliases() string {
	return `Supported references:
  @current       The current session
  @last          Most recently created session
  @first         Oldest session
  1, 2, 3        By index (1-based, as listed)
  <id>           Full session id or a unique prefix
  "text"         Search by title substring`
}

// Package persist stores the chat snapshot in a single named slot. A Slot is
// a dumb byte store; Adapter owns the envelope format and Writer moves saves
// off the caller's goroutine.
package persist

import (
	"context"

	apperrors "github.com/diogo/chatui/internal/errors"
)

// Slot is a key-value store holding raw snapshot envelopes
type Slot interface {
	// Get returns the value stored under key, or ErrNoSnapshot
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
	// Name identifies the backend in logs and metrics
	Name() string
}

// ErrNoSnapshot is returned by Get when the key holds nothing
var ErrNoSnapshot = apperrors.ErrNoSnapshot

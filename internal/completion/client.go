// Package completion defines the interface to a chat completion backend and a
// simulated implementation of it.
package completion

import (
	"context"

	"github.com/diogo/chatui/internal/models"
)

// Client produces the assistant reply for content. history holds the messages
// of the session before content was added.
type Client interface {
	SendMessage(ctx context.Context, content string, history []models.Message, modelID string, settings models.Settings) (string, error)
}

// ClientFunc adapts a function to Client
type ClientFunc func(ctx context.Context, content string, history []models.Message, modelID string, settings models.Settings) (string, error)

// SendMessage implements Client
func (f ClientFunc) SendMessage(ctx context.Context, content string, history []models.Message, modelID string, settings models.Settings) (string, error) {
	return f(ctx, content, history, modelID, settings)
}

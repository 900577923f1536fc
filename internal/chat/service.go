// Package chat orchestrates one send: the user message goes into the store,
// the completion client is asked for a reply, and the reply or the failure
// comes back to the caller. The store itself never talks to the client.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/diogo/chatui/internal/completion"
	apperrors "github.com/diogo/chatui/internal/errors"
	"github.com/diogo/chatui/internal/metrics"
	"github.com/diogo/chatui/internal/models"
	"github.com/diogo/chatui/internal/store"
)

// Request is an accepted send waiting for its reply
type Request struct {
	Content   string
	SessionID string
	ModelID   string
	// History is the session's messages before Content was added
	History  []models.Message
	Settings models.Settings

	started time.Time
}

// Service sends messages on behalf of a user interface
type Service struct {
	store  store.ChatStore
	client completion.Client
	log    zerolog.Logger
	now    func() time.Time

	// begin makes the processing check-and-set atomic between callers
	begin sync.Mutex
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock replaces the time source used for latency measurement
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service
func NewService(st store.ChatStore, client completion.Client, opts ...Option) *Service {
	s := &Service{
		store:  st,
		client: client,
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send runs a full round trip and returns the assistant message. On failure
// the user message stays in the session and no assistant message is added.
func (s *Service) Send(ctx context.Context, content string) (models.Message, error) {
	req, err := s.Begin(content)
	if err != nil {
		return models.Message{}, err
	}
	reply, err := s.Request(ctx, req)
	return s.Finish(req, reply, err)
}

// Begin records the user message and marks the store as processing. Every
// successful Begin must be followed by Finish.
func (s *Service) Begin(content string) (Request, error) {
	if strings.TrimSpace(content) == "" {
		return Request{}, apperrors.ErrEmptyMessage
	}

	s.begin.Lock()
	defer s.begin.Unlock()

	if s.store.IsProcessing() {
		return Request{}, apperrors.ErrBusy
	}

	var history []models.Message
	if sess, ok := s.store.CurrentSession(); ok {
		history = sess.Messages
	}

	s.store.AddMessage(models.RoleUser, content)
	sess, _ := s.store.CurrentSession()
	s.store.SetIsProcessing(true)

	if history == nil {
		history = []models.Message{}
	}

	s.log.Debug().
		Str("session_id", sess.ID).
		Str("model", sess.ModelID).
		Int("history", len(history)).
		Msg("message accepted")

	return Request{
		Content:   content,
		SessionID: sess.ID,
		ModelID:   sess.ModelID,
		History:   history,
		Settings:  s.store.Settings(),
		started:   s.now(),
	}, nil
}

// Request asks the completion client for the reply to req. It does not touch
// the store and may run on any goroutine.
func (s *Service) Request(ctx context.Context, req Request) (string, error) {
	return s.client.SendMessage(ctx, req.Content, req.History, req.ModelID, req.Settings)
}

// Finish clears the processing flag and, on success, appends reply as an
// assistant message to the current session.
func (s *Service) Finish(req Request, reply string, err error) (models.Message, error) {
	defer s.store.SetIsProcessing(false)

	latency := s.now().Sub(req.started)
	metrics.ObserveCompletion(req.ModelID, latency, err == nil)

	if err != nil {
		s.log.Warn().Err(err).
			Str("session_id", req.SessionID).
			Str("model", req.ModelID).
			Dur("latency", latency).
			Msg("completion failed")
		return models.Message{}, err
	}

	s.store.AddMessage(models.RoleAssistant, reply)
	sess, _ := s.store.CurrentSession()
	msg, _ := sess.LastMessage()

	if sess.ID != req.SessionID {
		s.log.Info().
			Str("requested_in", req.SessionID).
			Str("delivered_to", sess.ID).
			Msg("reply delivered to the session that is current now")
	}
	return msg, nil
}

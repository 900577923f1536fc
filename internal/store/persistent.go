package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/diogo/chatui/internal/models"
)

// Backend is the durable key-value slot the store snapshot is written to.
// Load returns (nil, nil) when nothing has been stored yet.
type Backend interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snap models.Snapshot) error
}

// DefaultSaveTimeout bounds a single synchronous save
const DefaultSaveTimeout = 5 * time.Second

// Persistent decorates a Store so that every mutation hands the full
// snapshot to a Backend. The wrapped Store stays free of storage concerns.
//
// Save failures are logged and otherwise ignored: the in-memory mutation has
// already completed and persistence is best effort.
type Persistent struct {
	*Store

	// saveMu orders mutate+save pairs so snapshots reach the backend in
	// mutation order.
	saveMu  sync.Mutex
	backend Backend
	timeout time.Duration
}

// NewPersistent wraps s. It performs no load; see Open.
func NewPersistent(s *Store, backend Backend) *Persistent {
	return &Persistent{
		Store:   s,
		backend: backend,
		timeout: DefaultSaveTimeout,
	}
}

// Open builds a persistent store from the backend's stored snapshot. A
// missing or unreadable snapshot yields the default state. If no session
// exists afterwards, exactly one is created so the user always has a session
// to land on.
func Open(ctx context.Context, backend Backend, opts ...Option) *Persistent {
	s := New(opts...)

	snap, err := backend.Load(ctx)
	switch {
	case err != nil:
		s.log.Warn().Err(err).Msg("failed to load stored sessions, starting fresh")
	case snap != nil:
		s.Restore(*snap)
		s.log.Debug().Int("sessions", len(snap.Sessions)).Msg("sessions restored")
	}

	p := NewPersistent(s, backend)
	if len(s.Sessions()) == 0 {
		p.CreateSession()
	}
	return p
}

// CreateSession implements ChatStore
func (p *Persistent) CreateSession() string {
	var id string
	p.mutate(func() { id = p.Store.CreateSession() })
	return id
}

// SetCurrentSession implements ChatStore
func (p *Persistent) SetCurrentSession(id string) bool {
	var ok bool
	p.mutate(func() { ok = p.Store.SetCurrentSession(id) })
	return ok
}

// RenameSession implements ChatStore
func (p *Persistent) RenameSession(id, title string) {
	p.mutate(func() { p.Store.RenameSession(id, title) })
}

// DeleteSession implements ChatStore
func (p *Persistent) DeleteSession(id string) {
	p.mutate(func() { p.Store.DeleteSession(id) })
}

// AddMessage implements ChatStore
func (p *Persistent) AddMessage(role models.Role, content string) {
	p.mutate(func() { p.Store.AddMessage(role, content) })
}

// UpdateSettings implements ChatStore
func (p *Persistent) UpdateSettings(patch models.SettingsPatch) {
	p.mutate(func() { p.Store.UpdateSettings(patch) })
}

// SetModelForCurrentSession implements ChatStore
func (p *Persistent) SetModelForCurrentSession(modelID string) {
	p.mutate(func() { p.Store.SetModelForCurrentSession(modelID) })
}

// ImportSessions implements ChatStore
func (p *Persistent) ImportSessions(sessions []models.Session) int {
	var n int
	p.mutate(func() { n = p.Store.ImportSessions(sessions) })
	return n
}

// Restore replaces the durable state with snap and saves it
func (p *Persistent) Restore(snap models.Snapshot) {
	p.mutate(func() { p.Store.Restore(snap) })
}

// SetIsProcessing is not persisted; the flag is transient. It is inherited
// from Store unchanged.

// Sync hands the current snapshot to the backend outside any mutation. The
// commands call it on exit so the stored state matches memory even when an
// earlier save failed.
func (p *Persistent) Sync(ctx context.Context) error {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()
	return p.backend.Save(ctx, p.Store.Snapshot())
}

func (p *Persistent) mutate(fn func()) {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	fn()
	snap := p.Store.Snapshot()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.backend.Save(ctx, snap); err != nil {
		p.logger().Warn().Err(err).Msg("failed to persist sessions")
	}
}

func (p *Persistent) logger() *zerolog.Logger {
	return &p.Store.log
}

// Package store owns the chat sessions, the current-session selection and the
// generation settings. Store is the in-memory authority; Persistent layers a
// save-on-mutation hook on top of it.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/diogo/chatui/internal/metrics"
	"github.com/diogo/chatui/internal/models"
)

// ChatStore is the surface the user interfaces depend on. Both *Store and
// *Persistent implement it.
type ChatStore interface {
	CreateSession() string
	SetCurrentSession(id string) bool
	RenameSession(id, title string)
	DeleteSession(id string)
	AddMessage(role models.Role, content string)
	UpdateSettings(patch models.SettingsPatch)
	SetModelForCurrentSession(modelID string)
	ImportSessions(sessions []models.Session) int
	SetIsProcessing(processing bool)

	IsProcessing() bool
	CurrentSession() (models.Session, bool)
	CurrentSessionID() string
	Session(id string) (models.Session, bool)
	Sessions() []models.Session
	Settings() models.Settings
	Snapshot() models.Snapshot
}

var (
	_ ChatStore = (*Store)(nil)
	_ ChatStore = (*Persistent)(nil)
)

// Store is the authoritative in-memory session state.
//
// Every method runs to completion under the store lock, so readers always
// observe the result of the last completed mutation. Accessors hand out
// copies; callers never hold references into the store.
type Store struct {
	mu sync.RWMutex

	sessions   []models.Session // most recently created first
	currentID  string           // "" means no current session
	settings   models.Settings
	processing bool

	now          func() time.Time
	newSessionID func() string
	newMessageID func() string
	defaultModel string
	log          zerolog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSessionIDs replaces the session id generator
func WithSessionIDs(gen func() string) Option {
	return func(s *Store) { s.newSessionID = gen }
}

// WithMessageIDs replaces the message id generator
func WithMessageIDs(gen func() string) Option {
	return func(s *Store) { s.newMessageID = gen }
}

// WithDefaultModel sets the model id assigned to new sessions
func WithDefaultModel(id string) Option {
	return func(s *Store) { s.defaultModel = id }
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New creates an empty store with default settings. Unlike Open it does not
// create an initial session.
func New(opts ...Option) *Store {
	s := &Store{
		sessions:     []models.Session{},
		settings:     models.DefaultSettings(),
		now:          time.Now,
		newSessionID: func() string { return uuid.NewString() },
		newMessageID: func() string { return ulid.Make().String() },
		defaultModel: models.DefaultModel().ID,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession returns the id of the current session when it exists and has
// no messages yet. Otherwise it prepends a new session, makes it current and
// returns its id.
func (s *Store) CreateSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createSessionLocked()
}

func (s *Store) createSessionLocked() string {
	if i := s.indexLocked(s.currentID); i >= 0 && len(s.sessions[i].Messages) == 0 {
		return s.currentID
	}

	ts := models.Millis(s.now())
	sess := models.Session{
		ID:        s.newSessionID(),
		Title:     models.DefaultTitle,
		Messages:  []models.Message{},
		ModelID:   s.defaultModel,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	s.sessions = append([]models.Session{sess}, s.sessions...)
	s.currentID = sess.ID

	metrics.IncMutation("create_session")
	s.log.Debug().Str("session_id", sess.ID).Msg("session created")
	return sess.ID
}

// SetCurrentSession selects id without checking that it exists. A dangling id
// behaves as "no current session" for every lookup. The result reports
// whether id resolved to a session.
func (s *Store) SetCurrentSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentID = id
	metrics.IncMutation("set_current_session")
	return s.indexLocked(id) >= 0
}

// RenameSession sets the title of session id. Unknown ids are ignored.
func (s *Store) RenameSession(id, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return
	}
	s.sessions[i].Title = title
	s.sessions[i].UpdatedAt = s.touchLocked(s.sessions[i])
	metrics.IncMutation("rename_session")
}

// DeleteSession removes session id. When it was current, the first remaining
// session becomes current, or none if no session is left.
func (s *Store) DeleteSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return
	}

	s.sessions = append(s.sessions[:i:i], s.sessions[i+1:]...)
	if s.currentID == id {
		s.currentID = ""
		if len(s.sessions) > 0 {
			s.currentID = s.sessions[0].ID
		}
	}

	metrics.IncMutation("delete_session")
	s.log.Debug().Str("session_id", id).Int("remaining", len(s.sessions)).Msg("session deleted")
}

// AddMessage appends a message to the current session, creating a session
// first when none is current. The first message of a session titles it when
// it was written by the user.
func (s *Store) AddMessage(role models.Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(s.currentID)
	if i < 0 {
		s.createSessionLocked()
		i = s.indexLocked(s.currentID)
	}

	sess := &s.sessions[i]
	msg := models.Message{
		ID:        s.newMessageID(),
		Role:      role,
		Content:   content,
		Timestamp: models.Millis(s.now()),
	}

	first := len(sess.Messages) == 0
	// Copy on append so snapshots handed out earlier never observe the write.
	msgs := make([]models.Message, len(sess.Messages), len(sess.Messages)+1)
	copy(msgs, sess.Messages)
	sess.Messages = append(msgs, msg)
	sess.UpdatedAt = max(sess.UpdatedAt, msg.Timestamp)

	if first && role == models.RoleUser {
		sess.Title = Summarize(content)
	}

	metrics.IncMutation("add_message")
}

// UpdateSettings merges the given fields into the settings. Temperature and
// MaxTokens are clamped to their valid ranges rather than rejected.
func (s *Store) UpdateSettings(patch models.SettingsPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = s.settings.Apply(patch)
	metrics.IncMutation("update_settings")
}

// SetModelForCurrentSession changes the model of the current session. It does
// nothing when there is no current session.
func (s *Store) SetModelForCurrentSession(modelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(s.currentID)
	if i < 0 {
		return
	}
	s.sessions[i].ModelID = modelID
	s.sessions[i].UpdatedAt = s.touchLocked(s.sessions[i])
	metrics.IncMutation("set_model")
}

// ImportSessions appends sessions whose ids are not present yet, keeping
// their order, and returns how many were added. The current session is not
// changed.
func (s *Store) ImportSessions(sessions []models.Session) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, sess := range sessions {
		if sess.ID == "" || s.indexLocked(sess.ID) >= 0 {
			continue
		}
		s.sessions = append(s.sessions, sess.Clone())
		added++
	}
	if added > 0 {
		metrics.IncMutation("import_sessions")
	}
	return added
}

// SetIsProcessing sets the transient processing flag
func (s *Store) SetIsProcessing(processing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = processing
}

// IsProcessing reports whether a completion is in flight
func (s *Store) IsProcessing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processing
}

// CurrentSession resolves the current session id on every call. The session
// is never cached, so the result is always consistent with the last mutation.
func (s *Store) CurrentSession() (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(s.currentID)
	if i < 0 {
		return models.Session{}, false
	}
	return s.sessions[i].Clone(), true
}

// CurrentSessionID returns the selected id, which may be dangling
func (s *Store) CurrentSessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentID
}

// Session returns a copy of session id
func (s *Store) Session(id string) (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return models.Session{}, false
	}
	return s.sessions[i].Clone(), true
}

// Sessions returns copies of all sessions, most recently created first
func (s *Store) Sessions() []models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSessions(s.sessions)
}

// Settings returns the generation settings
func (s *Store) Settings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Snapshot returns the durable part of the state
func (s *Store) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := models.Snapshot{
		Sessions: cloneSessions(s.sessions),
		Settings: s.settings,
	}
	if s.currentID != "" {
		id := s.currentID
		snap.CurrentSessionID = &id
	}
	return snap
}

// Restore replaces the durable state with snap. Sessions with a duplicate or
// empty id are dropped; the first occurrence wins.
func (s *Store) Restore(snap models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(snap.Sessions))
	sessions := make([]models.Session, 0, len(snap.Sessions))
	for _, sess := range snap.Sessions {
		if sess.ID == "" || seen[sess.ID] {
			s.log.Warn().Str("session_id", sess.ID).Msg("dropping duplicate session from snapshot")
			continue
		}
		seen[sess.ID] = true
		sessions = append(sessions, sess.Clone())
	}

	s.sessions = sessions
	s.currentID = snap.Current()
	s.settings = snap.Settings
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// touchLocked returns the refreshed UpdatedAt for sess. It never moves
// backwards, so UpdatedAt stays >= every message timestamp even if the
// clock does.
func (s *Store) touchLocked(sess models.Session) int64 {
	return max(sess.UpdatedAt, models.Millis(s.now()))
}

func cloneSessions(in []models.Session) []models.Session {
	out := make([]models.Session, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// Package models contains the data types shared by the chat store, its
// persistence backends and the user interfaces.
package models

import "time"

// Role identifies the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// DefaultTitle is the title of a session before its first user message
const DefaultTitle = "New Chat"

// Message is a single entry of a session. Messages are never edited once
// appended.
type Message struct {
	ID        string `json:"id" yaml:"id"`
	Role      Role   `json:"role" yaml:"role"`
	Content   string `json:"content" yaml:"content"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"` // epoch ms
}

// Session is one conversation thread
type Session struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Messages  []Message `json:"messages" yaml:"messages"`
	ModelID   string    `json:"modelId" yaml:"model_id"`
	CreatedAt int64     `json:"createdAt" yaml:"created_at"` // epoch ms
	UpdatedAt int64     `json:"updatedAt" yaml:"updated_at"` // epoch ms
}

// Clone returns a copy of the session that shares no message storage with s.
func (s Session) Clone() Session {
	msgs := make([]Message, len(s.Messages))
	copy(msgs, s.Messages)
	s.Messages = msgs
	return s
}

// LastMessage returns the most recently appended message, if any
func (s Session) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Snapshot is the durable part of the store state. The processing flag is
// transient and deliberately absent.
type Snapshot struct {
	Sessions         []Session `json:"sessions"`
	CurrentSessionID *string   `json:"currentSessionId"`
	Settings         Settings  `json:"settings"`
}

// Current returns the current session id, or "" when none is selected.
func (s Snapshot) Current() string {
	if s.CurrentSessionID == nil {
		return ""
	}
	return *s.CurrentSessionID
}

// Millis converts t to epoch milliseconds
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// Time converts epoch milliseconds back to a local time
func Time(ms int64) time.Time {
	return time.UnixMilli(ms)
}

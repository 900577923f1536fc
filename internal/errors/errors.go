// Package errors provides the error types shared by chatui packages.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrEmptyMessage       = errors.New("message is empty")
	ErrBusy               = errors.New("a response is already being generated")
	ErrNoSnapshot         = errors.New("no stored snapshot")
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
	ErrCompletionFailed   = errors.New("completion failed")
)

// DefaultCompletionMessage is shown when a completion fails without detail
const DefaultCompletionMessage = "Failed to get AI response"

// CompletionError represents a failed request to the completion backend
type CompletionError struct {
	Model   string
	Message string
}

func (e *CompletionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = DefaultCompletionMessage
	}
	if e.Model == "" {
		return msg
	}
	return fmt.Sprintf("%s (model %s)", msg, e.Model)
}

// Is allows comparison with sentinel errors
func (e *CompletionError) Is(target error) bool {
	if target == ErrCompletionFailed {
		return true
	}
	_, ok := target.(*CompletionError)
	return ok
}

// NewCompletionError creates a new CompletionError
func NewCompletionError(model, message string) *CompletionError {
	return &CompletionError{Model: model, Message: message}
}

// PersistError represents a failed load or save against a storage backend
type PersistError struct {
	Op      string // "load" or "save"
	Backend string
	Err     error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s snapshot via %s: %v", e.Op, e.Backend, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// NewPersistError creates a new PersistError
func NewPersistError(op, backend string, err error) *PersistError {
	return &PersistError{Op: op, Backend: backend, Err: err}
}

// ResolveError represents a session reference that matched nothing usable
type ResolveError struct {
	Ref     string
	Message string
}

func (e *ResolveError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("session not found: %s", e.Ref)
	}
	return fmt.Sprintf("cannot resolve %q: %s", e.Ref, e.Message)
}

// Is allows comparison with sentinel errors
func (e *ResolveError) Is(target error) bool {
	if target == ErrSessionNotFound {
		return true
	}
	_, ok := target.(*ResolveError)
	return ok
}

// NewResolveError creates a new ResolveError
func NewResolveError(ref, message string) *ResolveError {
	return &ResolveError{Ref: ref, Message: message}
}

// UserMessage returns a short description suitable for a transient
// notification in the UI.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var ce *CompletionError
	if errors.As(err, &ce) {
		if ce.Message == "" {
			return DefaultCompletionMessage
		}
		return ce.Message
	}

	switch {
	case errors.Is(err, ErrBusy):
		return "Please wait for the current response"
	case errors.Is(err, ErrEmptyMessage):
		return "Type a message first"
	case errors.Is(err, ErrSessionNotFound):
		return err.Error()
	}
	return err.Error()
}

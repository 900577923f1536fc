package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCompletionError(t *testing.T) {
	err := NewCompletionError("gpt-4o", "backend unavailable")

	expected := "backend unavailable (model gpt-4o)"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if !errors.Is(err, ErrCompletionFailed) {
		t.Error("expected CompletionError to match ErrCompletionFailed")
	}

	wrapped := fmt.Errorf("send: %w", err)
	if !errors.Is(wrapped, ErrCompletionFailed) {
		t.Error("expected wrapped CompletionError to match ErrCompletionFailed")
	}

	if errors.Is(err, ErrBusy) {
		t.Error("CompletionError should not match ErrBusy")
	}
}

func TestCompletionError_EmptyMessage(t *testing.T) {
	err := NewCompletionError("", "")
	if err.Error() != DefaultCompletionMessage {
		t.Errorf("Error() = %s, want %s", err.Error(), DefaultCompletionMessage)
	}
}

func TestPersistError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewPersistError("save", "file", cause)

	expected := "save snapshot via file: disk full"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if !errors.Is(err, cause) {
		t.Error("PersistError should unwrap to its cause")
	}

	noSnap := NewPersistError("load", "redis", ErrNoSnapshot)
	if !errors.Is(noSnap, ErrNoSnapshot) {
		t.Error("expected PersistError to match ErrNoSnapshot through Unwrap")
	}
}

func TestResolveError(t *testing.T) {
	tests := []struct {
		name string
		err  *ResolveError
		want string
	}{
		{"no detail", NewResolveError("abc", ""), "session not found: abc"},
		{"with detail", NewResolveError("go", "matches 2 sessions"), `cannot resolve "go": matches 2 sessions`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.want {
				t.Errorf("Error() = %s, want %s", tt.err.Error(), tt.want)
			}
			if !errors.Is(tt.err, ErrSessionNotFound) {
				t.Error("expected ResolveError to match ErrSessionNotFound")
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"completion", NewCompletionError("gpt-4o", "try again"), "try again"},
		{"completion without message", fmt.Errorf("wrap: %w", NewCompletionError("x", "")), DefaultCompletionMessage},
		{"busy", ErrBusy, "Please wait for the current response"},
		{"empty", fmt.Errorf("send: %w", ErrEmptyMessage), "Type a message first"},
		{"other", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

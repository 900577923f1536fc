package chat

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/diogo/chatui/internal/completion"
	apperrors "github.com/diogo/chatui/internal/errors"
	"github.com/diogo/chatui/internal/metrics"
	"github.com/diogo/chatui/internal/models"
	"github.com/diogo/chatui/internal/store"
)

type call struct {
	content  string
	history  []models.Message
	modelID  string
	settings models.Settings
}

// scriptedClient returns reply or err and records what it was asked
type scriptedClient struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []call
	// processingSeen records IsProcessing at call time
	processingSeen []bool
	st             store.ChatStore
}

func (c *scriptedClient) SendMessage(ctx context.Context, content string, history []models.Message, modelID string, settings models.Settings) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call{content, history, modelID, settings})
	if c.st != nil {
		c.processingSeen = append(c.processingSeen, c.st.IsProcessing())
	}
	return c.reply, c.err
}

func newService(t *testing.T, client *scriptedClient) (*Service, *store.Store) {
	t.Helper()
	st := store.New()
	st.CreateSession()
	client.st = st
	return NewService(st, client), st
}

func TestSend_Success(t *testing.T) {
	client := &scriptedClient{reply: "Hi there"}
	svc, st := newService(t, client)

	msg, err := svc.Send(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if msg.Role != models.RoleAssistant || msg.Content != "Hi there" {
		t.Errorf("Send() = %+v", msg)
	}

	sess, _ := st.CurrentSession()
	if len(sess.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(sess.Messages))
	}
	if sess.Messages[0].Role != models.RoleUser || sess.Messages[1].ID != msg.ID {
		t.Error("messages not appended in order")
	}
	if sess.Title != "Hello" {
		t.Errorf("title = %q, want Hello", sess.Title)
	}
	if st.IsProcessing() {
		t.Error("processing flag should be cleared")
	}
	if !client.processingSeen[0] {
		t.Error("processing flag should be set while the client runs")
	}
}

func TestSend_PassesModelSettingsAndPriorHistory(t *testing.T) {
	client := &scriptedClient{reply: "ok"}
	svc, st := newService(t, client)

	st.SetModelForCurrentSession("claude-3-opus")
	temp := 1.3
	st.UpdateSettings(models.SettingsPatch{Temperature: &temp})

	if _, err := svc.Send(context.Background(), "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Send(context.Background(), "second"); err != nil {
		t.Fatal(err)
	}

	first, second := client.calls[0], client.calls[1]
	if len(first.history) != 0 {
		t.Errorf("first history = %d messages, want 0", len(first.history))
	}
	if len(second.history) != 2 {
		t.Errorf("second history = %d messages, want 2", len(second.history))
	}
	if second.content != "second" {
		t.Errorf("content = %q", second.content)
	}
	for _, m := range second.history {
		if m.Content == "second" {
			t.Error("history must not contain the message being sent")
		}
	}
	if second.modelID != "claude-3-opus" {
		t.Errorf("model = %s", second.modelID)
	}
	if second.settings.Temperature != 1.3 {
		t.Errorf("temperature = %v", second.settings.Temperature)
	}
}

func TestSend_Failure(t *testing.T) {
	client := &scriptedClient{err: apperrors.NewCompletionError("gpt-4o", completion.FailureMessage)}
	svc, st := newService(t, client)

	before := testutil.ToFloat64(metrics.CompletionCount("gpt-4o", false))

	_, err := svc.Send(context.Background(), "Hello")
	if !errors.Is(err, apperrors.ErrCompletionFailed) {
		t.Fatalf("err = %v, want ErrCompletionFailed", err)
	}

	sess, _ := st.CurrentSession()
	if len(sess.Messages) != 1 || sess.Messages[0].Role != models.RoleUser {
		t.Errorf("only the user message should remain, got %+v", sess.Messages)
	}
	if st.IsProcessing() {
		t.Error("processing flag should be cleared after failure")
	}
	if got := testutil.ToFloat64(metrics.CompletionCount("gpt-4o", false)); got != before+1 {
		t.Errorf("failed completions = %v, want %v", got, before+1)
	}
}

func TestSend_EmptyMessage(t *testing.T) {
	client := &scriptedClient{}
	svc, st := newService(t, client)

	for _, content := range []string{"", "   ", "\n\t"} {
		if _, err := svc.Send(context.Background(), content); !errors.Is(err, apperrors.ErrEmptyMessage) {
			t.Errorf("Send(%q) = %v, want ErrEmptyMessage", content, err)
		}
	}

	sess, _ := st.CurrentSession()
	if len(sess.Messages) != 0 || len(client.calls) != 0 {
		t.Error("empty messages must not reach the store or the client")
	}
}

func TestSend_Busy(t *testing.T) {
	client := &scriptedClient{}
	svc, st := newService(t, client)
	st.SetIsProcessing(true)

	if _, err := svc.Send(context.Background(), "hello"); !errors.Is(err, apperrors.ErrBusy) {
		t.Errorf("err = %v, want ErrBusy", err)
	}
	if !st.IsProcessing() {
		t.Error("a refused send must not clear someone else's processing flag")
	}
}

func TestSend_CreatesSessionWhenNoneCurrent(t *testing.T) {
	st := store.New()
	svc := NewService(st, &scriptedClient{reply: "ok"})

	if _, err := svc.Send(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	if len(st.Sessions()) != 1 {
		t.Errorf("expected 1 session, got %d", len(st.Sessions()))
	}
}

func TestSend_ContextCanceled(t *testing.T) {
	st := store.New()
	mock := completion.NewMock(completion.WithLatency(time.Hour, time.Hour), completion.WithFailureRate(0))
	svc := NewService(st, mock)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := svc.Send(ctx, "hello"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if st.IsProcessing() {
		t.Error("processing flag should be cleared after cancel")
	}
}

func TestBeginFinish_TwoPhase(t *testing.T) {
	client := &scriptedClient{reply: "pong"}
	svc, st := newService(t, client)

	req, err := svc.Begin("ping")
	if err != nil {
		t.Fatal(err)
	}
	if !st.IsProcessing() {
		t.Error("Begin should set processing")
	}
	if _, err := svc.Begin("again"); !errors.Is(err, apperrors.ErrBusy) {
		t.Errorf("second Begin = %v, want ErrBusy", err)
	}

	reply, err := svc.Request(context.Background(), req)
	msg, err := svc.Finish(req, reply, err)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Content != "pong" || st.IsProcessing() {
		t.Errorf("Finish() = %+v, processing = %v", msg, st.IsProcessing())
	}
}

func TestFinish_ReplyGoesToCurrentSession(t *testing.T) {
	client := &scriptedClient{reply: "late"}
	svc, st := newService(t, client)

	req, err := svc.Begin("question")
	if err != nil {
		t.Fatal(err)
	}
	other := st.CreateSession()

	msg, err := svc.Finish(req, "late", nil)
	if err != nil {
		t.Fatal(err)
	}
	sess, _ := st.Session(other)
	if len(sess.Messages) != 1 || sess.Messages[0].ID != msg.ID {
		t.Error("reply should land in the session that is current when it arrives")
	}
}

func TestBegin_ConcurrentOnlyOneWins(t *testing.T) {
	svc, _ := newService(t, &scriptedClient{})

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Begin("hi"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("%d concurrent Begin calls succeeded, want 1", wins.Load())
	}
}

package store

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diogo/chatui/internal/models"
)

// fakeClock advances one millisecond per call
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func seq(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newTestStore(opts ...Option) *Store {
	clock := newFakeClock()
	base := []Option{
		WithClock(clock.Now),
		WithSessionIDs(seq("s")),
		WithMessageIDs(seq("m")),
	}
	return New(append(base, opts...)...)
}

func TestNew(t *testing.T) {
	s := New()

	if len(s.Sessions()) != 0 {
		t.Errorf("expected no sessions, got %d", len(s.Sessions()))
	}
	if s.CurrentSessionID() != "" {
		t.Errorf("expected no current session, got %q", s.CurrentSessionID())
	}
	if s.Settings() != models.DefaultSettings() {
		t.Errorf("Settings() = %+v, want defaults", s.Settings())
	}
	if s.IsProcessing() {
		t.Error("IsProcessing() should start false")
	}
}

func TestCreateSession(t *testing.T) {
	s := newTestStore()

	id := s.CreateSession()
	if id == "" {
		t.Fatal("CreateSession returned empty id")
	}

	sess, ok := s.CurrentSession()
	if !ok {
		t.Fatal("new session should be current")
	}
	if sess.ID != id {
		t.Errorf("current = %s, want %s", sess.ID, id)
	}
	if sess.Title != "New Chat" {
		t.Errorf("Title = %q, want New Chat", sess.Title)
	}
	if sess.ModelID != models.DefaultModel().ID {
		t.Errorf("ModelID = %s, want %s", sess.ModelID, models.DefaultModel().ID)
	}
	if len(sess.Messages) != 0 {
		t.Errorf("expected no messages, got %d", len(sess.Messages))
	}
	if sess.CreatedAt == 0 || sess.CreatedAt != sess.UpdatedAt {
		t.Errorf("CreatedAt = %d, UpdatedAt = %d, want equal and non-zero", sess.CreatedAt, sess.UpdatedAt)
	}
}

func TestCreateSession_ReusesEmptyCurrent(t *testing.T) {
	s := newTestStore()

	first := s.CreateSession()
	second := s.CreateSession()

	if first != second {
		t.Errorf("expected empty current session to be reused: %s != %s", first, second)
	}
	if len(s.Sessions()) != 1 {
		t.Errorf("expected 1 session, got %d", len(s.Sessions()))
	}
}

func TestCreateSession_PrependsWhenCurrentHasMessages(t *testing.T) {
	s := newTestStore()

	seen := map[string]bool{}
	var ids []string
	for i := 0; i < 4; i++ {
		id := s.CreateSession()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
		ids = append(ids, id)
		s.AddMessage(models.RoleUser, fmt.Sprintf("message %d", i))
	}

	sessions := s.Sessions()
	if len(sessions) != 4 {
		t.Fatalf("expected 4 sessions, got %d", len(sessions))
	}
	for i, sess := range sessions {
		want := ids[len(ids)-1-i]
		if sess.ID != want {
			t.Errorf("sessions[%d] = %s, want %s (most recent first)", i, sess.ID, want)
		}
	}
}

func TestCreateSession_DanglingCurrentCreatesNew(t *testing.T) {
	s := newTestStore()
	s.SetCurrentSession("ghost")

	id := s.CreateSession()
	if id == "ghost" {
		t.Error("dangling id must not be reused")
	}
	if s.CurrentSessionID() != id {
		t.Errorf("current = %s, want %s", s.CurrentSessionID(), id)
	}
}

func TestCreateSession_WithDefaultModel(t *testing.T) {
	s := newTestStore(WithDefaultModel("mistral-large"))
	s.CreateSession()

	sess, _ := s.CurrentSession()
	if sess.ModelID != "mistral-large" {
		t.Errorf("ModelID = %s, want mistral-large", sess.ModelID)
	}
}

func TestSetCurrentSession(t *testing.T) {
	s := newTestStore()
	a := s.CreateSession()
	s.AddMessage(models.RoleUser, "a")
	b := s.CreateSession()

	if ok := s.SetCurrentSession(a); !ok {
		t.Error("SetCurrentSession should report a known id")
	}
	if s.CurrentSessionID() != a {
		t.Errorf("current = %s, want %s", s.CurrentSessionID(), a)
	}

	before := s.Sessions()
	if ok := s.SetCurrentSession("unknown"); ok {
		t.Error("SetCurrentSession should report an unknown id")
	}
	if s.CurrentSessionID() != "unknown" {
		t.Errorf("current id should be set unconditionally, got %q", s.CurrentSessionID())
	}
	if _, ok := s.CurrentSession(); ok {
		t.Error("dangling current id should resolve to no session")
	}
	if !reflect.DeepEqual(before, s.Sessions()) {
		t.Error("SetCurrentSession with unknown id changed sessions")
	}

	s.SetCurrentSession(b)
	if sess, ok := s.CurrentSession(); !ok || sess.ID != b {
		t.Errorf("CurrentSession = %v, %v", sess.ID, ok)
	}
}

func TestRenameSession(t *testing.T) {
	s := newTestStore()
	id := s.CreateSession()
	created, _ := s.Session(id)

	s.RenameSession(id, "Renamed")

	sess, _ := s.Session(id)
	if sess.Title != "Renamed" {
		t.Errorf("Title = %q, want Renamed", sess.Title)
	}
	if sess.UpdatedAt <= created.UpdatedAt {
		t.Errorf("UpdatedAt not refreshed: %d <= %d", sess.UpdatedAt, created.UpdatedAt)
	}
}

func TestRenameSession_UnknownID(t *testing.T) {
	s := newTestStore()
	s.CreateSession()
	s.AddMessage(models.RoleUser, "hello")

	before := s.Snapshot()
	s.RenameSession("unknown", "x")

	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("RenameSession with unknown id changed state")
	}
}

func TestDeleteSession_CurrentMovesToFirstRemaining(t *testing.T) {
	s := newTestStore()
	a := s.CreateSession()
	s.AddMessage(models.RoleUser, "a")
	b := s.CreateSession()
	s.AddMessage(models.RoleUser, "b")
	c := s.CreateSession()
	s.AddMessage(models.RoleUser, "c")

	// order: c, b, a
	s.SetCurrentSession(b)
	s.DeleteSession(b)

	if s.CurrentSessionID() != c {
		t.Errorf("current = %s, want first remaining %s", s.CurrentSessionID(), c)
	}

	ids := sessionIDs(s.Sessions())
	if !reflect.DeepEqual(ids, []string{c, a}) {
		t.Errorf("sessions = %v, want [%s %s]", ids, c, a)
	}
}

func TestDeleteSession_LastSessionClearsCurrent(t *testing.T) {
	s := newTestStore()
	id := s.CreateSession()

	s.DeleteSession(id)

	if s.CurrentSessionID() != "" {
		t.Errorf("current = %q, want none", s.CurrentSessionID())
	}
	if _, ok := s.CurrentSession(); ok {
		t.Error("expected no current session")
	}
	if len(s.Sessions()) != 0 {
		t.Errorf("expected no sessions, got %d", len(s.Sessions()))
	}
}

func TestDeleteSession_NonCurrentKeepsCurrent(t *testing.T) {
	s := newTestStore()
	a := s.CreateSession()
	s.AddMessage(models.RoleUser, "a")
	b := s.CreateSession()

	s.DeleteSession(a)

	if s.CurrentSessionID() != b {
		t.Errorf("current = %s, want %s", s.CurrentSessionID(), b)
	}
}

func TestDeleteSession_UnknownID(t *testing.T) {
	s := newTestStore()
	s.CreateSession()
	s.AddMessage(models.RoleUser, "hello")

	before := s.Snapshot()
	s.DeleteSession("unknown")

	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("DeleteSession with unknown id changed state")
	}
}

func TestAddMessage_CreatesSessionWhenNoneCurrent(t *testing.T) {
	s := newTestStore()

	s.AddMessage(models.RoleUser, "Hello there, how are you doing today friend")

	sess, ok := s.CurrentSession()
	if !ok {
		t.Fatal("expected a current session")
	}
	if len(sess.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sess.Messages))
	}
	if sess.Title != "Hello there, how are you doing..." {
		t.Errorf("Title = %q", sess.Title)
	}
	if []rune(sess.Title)[29] != 'g' {
		t.Errorf("title should keep the first 30 characters, got %q", sess.Title)
	}
}

func TestAddMessage_IncrementsCountAndUpdatedAt(t *testing.T) {
	s := newTestStore()
	s.CreateSession()

	for i := 1; i <= 5; i++ {
		before, _ := s.CurrentSession()
		role := models.RoleUser
		if i%2 == 0 {
			role = models.RoleAssistant
		}
		s.AddMessage(role, fmt.Sprintf("msg %d", i))

		after, _ := s.CurrentSession()
		if len(after.Messages) != len(before.Messages)+1 {
			t.Fatalf("message count %d -> %d, want +1", len(before.Messages), len(after.Messages))
		}
		last, _ := after.LastMessage()
		if after.UpdatedAt < last.Timestamp {
			t.Errorf("UpdatedAt %d < message timestamp %d", after.UpdatedAt, last.Timestamp)
		}
		if last.ID == "" || last.Role != role || last.Content != fmt.Sprintf("msg %d", i) {
			t.Errorf("unexpected message %+v", last)
		}
	}
}

func TestAddMessage_UpdatedAtNeverBehindMessage(t *testing.T) {
	// A clock that jumps backwards must not leave UpdatedAt behind a message.
	times := []int64{5000, 1000, 9000, 2000}
	i := 0
	s := New(
		WithClock(func() time.Time {
			ts := times[i%len(times)]
			i++
			return time.UnixMilli(ts)
		}),
		WithSessionIDs(seq("s")),
		WithMessageIDs(seq("m")),
	)

	s.CreateSession()
	s.AddMessage(models.RoleUser, "a")
	s.AddMessage(models.RoleUser, "b")
	s.RenameSession(s.CurrentSessionID(), "x")

	sess, _ := s.CurrentSession()
	for _, m := range sess.Messages {
		if sess.UpdatedAt < m.Timestamp {
			t.Errorf("UpdatedAt %d < message timestamp %d", sess.UpdatedAt, m.Timestamp)
		}
	}
}

func TestAddMessage_TitleRules(t *testing.T) {
	tests := []struct {
		name      string
		messages  []models.Message
		wantTitle string
	}{
		{
			name:      "short user message verbatim",
			messages:  []models.Message{{Role: models.RoleUser, Content: "What is Go?"}},
			wantTitle: "What is Go?",
		},
		{
			name:      "exactly 30 characters verbatim",
			messages:  []models.Message{{Role: models.RoleUser, Content: strings.Repeat("a", 30)}},
			wantTitle: strings.Repeat("a", 30),
		},
		{
			name:      "31 characters truncated",
			messages:  []models.Message{{Role: models.RoleUser, Content: strings.Repeat("b", 31)}},
			wantTitle: strings.Repeat("b", 30) + "...",
		},
		{
			name:      "multibyte counted as code points",
			messages:  []models.Message{{Role: models.RoleUser, Content: strings.Repeat("é", 31)}},
			wantTitle: strings.Repeat("é", 30) + "...",
		},
		{
			name: "second user message never retitles",
			messages: []models.Message{
				{Role: models.RoleUser, Content: "first"},
				{Role: models.RoleAssistant, Content: "reply"},
				{Role: models.RoleUser, Content: "second"},
			},
			wantTitle: "first",
		},
		{
			name: "assistant first keeps default",
			messages: []models.Message{
				{Role: models.RoleAssistant, Content: "greeting"},
				{Role: models.RoleUser, Content: "hello"},
			},
			wantTitle: "New Chat",
		},
		{
			name:      "system first keeps default",
			messages:  []models.Message{{Role: models.RoleSystem, Content: "be nice"}},
			wantTitle: "New Chat",
		},
		{
			name:      "surrounding whitespace kept verbatim",
			messages:  []models.Message{{Role: models.RoleUser, Content: "  hi  "}},
			wantTitle: "  hi  ",
		},
		{
			name:      "trailing whitespace counts toward the limit",
			messages:  []models.Message{{Role: models.RoleUser, Content: strings.Repeat("a", 29) + "  "}},
			wantTitle: strings.Repeat("a", 29) + " ...",
		},
		{
			name:      "leading whitespace counts toward the limit",
			messages:  []models.Message{{Role: models.RoleUser, Content: " " + strings.Repeat("c", 30)}},
			wantTitle: " " + strings.Repeat("c", 29) + "...",
		},
		{
			name:      "blank user message falls back",
			messages:  []models.Message{{Role: models.RoleUser, Content: "   "}},
			wantTitle: "New Chat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			for _, m := range tt.messages {
				s.AddMessage(m.Role, m.Content)
			}
			sess, _ := s.CurrentSession()
			if sess.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", sess.Title, tt.wantTitle)
			}
		})
	}
}

func TestAddMessage_RenamedSessionKeepsTitleOnLaterMessages(t *testing.T) {
	s := newTestStore()
	id := s.CreateSession()
	s.AddMessage(models.RoleUser, "first")
	s.RenameSession(id, "Custom")
	s.AddMessage(models.RoleUser, "another")

	sess, _ := s.Session(id)
	if sess.Title != "Custom" {
		t.Errorf("Title = %q, want Custom", sess.Title)
	}
}

func TestAddMessage_AppendsToCurrentOnly(t *testing.T) {
	s := newTestStore()
	a := s.CreateSession()
	s.AddMessage(models.RoleUser, "a1")
	b := s.CreateSession()
	s.AddMessage(models.RoleUser, "b1")

	s.SetCurrentSession(a)
	s.AddMessage(models.RoleAssistant, "a2")

	sa, _ := s.Session(a)
	sb, _ := s.Session(b)
	if len(sa.Messages) != 2 || len(sb.Messages) != 1 {
		t.Errorf("a has %d messages, b has %d; want 2 and 1", len(sa.Messages), len(sb.Messages))
	}

	// Order is insertion order; no reordering on update
	if ids := sessionIDs(s.Sessions()); !reflect.DeepEqual(ids, []string{b, a}) {
		t.Errorf("sessions = %v, want [%s %s]", ids, b, a)
	}
}

func TestAddMessage_DanglingCurrentCreatesSession(t *testing.T) {
	s := newTestStore()
	s.CreateSession()
	s.AddMessage(models.RoleUser, "x")
	s.SetCurrentSession("ghost")

	s.AddMessage(models.RoleUser, "into a new session")

	if len(s.Sessions()) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(s.Sessions()))
	}
	sess, ok := s.CurrentSession()
	if !ok || sess.Title != "into a new session" {
		t.Errorf("current session = %+v, %v", sess, ok)
	}
}

func TestAddMessage_EarlierCopiesUnaffected(t *testing.T) {
	s := newTestStore()
	s.AddMessage(models.RoleUser, "one")

	held, _ := s.CurrentSession()
	snap := s.Snapshot()

	s.AddMessage(models.RoleAssistant, "two")

	if len(held.Messages) != 1 || len(snap.Sessions[0].Messages) != 1 {
		t.Error("copies handed out before a mutation must not change")
	}
}

func TestUpdateSettings_Partial(t *testing.T) {
	s := newTestStore()
	prompt := "Be terse."
	s.UpdateSettings(models.SettingsPatch{SystemPrompt: &prompt})

	temp := 1.2
	s.UpdateSettings(models.SettingsPatch{Temperature: &temp})

	got := s.Settings()
	want := models.Settings{SystemPrompt: "Be terse.", Temperature: 1.2, MaxTokens: 1000}
	if got != want {
		t.Errorf("Settings() = %+v, want %+v", got, want)
	}
}

func TestUpdateSettings_Empty(t *testing.T) {
	s := newTestStore()
	s.UpdateSettings(models.SettingsPatch{})

	if s.Settings() != models.DefaultSettings() {
		t.Errorf("empty patch changed settings: %+v", s.Settings())
	}
}

func TestUpdateSettings_ClampsOutOfRange(t *testing.T) {
	s := newTestStore()
	temp := 3.5
	tokens := 50
	s.UpdateSettings(models.SettingsPatch{Temperature: &temp, MaxTokens: &tokens})

	got := s.Settings()
	if got.Temperature != models.MaxTemperature {
		t.Errorf("Temperature = %v, want %v", got.Temperature, models.MaxTemperature)
	}
	if got.MaxTokens != models.MinMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", got.MaxTokens, models.MinMaxTokens)
	}
}

func TestSetModelForCurrentSession(t *testing.T) {
	s := newTestStore()
	id := s.CreateSession()
	before, _ := s.Session(id)

	s.SetModelForCurrentSession("claude-3-opus")

	after, _ := s.Session(id)
	if after.ModelID != "claude-3-opus" {
		t.Errorf("ModelID = %s, want claude-3-opus", after.ModelID)
	}
	if after.UpdatedAt <= before.UpdatedAt {
		t.Error("UpdatedAt not refreshed")
	}
}

func TestSetModelForCurrentSession_NoSession(t *testing.T) {
	s := newTestStore()

	s.SetModelForCurrentSession("x")

	if len(s.Sessions()) != 0 {
		t.Error("SetModelForCurrentSession must not create a session")
	}
	if s.CurrentSessionID() != "" {
		t.Error("SetModelForCurrentSession must not select a session")
	}
}

func TestSetIsProcessing(t *testing.T) {
	s := newTestStore()
	s.CreateSession()
	before := s.Snapshot()

	s.SetIsProcessing(true)
	if !s.IsProcessing() {
		t.Error("IsProcessing() = false after SetIsProcessing(true)")
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("SetIsProcessing changed the durable state")
	}

	s.SetIsProcessing(false)
	if s.IsProcessing() {
		t.Error("IsProcessing() = true after SetIsProcessing(false)")
	}
}

func TestImportSessions(t *testing.T) {
	s := newTestStore()
	current := s.CreateSession()

	added := s.ImportSessions([]models.Session{
		{ID: current, Title: "dup"},
		{ID: "old-1", Title: "Old one", Messages: []models.Message{{ID: "x", Role: models.RoleUser, Content: "hi"}}},
		{ID: "", Title: "no id"},
		{ID: "old-2", Title: "Old two"},
	})

	if added != 2 {
		t.Errorf("added = %d, want 2", added)
	}
	ids := sessionIDs(s.Sessions())
	if !reflect.DeepEqual(ids, []string{current, "old-1", "old-2"}) {
		t.Errorf("sessions = %v", ids)
	}
	if s.CurrentSessionID() != current {
		t.Error("import must not change the current session")
	}
}

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	s := newTestStore()
	s.AddMessage(models.RoleUser, "first session")
	s.AddMessage(models.RoleAssistant, "answer")
	s.CreateSession()
	s.AddMessage(models.RoleUser, "second")
	temp := 0.3
	s.UpdateSettings(models.SettingsPatch{Temperature: &temp})

	snap := s.Snapshot()

	fresh := New()
	fresh.Restore(snap)

	if !reflect.DeepEqual(snap, fresh.Snapshot()) {
		t.Errorf("restored snapshot differs:\n got %+v\nwant %+v", fresh.Snapshot(), snap)
	}
}

func TestSnapshot_NoCurrent(t *testing.T) {
	s := newTestStore()
	if s.Snapshot().CurrentSessionID != nil {
		t.Error("expected nil CurrentSessionID")
	}
}

func TestRestore_DropsDuplicates(t *testing.T) {
	s := New()
	s.Restore(models.Snapshot{
		Sessions: []models.Session{
			{ID: "a", Title: "first"},
			{ID: "a", Title: "second"},
			{ID: "b"},
		},
		Settings: models.DefaultSettings(),
	})

	sessions := s.Sessions()
	if len(sessions) != 2 || sessions[0].Title != "first" {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestStore_ConcurrentReaders(t *testing.T) {
	s := newTestStore()
	s.CreateSession()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if sess, ok := s.CurrentSession(); ok {
					for _, m := range sess.Messages {
						_ = m.Content
					}
				}
			}
		}()
	}

	for i := 0; i < 100; i++ {
		s.AddMessage(models.RoleUser, "x")
	}
	wg.Wait()

	sess, _ := s.CurrentSession()
	if len(sess.Messages) != 100 {
		t.Errorf("expected 100 messages, got %d", len(sess.Messages))
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello", "Hello"},
		{"  padded  ", "  padded  "},
		{"\t\n ", "New Chat"},
		{"", "New Chat"},
		{"Hello there, how are you doing today friend", "Hello there, how are you doing..."},
		{strings.Repeat("日", 40), strings.Repeat("日", 30) + "..."},
	}

	for _, tt := range tests {
		if got := Summarize(tt.in); got != tt.want {
			t.Errorf("Summarize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func sessionIDs(sessions []models.Session) []string {
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return ids
}

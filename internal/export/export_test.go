package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/diogo/chatui/internal/models"
)

func testSession() models.Session {
	return models.Session{
		ID:    "sess-1",
		Title: "Test Conversation",
		Messages: []models.Message{
			{ID: "m1", Role: models.RoleSystem, Content: "Be nice.", Timestamp: 1700000000000},
			{ID: "m2", Role: models.RoleUser, Content: "Hello, how are you?", Timestamp: 1700000001000},
			{ID: "m3", Role: models.RoleAssistant, Content: "I'm doing well, thank you!", Timestamp: 1700000002000},
		},
		ModelID:   "gpt-4o",
		CreatedAt: 1700000000000,
		UpdatedAt: 1700000002000,
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(testSession(), DefaultOptions())

	for _, want := range []string{
		"# Test Conversation",
		"**Model:** GPT-4o (OpenAI)",
		"**Messages:** 2",
		"## User (",
		"## Assistant (",
		"Hello, how are you?",
		"I'm doing well",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown should contain %q", want)
		}
	}
	if strings.Contains(md, "Be nice.") {
		t.Error("system messages are excluded by default")
	}
	if strings.HasSuffix(md, "---\n\n") {
		t.Error("no separator after the last message")
	}
}

func TestMarkdown_Options(t *testing.T) {
	opts := Options{Format: FormatMarkdown, IncludeSystem: true, IncludeTimestamps: false}
	md := Markdown(testSession(), opts)

	if !strings.Contains(md, "## System\n\nBe nice.") {
		t.Error("system message should be included without timestamp")
	}
	if strings.Contains(md, "## User (") {
		t.Error("timestamps should be omitted")
	}
}

func TestMarkdown_UnknownModel(t *testing.T) {
	sess := testSession()
	sess.ModelID = "custom-model"

	if md := Markdown(sess, DefaultOptions()); !strings.Contains(md, "**Model:** custom-model") {
		t.Error("unknown model id should be shown verbatim")
	}
}

func TestJSON(t *testing.T) {
	data, err := JSON(testSession(), DefaultOptions())
	if err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var got exportSession
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.ID != "sess-1" || got.Model != "gpt-4o" {
		t.Errorf("header = %+v", got)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(got.Messages))
	}
	if got.Messages[0].Role != "user" || got.Messages[0].Timestamp == nil {
		t.Errorf("first message = %+v", got.Messages[0])
	}
	if !got.Messages[1].Timestamp.Equal(time.UnixMilli(1700000002000)) {
		t.Errorf("timestamp = %v", got.Messages[1].Timestamp)
	}
}

func TestJSON_WithoutTimestamps(t *testing.T) {
	data, _ := JSON(testSession(), Options{Format: FormatJSON})
	if strings.Contains(string(data), `"timestamp"`) {
		t.Error("timestamps should be omitted")
	}
}

func TestYAML(t *testing.T) {
	data, err := YAML(testSession(), Options{Format: FormatYAML, IncludeSystem: true})
	if err != nil {
		t.Fatalf("YAML() error: %v", err)
	}

	var got struct {
		Title    string `yaml:"title"`
		Messages []struct {
			Role    string `yaml:"role"`
			Content string `yaml:"content"`
		} `yaml:"messages"`
	}
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if got.Title != "Test Conversation" || len(got.Messages) != 3 {
		t.Errorf("decoded = %+v", got)
	}
	if got.Messages[0].Role != "system" {
		t.Errorf("first role = %s", got.Messages[0].Role)
	}
}

func TestSession_Dispatch(t *testing.T) {
	for _, f := range []Format{FormatMarkdown, FormatJSON, FormatYAML, ""} {
		if _, err := Session(testSession(), Options{Format: f}); err != nil {
			t.Errorf("Session(%q) error: %v", f, err)
		}
	}
	if _, err := Session(testSession(), Options{Format: "pdf"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"md", FormatMarkdown, false},
		{"Markdown", FormatMarkdown, false},
		{".json", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"yaml", FormatYAML, false},
		{"txt", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
	if FormatYAML.Extension() != "yaml" || FormatMarkdown.Extension() != "md" {
		t.Error("unexpected extension")
	}
}

func TestRoleLabel(t *testing.T) {
	if RoleLabel(models.RoleUser) != "User" || RoleLabel(models.RoleAssistant) != "Assistant" || RoleLabel(models.RoleSystem) != "System" {
		t.Error("unexpected role labels")
	}
}

func TestFormatRelative(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{30 * time.Hour, "yesterday"},
		{4 * 24 * time.Hour, "4d ago"},
		{14 * 24 * time.Hour, "2w ago"},
		{90 * 24 * time.Hour, "2024-03-17"},
	}
	for _, tt := range tests {
		if got := formatRelative(now, now.Add(-tt.ago)); got != tt.want {
			t.Errorf("formatRelative(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIncMutation(t *testing.T) {
	before := testutil.ToFloat64(MutationCount("rename_session"))

	IncMutation("Rename_Session ")
	IncMutation("rename_session")

	after := testutil.ToFloat64(MutationCount("rename_session"))
	if after-before != 2 {
		t.Errorf("counter delta = %v, want 2", after-before)
	}
}

func TestIncPersistWrite(t *testing.T) {
	okBefore := testutil.ToFloat64(PersistWriteCount("file", true))
	errBefore := testutil.ToFloat64(PersistWriteCount("file", false))

	IncPersistWrite("file", true)
	IncPersistWrite("file", false)
	IncPersistWrite("file", false)

	if d := testutil.ToFloat64(PersistWriteCount("file", true)) - okBefore; d != 1 {
		t.Errorf("ok delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(PersistWriteCount("file", false)) - errBefore; d != 2 {
		t.Errorf("error delta = %v, want 2", d)
	}
}

func TestObserveCompletion(t *testing.T) {
	before := testutil.ToFloat64(CompletionCount("gpt-4o", false))

	ObserveCompletion("GPT-4o", 120*time.Millisecond, false)

	if d := testutil.ToFloat64(CompletionCount("gpt-4o", false)) - before; d != 1 {
		t.Errorf("delta = %v, want 1", d)
	}
}

func TestHandler(t *testing.T) {
	IncMutation("create_session")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "chatui_store_mutations_total") {
		t.Error("metrics output missing chatui_store_mutations_total")
	}

	// Registering twice must not panic
	MustRegister()
}

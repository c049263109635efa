package handlers

import (
	api_models "askai-backend/internal/models"
	"askai-backend/internal/provider"
	"askai-backend/internal/services"
	"askai-backend/internal/store/sqlite"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type stubCompleter struct {
	answer string
	err    error
	calls  int
}

func (c *stubCompleter) Complete(ctx context.Context, prompt string) (provider.Completion, error) {
	c.calls++
	if c.err != nil {
		return provider.Completion{}, c.err
	}
	return provider.Completion{Text: c.answer}, nil
}

type testEnv struct {
	store     *sqlite.SQLiteStore
	completer *stubCompleter
	handlers  *AskHandlers
}

func newTestEnv(t *testing.T, apiKey string, debug bool) *testEnv {
	t.Helper()
	st, err := sqlite.Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatal(err)
	}
	if err := st.EnsureSchema(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(st.Close)

	c := &stubCompleter{}
	factory := func(key string) (provider.Completer, error) {
		if key == "" {
			return nil, provider.ErrMissingCredential
		}
		return c, nil
	}
	svc := services.NewAskService(st, factory, services.AskConfig{
		ProviderName: "openai",
		APIKey:       apiKey,
		Model:        "gpt-4o-mini",
		Timeout:      time.Second,
	})
	return &testEnv{store: st, completer: c, handlers: NewAskHandlers(svc, "openai", debug)}
}

func (e *testEnv) ask(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handlers.HandleAsk(rec, req)
	return rec
}

func (e *testEnv) history(t *testing.T) []api_models.HistoryItem {
	t.Helper()
	rec := httptest.NewRecorder()
	e.handlers.HandleHistory(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var items []api_models.HistoryItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("history: invalid JSON: %v", err)
	}
	return items
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) api_models.ErrorResponse {
	t.Helper()
	var resp api_models.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error JSON %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestHandleAsk_RoundTrip(t *testing.T) {
	env := newTestEnv(t, "sk-test-1234567890", false)
	env.completer.answer = "first"
	env.ask(t, `{"text":"warmup"}`)

	env.completer.answer = "world"
	rec := env.ask(t, `{"text":"hello"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp api_models.AskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "world" {
		t.Errorf("expected answer 'world', got %q", resp.Answer)
	}

	items := env.history(t)
	if len(items) != 2 {
		t.Fatalf("expected 2 records, got %d", len(items))
	}
	if items[0].Prompt != "hello" || items[0].Response != "world" {
		t.Errorf("unexpected newest record %+v", items[0])
	}
	if items[0].ID <= items[1].ID {
		t.Errorf("expected newest id > %d, got %d", items[1].ID, items[0].ID)
	}
}

func TestHandleAsk_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		apiKey     string
		err        error
		wantStatus int
		wantMsg    string
		wantCalls  int
	}{
		{"quota", "sk-test-1234567890", errors.New("Error code: 429 - insufficient_quota"), http.StatusPaymentRequired, MsgQuotaExceeded, 1},
		{"invalid key", "sk-test-1234567890", errors.New("Invalid API key provided"), http.StatusUnauthorized, MsgInvalidCredential, 1},
		{"other", "sk-test-1234567890", errors.New("socket hang up"), http.StatusInternalServerError, MsgUnexpected, 1},
		{"missing credential", "", nil, http.StatusInternalServerError, "OpenAI API key not set. Please add it to your .env file.", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.apiKey, false)
			env.completer.err = tt.err

			rec := env.ask(t, `{"text":"hello"}`)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			resp := decodeError(t, rec)
			if resp.Error != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, resp.Error)
			}
			if tt.wantStatus == http.StatusInternalServerError && resp.IncidentID == "" {
				t.Error("expected incident_id on 500")
			}
			if env.completer.calls != tt.wantCalls {
				t.Errorf("expected %d provider calls, got %d", tt.wantCalls, env.completer.calls)
			}
			if items := env.history(t); len(items) != 0 {
				t.Errorf("expected no records after failure, got %d", len(items))
			}
		})
	}
}

func TestHandleAsk_DebugGating(t *testing.T) {
	const raw = "dial tcp 10.0.0.1:443: connect: connection refused"

	off := newTestEnv(t, "sk-test-1234567890", false)
	off.completer.err = errors.New(raw)
	rec := off.ask(t, `{"text":"hello"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), raw) {
		t.Errorf("debug off: body leaked raw error: %s", rec.Body.String())
	}

	on := newTestEnv(t, "sk-test-1234567890", true)
	on.completer.err = errors.New(raw)
	rec = on.ask(t, `{"text":"hello"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), raw) {
		t.Errorf("debug on: expected raw error in body, got %s", rec.Body.String())
	}

	quota := newTestEnv(t, "sk-test-1234567890", true)
	quota.completer.err = errors.New("insufficient_quota: billing hard limit")
	rec = quota.ask(t, `{"text":"hello"}`)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rec.Code)
	}
	if !strings.HasPrefix(decodeError(t, rec).Error, MsgQuotaExceeded+" Detail: ") {
		t.Errorf("expected detail appended, got %s", rec.Body.String())
	}
}

func TestHandleAsk_InvalidJSON(t *testing.T) {
	env := newTestEnv(t, "sk-test-1234567890", false)
	rec := env.ask(t, `{"text":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if env.completer.calls != 0 {
		t.Errorf("expected no provider call, got %d", env.completer.calls)
	}
}

func TestHandleAsk_StorageFailure(t *testing.T) {
	env := newTestEnv(t, "sk-test-1234567890", false)
	env.completer.answer = "world"
	env.store.Close()

	rec := env.ask(t, `{"text":"hello"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := decodeError(t, rec).Error; got != MsgStorageFailure {
		t.Errorf("expected %q, got %q", MsgStorageFailure, got)
	}
	if strings.Contains(rec.Body.String(), "world") {
		t.Errorf("answer must not be returned when it was not saved: %s", rec.Body.String())
	}
}

func TestHandleHistory_EmptyIsArray(t *testing.T) {
	env := newTestEnv(t, "sk-test-1234567890", false)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		env.handlers.HandleHistory(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
			t.Errorf("expected [], got %s", body)
		}
	}
}

func TestHandleDiagnostics(t *testing.T) {
	env := newTestEnv(t, "sk-ABCDEFGHIJKL", false)
	rec := httptest.NewRecorder()
	env.handlers.HandleDiagnostics(rec, httptest.NewRequest(http.MethodGet, "/diagnostics/provider", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["credentialLoaded"] != true {
		t.Errorf("expected credentialLoaded true, got %v", body["credentialLoaded"])
	}
	if body["maskedCredential"] != "sk-ABCDE...IJKL" {
		t.Errorf("unexpected maskedCredential %v", body["maskedCredential"])
	}
	if body["status"] != "ok" || body["model"] != "gpt-4o-mini" {
		t.Errorf("unexpected body %v", body)
	}
	if strings.Contains(rec.Body.String(), "sk-ABCDEFGHIJKL") {
		t.Error("raw credential leaked")
	}
	if env.completer.calls != 0 {
		t.Errorf("diagnostics must not call the provider")
	}
}

func TestHandleDiagnostics_MissingCredential(t *testing.T) {
	env := newTestEnv(t, "", false)
	rec := httptest.NewRecorder()
	env.handlers.HandleDiagnostics(rec, httptest.NewRequest(http.MethodGet, "/diagnostics/provider", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if v, ok := body["maskedCredential"]; !ok || v != nil {
		t.Errorf("expected maskedCredential null, got %v", v)
	}
	if body["status"] != "error" {
		t.Errorf("expected status error, got %v", body["status"])
	}
	if _, ok := body["error"]; ok {
		t.Errorf("error detail must be hidden without debug, got %v", body["error"])
	}
}

func TestHandleHealthAndRoot(t *testing.T) {
	env := newTestEnv(t, "", false)

	rec := httptest.NewRecorder()
	env.handlers.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"status":"ok"}` {
		t.Errorf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	env.handlers.HandleRoot(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	var root api_models.RootResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &root); err != nil {
		t.Fatal(err)
	}
	if root.Message == "" || len(root.Endpoints) == 0 {
		t.Errorf("unexpected root response %+v", root)
	}
}

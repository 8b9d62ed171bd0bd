package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/xiaot623/gogo/copilot/internal/adapter/llm"
	"github.com/xiaot623/gogo/copilot/internal/config"
	"github.com/xiaot623/gogo/copilot/internal/domain"
	"github.com/xiaot623/gogo/copilot/internal/logging"
	"github.com/xiaot623/gogo/copilot/internal/patch"
	"github.com/xiaot623/gogo/copilot/internal/prompt"
	"github.com/xiaot623/gogo/copilot/internal/service"
	"github.com/xiaot623/gogo/copilot/internal/workspace"
	"github.com/xiaot623/gogo/copilot/policy"
	"github.com/xiaot623/gogo/copilot/tests/helpers"
)

// scriptedLLM always answers with the same text, or fails.
type scriptedLLM struct {
	answer string
	err    error
}

func (s *scriptedLLM) CreateChatCompletion(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ChatCompletionResponse{
		Choices: []llm.Choice{{Message: &llm.ChatMessage{Role: llm.RoleAssistant, Content: s.answer}}},
	}, nil
}

func (s *scriptedLLM) ListModels(ctx context.Context) ([]llm.Model, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []llm.Model{{ID: "gpt-4o-mini"}}, nil
}

func newTestHandler(t *testing.T, client llm.LLMClient) *Handler {
	t.Helper()
	cfg := config.Default()
	db := helpers.NewTestSQLiteStore(t)
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	lister, err := workspace.NewLister(cfg.ExcludePatterns)
	if err != nil {
		t.Fatalf("NewLister failed: %v", err)
	}
	logger := logging.Discard()
	applier := patch.NewApplier(db, workspace.NewLocker(), policyEngine, nil, logger)
	svc := service.New(db, client, prompt.NewAssembler(0), applier, lister, cfg, logger)
	return NewHandler(svc)
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAskValidation(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, &scriptedLLM{answer: "x"})

	for _, body := range []string{`{"question":"hi"}`, `{"session_id":"s1"}`, `{"session_id":"s1","question":"hi"}`, `not json`} {
		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/api/chat/ask/", body), rec)

		if err := h.Ask(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestAskAppliesEditsAndReportsChanges(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, &scriptedLLM{answer: "Done.\nNew hello.py:\n```python\nprint('hi')\n```"})
	dir := t.TempDir()

	body := fmt.Sprintf(`{"session_id":"s1","question":"add hello.py","selected_files":[],"directory_path":%q}`, dir)
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/chat/ask/", body), rec)

	if err := h.Ask(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp domain.AskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	assert.Contains(t, resp.Answer, "New hello.py:")
	if len(resp.Changes) != 1 || resp.Changes[0].Status != domain.ChangeStatusApplied {
		t.Fatalf("unexpected changes: %+v", resp.Changes)
	}

	data, err := os.ReadFile(filepath.Join(dir, "hello.py"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	assert.Equal(t, "print('hi')", string(data))

	// History shows the exchange.
	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/chat/history/s1", nil), rec)
	c.SetParamNames("session_id")
	c.SetParamValues("s1")
	if err := h.GetHistory(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var history domain.HistoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(history.Exchanges) != 1 || history.Exchanges[0].Question != "add hello.py" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestAskUpstreamFailureIsBadGateway(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, &scriptedLLM{err: errors.New("timeout")})

	rec := httptest.NewRecorder()
	body := fmt.Sprintf(`{"session_id":"s1","question":"hi","directory_path":%q}`, t.TempDir())
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/chat/ask", body), rec)

	if err := h.Ask(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestRevertFileFlow(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, &scriptedLLM{answer: "Modified a.py:\nnew"})
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	body := fmt.Sprintf(`{"session_id":"s1","question":"change a.py","directory_path":%q}`, dir)
	rec := httptest.NewRecorder()
	if err := h.Ask(e.NewContext(jsonRequest(http.MethodPost, "/api/chat/ask/", body), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	// Modified files lists the path.
	rec = httptest.NewRecorder()
	target := "/api/files/modified-files/?directory_path=" + url.QueryEscape(dir)
	if err := h.ListModifiedFiles(e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var modified []domain.ModifiedFile
	if err := json.Unmarshal(rec.Body.Bytes(), &modified); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(modified) != 1 || modified[0].FilePath != workspace.Key(path) {
		t.Fatalf("unexpected modified files: %+v", modified)
	}

	// Revert through the query parameter.
	rec = httptest.NewRecorder()
	target = "/api/files/revert-file/?file_path=" + url.QueryEscape(path)
	if err := h.RevertFile(e.NewContext(httptest.NewRequest(http.MethodPost, target, nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data, _ := os.ReadFile(path)
	assert.Equal(t, "old", string(data))

	// A second revert through the JSON body has nothing left.
	rec = httptest.NewRecorder()
	req := jsonRequest(http.MethodPost, "/api/files/revert-file/", fmt.Sprintf(`{"file_path":%q}`, path))
	if err := h.RevertFile(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	assert.Contains(t, rec.Body.String(), "no previous version found")
}

func TestRevertFileRequiresPath(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, &scriptedLLM{})

	rec := httptest.NewRecorder()
	if err := h.RevertFile(e.NewContext(httptest.NewRequest(http.MethodPost, "/api/files/revert-file/", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSelectDirectory(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, &scriptedLLM{})
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.py"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/files/select-directory/", fmt.Sprintf(`{"path":%q}`, dir)), rec)
	if err := h.SelectDirectory(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp domain.SelectDirectoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Files) != 1 || resp.Files[0].Name != "main.py" {
		t.Fatalf("unexpected tree: %+v", resp)
	}

	rec = httptest.NewRecorder()
	missing := filepath.Join(dir, "missing")
	c = e.NewContext(jsonRequest(http.MethodPost, "/api/files/select-directory/", fmt.Sprintf(`{"path":%q}`, missing)), rec)
	if err := h.SelectDirectory(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	assert.JSONEq(t, `{"error":"Directory does not exist."}`, rec.Body.String())
}

func TestSessionsAndModels(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, &scriptedLLM{})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/chat/sessions", `{"session_id":"s1","chat_name":"first"}`), rec)
	if err := h.CreateSession(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	if err := h.ListSessions(e.NewContext(httptest.NewRequest(http.MethodGet, "/api/chat/sessions", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var sessions struct {
		Sessions []domain.Session `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sessions.Sessions) != 1 || sessions.Sessions[0].Name != "first" {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}

	rec = httptest.NewRecorder()
	if err := h.ListModels(e.NewContext(httptest.NewRequest(http.MethodGet, "/api/chat/models", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assert.Contains(t, rec.Body.String(), "gpt-4o-mini")
}

func TestErrorStatus(t *testing.T) {
	cases := map[error]int{
		domain.ErrInvalidRequest:                                      http.StatusBadRequest,
		fmt.Errorf("wrap: %w", domain.ErrPathEscape):                  http.StatusBadRequest,
		domain.ErrNoHistoryFound:                                      http.StatusNotFound,
		fmt.Errorf("%w: boom", domain.ErrUpstreamModel):               http.StatusBadGateway,
		&domain.FileError{Op: "read", Path: "x", Err: os.ErrNotExist}: http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, errorStatus(err), err.Error())
	}
}

func TestRoutesRegistered(t *testing.T) {
	e := echo.New()
	newTestHandler(t, &scriptedLLM{}).RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/history/unknown", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	assert.JSONEq(t, `{"session_id":"unknown","history":[]}`, rec.Body.String())
}

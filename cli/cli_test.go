package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/copilot/internal/domain"
)

func init() {
	color.NoColor = true
}

func TestWSURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8000/ws", wsURL("http://localhost:8000"))
	assert.Equal(t, "wss://copilot.example/ws", wsURL("https://copilot.example/"))
}

func TestAPIClientAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/ask/", r.URL.Path)
		var req domain.AskRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "s1", req.SessionID)

		json.NewEncoder(w).Encode(domain.AskResponse{
			Answer:  "done",
			Changes: []domain.Change{{Action: domain.ActionCreate, Path: "a.py", Status: domain.ChangeStatusApplied}},
		})
	}))
	defer srv.Close()

	resp, err := NewAPIClient(srv.URL, time.Second).Ask(context.Background(), domain.AskRequest{SessionID: "s1", Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, "done", resp.Answer)
	require.Len(t, resp.Changes, 1)
}

func TestAPIClientErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/some/file.py", r.URL.Query().Get("file_path"))
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"no previous version found for this file"}`))
	}))
	defer srv.Close()

	_, err := NewAPIClient(srv.URL, time.Second).Revert(context.Background(), "/some/file.py")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no previous version found")
	assert.Contains(t, err.Error(), "404")
}

func TestRenderAnswer(t *testing.T) {
	out := renderAnswer("ok", []domain.Change{
		{Action: domain.ActionModify, Path: "a.py", Status: domain.ChangeStatusApplied},
		{Action: domain.ActionCreate, Path: ".env", Status: domain.ChangeStatusBlocked},
		{Action: domain.ActionCreate, Path: "x/y.py", Status: domain.ChangeStatusFailed, Error: "no such directory"},
	})
	assert.True(t, strings.HasPrefix(out, "ok\n"))
	assert.Contains(t, out, "✓ modify a.py")
	assert.Contains(t, out, "! create .env (blocked)")
	assert.Contains(t, out, "✗ create x/y.py no such directory")

	assert.Equal(t, "plain\n", renderAnswer("plain", nil))
}

func TestRenderTree(t *testing.T) {
	out := renderTree([]domain.TreeNode{
		{Name: "src", Type: domain.NodeTypeFolder, Children: []domain.TreeNode{{Name: "main.py", Type: domain.NodeTypeFile}}},
		{Name: "README.md", Type: domain.NodeTypeFile},
	})
	assert.Equal(t, "src/\n  main.py\nREADME.md\n", out)
}

type recordingSender struct {
	asks     []string
	history  int
	reverted []string
}

func (r *recordingSender) Ask(question, dir string) error {
	r.asks = append(r.asks, question+"@"+dir)
	return nil
}

func (r *recordingSender) RequestHistory() error {
	r.history++
	return nil
}

func (r *recordingSender) Revert(path string) error {
	r.reverted = append(r.reverted, path)
	return nil
}

func TestChatLoopDispatch(t *testing.T) {
	sender := &recordingSender{}
	in := strings.NewReader("hello\n\n/history\n/revert a.py\n/quit\nignored\n")

	err := chatLoop(context.Background(), sender, in, "/proj", make(chan error))
	require.NoError(t, err)
	assert.Equal(t, []string{"hello@/proj"}, sender.asks)
	assert.Equal(t, 1, sender.history)
	assert.Equal(t, []string{"a.py"}, sender.reverted)
}

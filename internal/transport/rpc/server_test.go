package rpc

import (
	"context"
	"net/rpc/jsonrpc"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/copilot/internal/adapter/llm"
	"github.com/xiaot623/gogo/copilot/internal/config"
	"github.com/xiaot623/gogo/copilot/internal/domain"
	"github.com/xiaot623/gogo/copilot/internal/logging"
	"github.com/xiaot623/gogo/copilot/internal/patch"
	"github.com/xiaot623/gogo/copilot/internal/prompt"
	"github.com/xiaot623/gogo/copilot/internal/service"
	"github.com/xiaot623/gogo/copilot/internal/workspace"
	"github.com/xiaot623/gogo/copilot/tests/helpers"
)

type fixedLLM struct{ answer string }

func (f fixedLLM) CreateChatCompletion(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	return &llm.ChatCompletionResponse{
		Choices: []llm.Choice{{Message: &llm.ChatMessage{Role: llm.RoleAssistant, Content: f.answer}}},
	}, nil
}

func (f fixedLLM) ListModels(ctx context.Context) ([]llm.Model, error) {
	return nil, nil
}

func startServer(t *testing.T, answer string) *Server {
	t.Helper()
	cfg := config.Default()
	db := helpers.NewTestSQLiteStore(t)
	lister, err := workspace.NewLister(nil)
	require.NoError(t, err)
	logger := logging.Discard()
	applier := patch.NewApplier(db, workspace.NewLocker(), nil, nil, logger)
	svc := service.New(db, fixedLLM{answer: answer}, prompt.NewAssembler(0), applier, lister, cfg, logger)

	s, err := NewServer(svc, logger)
	require.NoError(t, err)
	require.NoError(t, s.Listen("127.0.0.1:0"))
	go s.Serve()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})
	return s
}

func TestAskHistoryRevertOverJSONRPC(t *testing.T) {
	s := startServer(t, "Modified a.py:\nnew")
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	client, err := jsonrpc.Dial("tcp", s.Addr())
	require.NoError(t, err)
	defer client.Close()

	var ask domain.AskResponse
	require.NoError(t, client.Call("Copilot.Ask", &domain.AskRequest{
		SessionID:     "s1",
		Question:      "change a.py",
		DirectoryPath: dir,
	}, &ask))
	require.Len(t, ask.Changes, 1)
	assert.Equal(t, domain.ChangeStatusApplied, ask.Changes[0].Status)

	var history domain.HistoryResponse
	require.NoError(t, client.Call("Copilot.History", &HistoryRequest{SessionID: "s1"}, &history))
	require.Len(t, history.Exchanges, 1)

	var modified ListModifiedResponse
	require.NoError(t, client.Call("Copilot.ListModified", &ListModifiedRequest{DirectoryPath: dir}, &modified))
	require.Len(t, modified.Files, 1)

	var reverted domain.RevertResponse
	require.NoError(t, client.Call("Copilot.Revert", &domain.RevertRequest{FilePath: path}, &reverted))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	err = client.Call("Copilot.Revert", &domain.RevertRequest{FilePath: path}, &reverted)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrNoHistoryFound.Error())
}

func TestAskValidationOverJSONRPC(t *testing.T) {
	s := startServer(t, "")

	client, err := jsonrpc.Dial("tcp", s.Addr())
	require.NoError(t, err)
	defer client.Close()

	var resp domain.AskResponse
	err = client.Call("Copilot.Ask", &domain.AskRequest{Question: "hi"}, &resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session_id is required")
}

func TestServeWithoutListen(t *testing.T) {
	s, err := NewServer(nil, logging.Discard())
	require.NoError(t, err)
	assert.Error(t, s.Serve())
	assert.Equal(t, "", s.Addr())
	assert.NoError(t, s.Shutdown(context.Background()))
}

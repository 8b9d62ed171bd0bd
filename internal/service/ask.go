package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/xiaot623/gogo/copilot/internal/adapter/llm"
	"github.com/xiaot623/gogo/copilot/internal/directive"
	"github.com/xiaot623/gogo/copilot/internal/domain"
)

// sessionNameLen bounds the name given to sessions created implicitly by Ask.
const sessionNameLen = 60

// Ask runs one conversation turn. A model failure returns ErrUpstreamModel
// and leaves files, history and the exchange log untouched. Once the answer
// is in hand, edits and the exchange append complete even if ctx is
// cancelled.
func (s *Service) Ask(ctx context.Context, req domain.AskRequest) (*domain.AskResponse, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, fmt.Errorf("%w: session_id is required", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Question) == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidRequest)
	}

	root, err := s.resolveDirectory(req.DirectoryPath)
	if err != nil {
		return nil, err
	}

	requestID := "ask_" + uuid.New().String()[:8]
	logger := s.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": req.SessionID,
	})

	history, err := s.store.ListExchanges(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchanges: %w", err)
	}

	promptText, err := s.assembler.Assemble(history, req.Question, req.SelectedFiles, root)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	answer, err := s.complete(ctx, promptText)
	if err != nil {
		logger.WithError(err).Warn("model call failed")
		return nil, err
	}
	logger.WithField("latency_ms", time.Since(startTime).Milliseconds()).Debug("model answered")

	// From here on the turn is committed.
	ctx = context.WithoutCancel(ctx)

	directives := directive.Extract(answer)
	changes := s.applier.Apply(ctx, root, directives)

	if _, err := s.store.GetOrCreateSession(ctx, req.SessionID, sessionName(req.Question)); err != nil {
		return nil, fmt.Errorf("failed to get/create session: %w", err)
	}

	exchange := &domain.Exchange{
		ExchangeID: ulid.Make().String(),
		SessionID:  req.SessionID,
		Question:   req.Question,
		Answer:     answer,
		Path:       req.DirectoryPath,
		CreatedAt:  time.Now(),
	}
	if err := s.store.AppendExchange(ctx, exchange); err != nil {
		return nil, fmt.Errorf("failed to append exchange: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"exchange_id": exchange.ExchangeID,
		"directives":  len(directives),
	}).Info("ask completed")

	return &domain.AskResponse{
		Answer:     answer,
		ExchangeID: exchange.ExchangeID,
		Changes:    changes,
	}, nil
}

func (s *Service) complete(ctx context.Context, promptText string) (string, error) {
	var messages []llm.ChatMessage
	if s.config.SystemPrompt != "" {
		messages = append(messages, llm.ChatMessage{Role: llm.RoleSystem, Content: s.config.SystemPrompt})
	}
	messages = append(messages, llm.ChatMessage{Role: llm.RoleUser, Content: promptText})

	resp, err := s.llmClient.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Model:    s.config.LLMModel,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamModel, err)
	}

	answer, ok := resp.FirstContent()
	if !ok {
		return "", fmt.Errorf("%w: response has no choices", domain.ErrUpstreamModel)
	}
	return answer, nil
}

func sessionName(question string) string {
	name := strings.TrimSpace(strings.SplitN(question, "\n", 2)[0])
	if r := []rune(name); len(r) > sessionNameLen {
		name = string(r[:sessionNameLen]) + "..."
	}
	return name
}

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/xiaot623/gogo/copilot/internal/domain"
)

// GetHistory returns the exchanges of a session in the order they were
// recorded. An unknown session has an empty history.
func (s *Service) GetHistory(ctx context.Context, sessionID string) (*domain.HistoryResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: session_id is required", domain.ErrInvalidRequest)
	}

	exchanges, err := s.store.ListExchanges(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchanges: %w", err)
	}
	if exchanges == nil {
		exchanges = []domain.Exchange{}
	}

	return &domain.HistoryResponse{SessionID: sessionID, Exchanges: exchanges}, nil
}

// CreateSession creates a named session. An existing session with the same
// id is returned unchanged.
func (s *Service) CreateSession(ctx context.Context, req domain.CreateSessionRequest) (*domain.Session, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = "sess_" + uuid.New().String()[:8]
	}

	session, err := s.store.GetOrCreateSession(ctx, sessionID, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get/create session: %w", err)
	}
	return session, nil
}

// ListSessions returns every session, oldest first.
func (s *Service) ListSessions(ctx context.Context) ([]domain.Session, error) {
	sessions, err := s.store.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	return sessions, nil
}

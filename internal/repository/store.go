// Package repository persists sessions, exchanges and file snapshots.
package repository

import (
	"context"

	"github.com/xiaot623/gogo/copilot/internal/domain"
)

// ExchangeLog is the append-only record of question/answer pairs.
type ExchangeLog interface {
	AppendExchange(ctx context.Context, exchange *domain.Exchange) error
	// ListExchanges returns the exchanges of a session in insertion order.
	ListExchanges(ctx context.Context, sessionID string) ([]domain.Exchange, error)
}

// HistoryStore keeps at most one snapshot per file path.
type HistoryStore interface {
	// SaveSnapshot replaces any snapshot already stored for the same path.
	SaveSnapshot(ctx context.Context, snapshot *domain.FileSnapshot) error
	// GetSnapshot returns nil when the path has no snapshot.
	GetSnapshot(ctx context.Context, filePath string) (*domain.FileSnapshot, error)
	DeleteSnapshot(ctx context.Context, filePath string) error
	ListSnapshots(ctx context.Context) ([]domain.ModifiedFile, error)
}

// Store defines the interface for data persistence.
type Store interface {
	ExchangeLog
	HistoryStore

	// Session operations
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	GetOrCreateSession(ctx context.Context, sessionID, name string) (*domain.Session, error)
	ListSessions(ctx context.Context) ([]domain.Session, error)

	// Lifecycle
	Close() error
}

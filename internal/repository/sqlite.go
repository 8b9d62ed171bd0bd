package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/xiaot623/gogo/copilot/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS exchanges (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			exchange_id TEXT NOT NULL UNIQUE,
			session_id TEXT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			path TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session_id, seq)`,
		// One row per path: the primary key is what makes history single-slot.
		`CREATE TABLE IF NOT EXISTS file_history (
			file_path TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession creates a new session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, name, created_at) VALUES (?, ?, ?)`,
		session.SessionID, session.Name, session.CreatedAt)
	return err
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, name, created_at FROM sessions WHERE session_id = ?`,
		sessionID).Scan(&session.SessionID, &session.Name, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetOrCreateSession gets an existing session or creates a new one.
func (s *SQLiteStore) GetOrCreateSession(ctx context.Context, sessionID, name string) (*domain.Session, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (session_id, name, created_at) VALUES (?, ?, ?)`,
		sessionID, name, time.Now()); err != nil {
		return nil, err
	}
	return s.GetSession(ctx, sessionID)
}

// ListSessions returns all sessions, oldest first.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, name, created_at FROM sessions ORDER BY created_at ASC, session_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var session domain.Session
		if err := rows.Scan(&session.SessionID, &session.Name, &session.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// AppendExchange records a question/answer pair. The session must exist.
func (s *SQLiteStore) AppendExchange(ctx context.Context, exchange *domain.Exchange) error {
	var path sql.NullString
	if exchange.Path != "" {
		path = sql.NullString{String: exchange.Path, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (exchange_id, session_id, question, answer, path, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		exchange.ExchangeID, exchange.SessionID, exchange.Question, exchange.Answer, path, exchange.CreatedAt)
	return err
}

// ListExchanges retrieves the exchanges of a session in insertion order.
func (s *SQLiteStore) ListExchanges(ctx context.Context, sessionID string) ([]domain.Exchange, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT exchange_id, session_id, question, answer, path, created_at FROM exchanges WHERE session_id = ? ORDER BY seq ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exchanges []domain.Exchange
	for rows.Next() {
		var ex domain.Exchange
		var path sql.NullString
		if err := rows.Scan(&ex.ExchangeID, &ex.SessionID, &ex.Question, &ex.Answer, &path, &ex.CreatedAt); err != nil {
			return nil, err
		}
		if path.Valid {
			ex.Path = path.String
		}
		exchanges = append(exchanges, ex)
	}
	return exchanges, rows.Err()
}

// SaveSnapshot stores the snapshot for a path, replacing the previous one.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snapshot *domain.FileSnapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO file_history (file_path, content, created_at) VALUES (?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET content = excluded.content, created_at = excluded.created_at`,
		snapshot.FilePath, snapshot.Content, snapshot.CreatedAt)
	return err
}

// GetSnapshot retrieves the snapshot for a path.
func (s *SQLiteStore) GetSnapshot(ctx context.Context, filePath string) (*domain.FileSnapshot, error) {
	var snapshot domain.FileSnapshot
	err := s.db.QueryRowContext(ctx,
		`SELECT file_path, content, created_at FROM file_history WHERE file_path = ?`,
		filePath).Scan(&snapshot.FilePath, &snapshot.Content, &snapshot.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// DeleteSnapshot removes the snapshot for a path, if any.
func (s *SQLiteStore) DeleteSnapshot(ctx context.Context, filePath string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM file_history WHERE file_path = ?`, filePath)
	return err
}

// ListSnapshots returns every path that can currently be reverted.
func (s *SQLiteStore) ListSnapshots(ctx context.Context) ([]domain.ModifiedFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_path, created_at FROM file_history ORDER BY file_path ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []domain.ModifiedFile
	for rows.Next() {
		var f domain.ModifiedFile
		if err := rows.Scan(&f.FilePath, &f.LastModified); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

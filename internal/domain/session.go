package domain

import "time"

// Session represents a conversation session.
type Session struct {
	SessionID string    `json:"session_id"`
	Name      string    `json:"chat_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Exchange is one question/answer pair recorded against a session.
// Exchanges are immutable once written.
type Exchange struct {
	ExchangeID string    `json:"exchange_id"`
	SessionID  string    `json:"session_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Path       string    `json:"path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

package ws

import "github.com/xiaot623/gogo/copilot/internal/domain"

// Message types from client to server
const (
	TypeHello   = "hello"
	TypeAsk     = "ask"
	TypeHistory = "history"
	TypeRevert  = "revert"
)

// Message types from server to client
const (
	TypeHelloAck = "hello_ack"
	TypeAnswer   = "answer"
	TypeReverted = "reverted"
	TypeError    = "error"
)

// BaseMessage contains common fields for all messages.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// HelloMessage binds the connection to a session, creating it if needed.
type HelloMessage struct {
	BaseMessage
	ChatName string `json:"chat_name,omitempty"`
}

// HelloAckMessage confirms the session the connection is bound to.
type HelloAckMessage struct {
	BaseMessage
	ChatName string `json:"chat_name,omitempty"`
}

// AskMessage asks a question within the bound session.
type AskMessage struct {
	BaseMessage
	Question      string                `json:"question"`
	SelectedFiles []domain.SelectedFile `json:"selected_files,omitempty"`
	DirectoryPath string                `json:"directory_path,omitempty"`
}

// AnswerMessage is sent to every connection of the session once a question
// has been answered and its edits applied.
type AnswerMessage struct {
	BaseMessage
	Question   string          `json:"question"`
	Answer     string          `json:"answer"`
	ExchangeID string          `json:"exchange_id"`
	Changes    []domain.Change `json:"changes"`
}

// HistoryMessage carries the exchanges of the bound session. Clients send
// it with no history to request one.
type HistoryMessage struct {
	BaseMessage
	History []domain.Exchange `json:"history"`
}

// RevertMessage asks for a file to be reverted.
type RevertMessage struct {
	BaseMessage
	FilePath string `json:"file_path"`
}

// RevertedMessage confirms a revert.
type RevertedMessage struct {
	BaseMessage
	FilePath string `json:"file_path"`
	Detail   string `json:"detail"`
}

// ErrorMessage is sent when a request fails.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrorCodeInvalidMessage  = "invalid_message"
	ErrorCodeSessionRequired = "session_required"
	ErrorCodeInvalidRequest  = "invalid_request"
	ErrorCodeNotFound        = "not_found"
	ErrorCodeUpstreamFail    = "upstream_fail"
	ErrorCodeInternalError   = "internal_error"
)

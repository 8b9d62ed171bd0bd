package domain

// AskRequest is a question about a set of files in a directory.
type AskRequest struct {
	SessionID     string         `json:"session_id"`
	Question      string         `json:"question"`
	SelectedFiles []SelectedFile `json:"selected_files"`
	DirectoryPath string         `json:"directory_path,omitempty"`
}

// AskResponse carries the model's answer and what was done with it.
type AskResponse struct {
	Answer     string   `json:"answer"`
	ExchangeID string   `json:"exchange_id,omitempty"`
	Changes    []Change `json:"changes"`
}

// Change reports the outcome of one directive.
type Change struct {
	Action Action       `json:"action"`
	Path   string       `json:"path"`
	Status ChangeStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// HistoryResponse lists the exchanges of a session.
type HistoryResponse struct {
	SessionID string     `json:"session_id"`
	Exchanges []Exchange `json:"history"`
}

// RevertRequest identifies the file to restore.
type RevertRequest struct {
	FilePath string `json:"file_path"`
}

// RevertResponse is returned after a successful revert.
type RevertResponse struct {
	FilePath string `json:"file_path"`
	Detail   string `json:"detail"`
}

// CreateSessionRequest creates a named session.
type CreateSessionRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Name      string `json:"chat_name"`
}

// SelectDirectoryRequest asks for the tree under a directory.
type SelectDirectoryRequest struct {
	Path string `json:"path"`
}

// SelectDirectoryResponse is the directory tree, or an error message.
type SelectDirectoryResponse struct {
	Files []TreeNode `json:"files,omitempty"`
	Error string     `json:"error,omitempty"`
}

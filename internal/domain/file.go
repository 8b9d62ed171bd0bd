package domain

import "time"

// SelectedFile is a file the caller wants the model to see.
type SelectedFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Directive is one parsed instruction to create or modify a file.
// Content is the raw block as it appeared in the answer.
type Directive struct {
	Action  Action `json:"action"`
	Path    string `json:"path"`
	Content string `json:"content"`
}

// FileSnapshot is the content a file had right before its most recent
// modification. At most one snapshot exists per path.
type FileSnapshot struct {
	FilePath  string    `json:"file_path"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ModifiedFile is a path that currently has a snapshot to revert to.
type ModifiedFile struct {
	FilePath     string    `json:"file_path"`
	LastModified time.Time `json:"last_modified"`
}

// TreeNode is one entry of a directory listing.
type TreeNode struct {
	Name     string     `json:"name"`
	Type     NodeType   `json:"type"`
	Children []TreeNode `json:"children"`
}

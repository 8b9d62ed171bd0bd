// Package domain defines the core domain models for the copilot service.
package domain

// Action is the kind of file edit a directive asks for.
type Action string

const (
	ActionCreate Action = "create"
	ActionModify Action = "modify"
)

// ChangeStatus is the outcome of applying one directive.
type ChangeStatus string

const (
	ChangeStatusApplied ChangeStatus = "applied"
	ChangeStatusFailed  ChangeStatus = "failed"
	ChangeStatusBlocked ChangeStatus = "blocked"
)

// NodeType distinguishes entries in a directory tree.
type NodeType string

const (
	NodeTypeFile   NodeType = "file"
	NodeTypeFolder NodeType = "folder"
)

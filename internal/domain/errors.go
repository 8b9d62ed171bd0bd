package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamModel means the language model call failed or returned no answer.
	ErrUpstreamModel = errors.New("upstream model error")
	// ErrNoHistoryFound means a revert was requested for a path with no snapshot.
	ErrNoHistoryFound = errors.New("no previous version found for this file")
	// ErrPathEscape means a path resolves outside of its base directory.
	ErrPathEscape = errors.New("path escapes base directory")
	// ErrInvalidPath means a path is empty or otherwise unusable.
	ErrInvalidPath = errors.New("invalid path")
	// ErrDirectiveBlocked means the write policy refused a directive.
	ErrDirectiveBlocked = errors.New("directive blocked by policy")
	// ErrInvalidRequest means required request fields are missing.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrDirectoryNotFound means a directory to list does not exist.
	ErrDirectoryNotFound = errors.New("directory does not exist")
)

// File operations reported by FileError.
const (
	FileOpRead  = "read"
	FileOpWrite = "write"
)

// FileError is an I/O failure on a specific path.
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	verb := e.Op
	switch e.Op {
	case FileOpRead:
		verb = "reading"
	case FileOpWrite:
		verb = "writing"
	}
	return fmt.Sprintf("error %s file %s: %v", verb, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

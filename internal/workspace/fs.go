package workspace

import (
	"errors"
	"io/fs"
	"os"

	"github.com/xiaot623/gogo/copilot/internal/domain"
)

// ReadFile returns the content of path as text.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &domain.FileError{Op: domain.FileOpRead, Path: path, Err: err}
	}
	return string(data), nil
}

// WriteFile replaces the content of path. Parent directories must exist.
func WriteFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return &domain.FileError{Op: domain.FileOpWrite, Path: path, Err: err}
	}
	return nil
}

// ReadIfExists returns the content of path and whether it existed.
func ReadIfExists(path string) (string, bool, error) {
	content, err := ReadFile(path)
	if err == nil {
		return content, true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	return "", false, err
}

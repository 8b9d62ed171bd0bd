// Package workspace is the filesystem side of the copilot: path resolution
// under a directory root, file reads and writes, per-path locking and
// directory listings.
package workspace

import (
	"path/filepath"
	"strings"

	"github.com/xiaot623/gogo/copilot/internal/domain"
)

// Normalize converts either separator style to the OS one and collapses
// "." and ".." segments.
func Normalize(p string) string {
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	return filepath.Clean(filepath.FromSlash(p))
}

// Key is the form a path takes in storage: normalized, absolute when
// possible, forward slashes.
func Key(p string) string {
	p = Normalize(p)
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return filepath.ToSlash(p)
}

// SafeJoin joins a base directory with a relative path, ensuring the result
// stays within the base directory. A leading separator on rel is treated as
// relative to base. Returns the absolute path.
func SafeJoin(base, rel string) (string, error) {
	rel = strings.ReplaceAll(rel, "\\", "/")
	if strings.TrimSpace(rel) == "" || strings.ContainsRune(rel, '\x00') {
		return "", domain.ErrInvalidPath
	}

	joined := filepath.Join(Normalize(base), filepath.FromSlash(rel))

	absJoined, err := filepath.Abs(joined)
	if err != nil {
		return "", err
	}

	ok, err := IsWithin(base, absJoined)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrPathEscape
	}
	return absJoined, nil
}

// IsWithin checks if target is base itself or lies below it.
// Both paths are resolved to absolute before comparison.
func IsWithin(base, target string) (bool, error) {
	absBase, err := filepath.Abs(Normalize(base))
	if err != nil {
		return false, err
	}
	absTarget, err := filepath.Abs(Normalize(target))
	if err != nil {
		return false, err
	}

	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil {
		return false, err
	}

	// "..." or "..foo" are valid names, not traversals
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false, nil
	}
	return true, nil
}

// HasPrefixDir reports whether key lies at or below dir, comparing the
// storage forms of both so separator style does not matter.
func HasPrefixDir(key, dir string) bool {
	key = filepath.ToSlash(Normalize(key))
	dir = strings.TrimSuffix(filepath.ToSlash(Normalize(dir)), "/")
	if dir == "" {
		return true
	}
	return key == dir || strings.HasPrefix(key, dir+"/")
}

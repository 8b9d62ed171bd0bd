package workspace

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/xiaot623/gogo/copilot/internal/domain"
)

// DefaultExcludes are skipped when listing a directory.
var DefaultExcludes = []string{"**/node_modules", "**/venv"}

// Lister builds directory trees for the file browser.
type Lister struct {
	exclude []string
}

// NewLister validates the exclude patterns (doublestar syntax, matched
// against slash-separated paths relative to the listed directory).
func NewLister(exclude []string) (*Lister, error) {
	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return &Lister{exclude: exclude}, nil
}

// Tree returns the entries under dir, recursively.
func (l *Lister) Tree(dir string) ([]domain.TreeNode, error) {
	dir = Normalize(dir)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, domain.ErrDirectoryNotFound
	}
	return l.walk(dir, "")
}

func (l *Lister) walk(dir, rel string) ([]domain.TreeNode, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &domain.FileError{Op: domain.FileOpRead, Path: dir, Err: err}
	}

	children := []domain.TreeNode{}
	for _, entry := range entries {
		entryRel := path.Join(rel, entry.Name())
		if l.excluded(entryRel) {
			continue
		}

		if !entry.IsDir() {
			children = append(children, domain.TreeNode{
				Name:     entry.Name(),
				Type:     domain.NodeTypeFile,
				Children: []domain.TreeNode{},
			})
			continue
		}

		sub, err := l.walk(filepath.Join(dir, entry.Name()), entryRel)
		if err != nil {
			return nil, err
		}
		children = append(children, domain.TreeNode{
			Name:     entry.Name(),
			Type:     domain.NodeTypeFolder,
			Children: sub,
		})
	}
	return children, nil
}

func (l *Lister) excluded(rel string) bool {
	for _, p := range l.exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xiaot623/gogo/copilot/internal/domain"
	"github.com/xiaot623/gogo/copilot/internal/workspace"
)

// Revert restores the content a file had before its most recent modification.
func (s *Service) Revert(ctx context.Context, filePath string) (*domain.RevertResponse, error) {
	path, err := s.resolveFile(filePath)
	if err != nil {
		return nil, err
	}

	if err := s.applier.Revert(ctx, path); err != nil {
		return nil, err
	}

	return &domain.RevertResponse{
		FilePath: workspace.Key(path),
		Detail:   "File reverted successfully.",
	}, nil
}

// ListModified returns the files that can currently be reverted, limited to
// those under dir when dir is non-empty.
func (s *Service) ListModified(ctx context.Context, dir string) ([]domain.ModifiedFile, error) {
	snapshots, err := s.store.ListSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	prefix := ""
	if strings.TrimSpace(dir) != "" {
		prefix = workspace.Key(dir)
	}

	files := make([]domain.ModifiedFile, 0, len(snapshots))
	for _, snap := range snapshots {
		if workspace.HasPrefixDir(snap.FilePath, prefix) {
			files = append(files, snap)
		}
	}
	return files, nil
}

// SelectDirectory returns the tree of files under dir.
func (s *Service) SelectDirectory(ctx context.Context, dir string) ([]domain.TreeNode, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: path is required", domain.ErrInvalidRequest)
	}

	root, err := s.resolveDirectory(dir)
	if err != nil {
		return nil, err
	}
	return s.lister.Tree(root)
}

// resolveDirectory maps a caller supplied directory onto the filesystem.
// With a configured root, relative paths are taken from the root and
// absolute ones must lie inside it.
func (s *Service) resolveDirectory(dir string) (string, error) {
	root := s.config.RootDir
	if strings.TrimSpace(dir) == "" {
		if root == "" {
			return "", fmt.Errorf("%w: directory_path is required", domain.ErrInvalidRequest)
		}
		return workspace.Normalize(root), nil
	}
	if root == "" {
		return workspace.Normalize(dir), nil
	}
	return s.within(root, dir)
}

func (s *Service) resolveFile(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: file_path is required", domain.ErrInvalidRequest)
	}
	if s.config.RootDir == "" {
		return workspace.Normalize(path), nil
	}
	return s.within(s.config.RootDir, path)
}

func (s *Service) within(root, path string) (string, error) {
	normalized := workspace.Normalize(path)
	if !filepath.IsAbs(normalized) {
		return workspace.SafeJoin(root, path)
	}

	ok, err := workspace.IsWithin(root, normalized)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrPathEscape
	}
	return normalized, nil
}

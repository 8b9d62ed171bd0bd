// Package patch applies edit directives to files on disk and keeps one level
// of history so the most recent modification of a file can be reverted.
package patch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xiaot623/gogo/copilot/internal/directive"
	"github.com/xiaot623/gogo/copilot/internal/domain"
	"github.com/xiaot623/gogo/copilot/internal/repository"
	"github.com/xiaot623/gogo/copilot/internal/workspace"
	"github.com/xiaot623/gogo/copilot/policy"
)

// Policy decides whether a directive may be written.
type Policy interface {
	Evaluate(ctx context.Context, input policy.Input) (string, error)
}

// Applier writes directives and maintains the history store.
type Applier struct {
	history   repository.HistoryStore
	locker    *workspace.Locker
	policy    Policy
	sanitizer *directive.Sanitizer
	logger    logrus.FieldLogger
	now       func() time.Time
}

// NewApplier creates an Applier. A nil policy allows every directive and a
// nil sanitizer uses the default fence language.
func NewApplier(history repository.HistoryStore, locker *workspace.Locker, p Policy, sanitizer *directive.Sanitizer, logger logrus.FieldLogger) *Applier {
	if locker == nil {
		locker = workspace.NewLocker()
	}
	if sanitizer == nil {
		sanitizer = directive.NewSanitizer()
	}
	return &Applier{
		history:   history,
		locker:    locker,
		policy:    p,
		sanitizer: sanitizer,
		logger:    logger,
		now:       time.Now,
	}
}

// Apply executes directives in order against root. A failing directive is
// logged and reported; the remaining ones still run and nothing is rolled
// back.
func (a *Applier) Apply(ctx context.Context, root string, directives []domain.Directive) []domain.Change {
	changes := make([]domain.Change, 0, len(directives))
	for _, d := range directives {
		change := domain.Change{Action: d.Action, Path: d.Path, Status: domain.ChangeStatusApplied}
		if err := a.applyOne(ctx, root, d); err != nil {
			change.Status = domain.ChangeStatusFailed
			if errors.Is(err, domain.ErrDirectiveBlocked) {
				change.Status = domain.ChangeStatusBlocked
			}
			change.Error = err.Error()
			a.logger.WithFields(logrus.Fields{
				"action": d.Action,
				"path":   d.Path,
				"status": change.Status,
			}).WithError(err).Warn("directive not applied")
		}
		changes = append(changes, change)
	}
	return changes
}

func (a *Applier) applyOne(ctx context.Context, root string, d domain.Directive) error {
	target, err := workspace.SafeJoin(root, d.Path)
	if err != nil {
		return &domain.FileError{Op: domain.FileOpWrite, Path: d.Path, Err: err}
	}

	if err := a.checkPolicy(ctx, root, target, d); err != nil {
		return err
	}

	body := a.sanitizer.Clean(d.Content)
	key := workspace.Key(target)

	unlock := a.locker.Lock(key)
	defer unlock()

	switch d.Action {
	case domain.ActionCreate:
		return workspace.WriteFile(target, body)
	case domain.ActionModify:
		previous, exists, err := workspace.ReadIfExists(target)
		if err != nil {
			return err
		}
		if exists {
			if err := a.history.SaveSnapshot(ctx, &domain.FileSnapshot{
				FilePath:  key,
				Content:   previous,
				CreatedAt: a.now(),
			}); err != nil {
				return fmt.Errorf("failed to save snapshot: %w", err)
			}
		}
		return workspace.WriteFile(target, body)
	default:
		return fmt.Errorf("unknown action %q", d.Action)
	}
}

func (a *Applier) checkPolicy(ctx context.Context, root, target string, d domain.Directive) error {
	if a.policy == nil {
		return nil
	}

	rel := d.Path
	if absRoot, err := filepath.Abs(workspace.Normalize(root)); err == nil {
		if r, err := filepath.Rel(absRoot, target); err == nil {
			rel = r
		}
	}

	decision, err := a.policy.Evaluate(ctx, policy.Input{
		Action:       string(d.Action),
		Path:         workspace.Key(target),
		RelativePath: filepath.ToSlash(rel),
		Root:         workspace.Key(root),
	})
	if err != nil {
		return err
	}
	if decision == policy.DecisionBlock {
		return fmt.Errorf("%s %s: %w", d.Action, d.Path, domain.ErrDirectiveBlocked)
	}
	return nil
}

// Revert restores the content path had before its most recent modification
// and discards the snapshot. Without a snapshot it returns ErrNoHistoryFound.
func (a *Applier) Revert(ctx context.Context, path string) error {
	key := workspace.Key(path)
	if key == "" {
		return domain.ErrInvalidPath
	}

	unlock := a.locker.Lock(key)
	defer unlock()

	snapshot, err := a.history.GetSnapshot(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to get snapshot: %w", err)
	}
	if snapshot == nil {
		return domain.ErrNoHistoryFound
	}

	if err := workspace.WriteFile(filepath.FromSlash(key), snapshot.Content); err != nil {
		return err
	}
	if err := a.history.DeleteSnapshot(ctx, key); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	a.logger.WithField("path", key).Info("file reverted")
	return nil
}

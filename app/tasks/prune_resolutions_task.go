package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/post-relay/app/database"
)

type PruneResolutionsTask struct {
	Task
	Retention time.Duration
	repo      database.ResolutionRepository
	now       func() time.Time
}

func NewPruneResolutionsTask(retention time.Duration, repo database.ResolutionRepository) *PruneResolutionsTask {
	return &PruneResolutionsTask{
		Task:      NewTask(TaskTypePruneResolutions, "resolutions"),
		Retention: retention,
		repo:      repo,
		now:       time.Now,
	}
}

func (t *PruneResolutionsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if t.Retention <= 0 {
		slog.Debug("Resolution log retention disabled, skipping prune")
		return nil
	}

	cutoff := t.now().UTC().Add(-t.Retention)
	deleted, err := t.repo.DeleteResolutionsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune resolution log: %w", err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"cutoff", cutoff.Format(time.RFC3339),
		"deleted", deleted,
		"duration", t.GetDuration())

	return nil
}

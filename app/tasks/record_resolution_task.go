package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/post-relay/app/database"
)

type RecordResolutionTask struct {
	Task
	Resolution database.Resolution
	repo       database.ResolutionRepository
	observer   WriteObserver
}

func NewRecordResolutionTask(resolution database.Resolution, repo database.ResolutionRepository, observer WriteObserver) *RecordResolutionTask {
	return &RecordResolutionTask{
		Task:       NewTask(TaskTypeRecordResolution, resolution.Path),
		Resolution: resolution,
		repo:       repo,
		observer:   observer,
	}
}

func (t *RecordResolutionTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := t.repo.InsertResolution(ctx, t.Resolution)
	if t.observer != nil {
		t.observer.ObserveLogWrite(err)
	}
	if err != nil {
		return fmt.Errorf("failed to record resolution: %w", err)
	}

	slog.Debug("Task completed",
		"type", t.GetType(),
		"path", t.Resolution.Path,
		"outcome", t.Resolution.Outcome,
		"duration", t.GetDuration())

	return nil
}

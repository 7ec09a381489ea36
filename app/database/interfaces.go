package database

import (
	"context"
	"time"
)

type ResolutionRepository interface {
	InsertResolution(ctx context.Context, resolution Resolution) error
	GetRecentResolutions(ctx context.Context, limit int) ([]Resolution, error)
	GetResolutionStats(ctx context.Context) (*ResolutionStats, error)
	GetResolutionCount(ctx context.Context) (int, error)
	DeleteResolutionsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

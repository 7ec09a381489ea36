package database

import (
	"context"
	"fmt"
	"time"
)

var _ ResolutionRepository = (*ResolutionRepo)(nil)

type ResolutionRepo struct {
	db *DB
}

func NewResolutionRepository(db *DB) *ResolutionRepo {
	return &ResolutionRepo{db: db}
}

func (r *ResolutionRepo) InsertResolution(ctx context.Context, resolution Resolution) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO resolutions (id, request_id, path, outcome, destination, referrer, tracking, host, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`, resolution.ID, resolution.RequestID, resolution.Path, resolution.Outcome, resolution.Destination,
		resolution.Referrer, resolution.Tracking, resolution.Host, resolution.CreatedAt.UTC().UnixMilli())

	if err != nil {
		return fmt.Errorf("failed to insert resolution: %w", err)
	}

	return nil
}

func (r *ResolutionRepo) GetRecentResolutions(ctx context.Context, limit int) ([]Resolution, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, request_id, path, outcome, destination, referrer, tracking, host, created_at
		FROM resolutions
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent resolutions: %w", err)
	}
	defer rows.Close()

	var resolutions []Resolution
	for rows.Next() {
		var resolution Resolution
		var createdAt int64
		err := rows.Scan(
			&resolution.ID, &resolution.RequestID, &resolution.Path, &resolution.Outcome, &resolution.Destination,
			&resolution.Referrer, &resolution.Tracking, &resolution.Host, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resolution row: %w", err)
		}
		resolution.CreatedAt = time.UnixMilli(createdAt).UTC()
		resolutions = append(resolutions, resolution)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating resolution rows: %w", err)
	}

	return resolutions, nil
}

func (r *ResolutionRepo) GetResolutionStats(ctx context.Context) (*ResolutionStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT outcome, COUNT(*), MIN(created_at), MAX(created_at)
		FROM resolutions
		GROUP BY outcome
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get resolution stats: %w", err)
	}
	defer rows.Close()

	stats := &ResolutionStats{ByOutcome: make(map[string]int)}
	var oldest, newest int64
	for rows.Next() {
		var outcome string
		var count int
		var minCreated, maxCreated int64
		if err := rows.Scan(&outcome, &count, &minCreated, &maxCreated); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}

		stats.ByOutcome[outcome] = count
		stats.Total += count
		if oldest == 0 || minCreated < oldest {
			oldest = minCreated
		}
		if maxCreated > newest {
			newest = maxCreated
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stats rows: %w", err)
	}

	if stats.Total > 0 {
		o := time.UnixMilli(oldest).UTC()
		n := time.UnixMilli(newest).UTC()
		stats.Oldest = &o
		stats.Newest = &n
	}

	return stats, nil
}

func (r *ResolutionRepo) GetResolutionCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM resolutions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get resolution count: %w", err)
	}
	return count, nil
}

func (r *ResolutionRepo) DeleteResolutionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM resolutions WHERE created_at < ?", cutoff.UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old resolutions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted row count: %w", err)
	}

	return deleted, nil
}

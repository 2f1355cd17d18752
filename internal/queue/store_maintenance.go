package queue

import (
	"context"
	"database/sql"
	"fmt"
)

// Stats returns a count of tracks grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM tracks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("track stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates track state for status output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusFound:
			health.Found += count
		case StatusNotFound:
			health.NotFound += count
		case StatusDownloaded:
			health.Downloaded += count
		case StatusFailed:
			health.Failed += count
		default:
			if IsProcessingStatus(status) {
				health.Processing += count
			}
		}
	}
	return health, nil
}

// Clear removes all tracks and the image log.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	var removed int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM tracks`)
		if err != nil {
			return fmt.Errorf("clear tracks: %w", err)
		}
		if removed, err = res.RowsAffected(); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM images`); err != nil {
			return fmt.Errorf("clear images: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// ClearStatus removes tracks in the given status, e.g. not_found.
func (s *Store) ClearStatus(ctx context.Context, status Status) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM tracks WHERE status = ?`, status)
	if err != nil {
		return 0, fmt.Errorf("clear %s tracks: %w", status, err)
	}
	return res.RowsAffected()
}

package queue

import (
	"context"
	"fmt"
)

// ResetStuckProcessing returns tracks left mid-stage by an interrupted run to
// the start of that stage.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE tracks
         SET status = CASE status
             WHEN ? THEN ?
             WHEN ? THEN ?
             ELSE status
         END,
             progress_message = 'Reset from stuck processing', updated_at = ?
         WHERE status IN (?, ?)`,
		StatusSearching, processingStatuses[StatusSearching],
		StatusDownloading, processingStatuses[StatusDownloading],
		nowString(),
		StatusSearching,
		StatusDownloading,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck tracks: %w", err)
	}
	return res.RowsAffected()
}

// RetryNotFound sends unresolved tracks back to search. With no ids every
// not_found track is retried.
func (s *Store) RetryNotFound(ctx context.Context, ids ...int64) (int64, error) {
	return s.moveStatus(ctx, StatusNotFound, StatusPending, "Search retry requested", false, ids)
}

// RetryFailed sends failed downloads back to the download stage with a fresh
// attempt budget. With no ids every failed track is retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	return s.moveStatus(ctx, StatusFailed, StatusFound, "Retry requested", true, ids)
}

func (s *Store) moveStatus(ctx context.Context, from, to Status, message string, resetAttempts bool, ids []int64) (int64, error) {
	set := `SET status = ?, progress_message = ?, error_message = NULL, updated_at = ?`
	if resetAttempts {
		set += `, attempts = 0`
	}
	query := `UPDATE tracks ` + set + ` WHERE status = ?`
	args := []any{to, message, nowString(), from}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		args = idArgs(args, ids)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("move %s tracks to %s: %w", from, to, err)
	}
	return res.RowsAffected()
}

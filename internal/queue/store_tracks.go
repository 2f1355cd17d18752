package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// AddRawTrack inserts an OCR line as a pending track. It returns false when the
// same raw text is already stored.
func (s *Store) AddRawTrack(ctx context.Context, rawText, sourceImage string) (bool, error) {
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return false, errors.New("raw text is empty")
	}
	timestamp := nowString()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO tracks (raw_text, status, source_image, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(raw_text) DO NOTHING`,
		rawText,
		StatusPending,
		nullableString(sourceImage),
		timestamp,
		timestamp,
	)
	if err != nil {
		return false, fmt.Errorf("insert track: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// GetByID fetches a track by identifier. A missing track returns nil, nil.
func (s *Store) GetByID(ctx context.Context, id int64) (*Track, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id = ?`, id)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get track: %w", err)
	}
	return track, nil
}

// FindByVideoID returns the track holding a video id, if any.
func (s *Store) FindByVideoID(ctx context.Context, videoID string) (*Track, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE yt_id = ? LIMIT 1`, videoID)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by video id: %w", err)
	}
	return track, nil
}

// Update persists changes to an existing track.
func (s *Store) Update(ctx context.Context, track *Track) error {
	if track == nil {
		return errors.New("track is nil")
	}
	if track.Status == StatusDownloaded && strings.TrimSpace(track.FilePath) == "" {
		return errors.New("downloaded track requires a file path")
	}
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE tracks
         SET song_name = ?, artist_name = ?, album = ?, yt_id = ?, cover_url = ?, duration = ?,
             result_type = ?, match_score = ?, status = ?, file_path = ?, error_message = ?,
             attempts = ?, progress_message = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(track.SongName),
		nullableString(track.ArtistName),
		nullableString(track.Album),
		nullableString(track.VideoID),
		nullableString(track.CoverURL),
		nullableString(track.Duration),
		nullableString(track.ResultType),
		track.MatchScore,
		track.Status,
		nullableString(track.FilePath),
		nullableString(track.ErrorMessage),
		track.Attempts,
		nullableString(track.ProgressMessage),
		nowString(),
		track.ID,
	); err != nil {
		return fmt.Errorf("update track: %w", err)
	}
	return nil
}

// List returns tracks filtered by status set (or all tracks when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Track, error) {
	baseQuery := `SELECT ` + trackColumns + ` FROM tracks`
	orderClause := ` ORDER BY id`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	return collectTracks(rows)
}

// PendingTracks returns tracks that have not been searched yet, oldest first.
func (s *Store) PendingTracks(ctx context.Context) ([]*Track, error) {
	return s.List(ctx, StatusPending)
}

// TracksToDownload returns matched tracks that still need audio, oldest first.
func (s *Store) TracksToDownload(ctx context.Context) ([]*Track, error) {
	return s.List(ctx, StatusFound)
}

// ApplyMatch stores a catalog match on a track. When another track already
// holds the same video id the current track is deleted instead, so each
// video is downloaded once.
func (s *Store) ApplyMatch(ctx context.Context, id int64, match Match) (ApplyResult, error) {
	if strings.TrimSpace(match.VideoID) == "" {
		return ApplyResult{}, errors.New("match has no video id")
	}
	var result ApplyResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result = ApplyResult{}
		var existing int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM tracks WHERE yt_id = ? AND id != ? LIMIT 1`, match.VideoID, id).Scan(&existing)
		switch {
		case err == nil:
			if _, err := tx.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id); err != nil {
				return fmt.Errorf("delete duplicate track: %w", err)
			}
			result = ApplyResult{Duplicate: true, ExistingID: existing}
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("check duplicate video id: %w", err)
		}

		res, err := tx.ExecContext(
			ctx,
			`UPDATE tracks
             SET song_name = ?, artist_name = ?, album = ?, yt_id = ?, cover_url = ?, duration = ?,
                 result_type = ?, match_score = ?, status = ?, error_message = NULL,
                 progress_message = ?, updated_at = ?
             WHERE id = ?`,
			nullableString(match.Title),
			nullableString(match.Artist),
			nullableString(match.Album),
			match.VideoID,
			nullableString(match.CoverURL),
			nullableString(match.Duration),
			nullableString(match.ResultType),
			match.Score,
			StatusFound,
			"Match found",
			nowString(),
			id,
		)
		if err != nil {
			return fmt.Errorf("apply match: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return fmt.Errorf("apply match: track %d not found", id)
		}
		return nil
	})
	return result, err
}

// MarkNotFound parks a track the catalog could not resolve.
func (s *Store) MarkNotFound(ctx context.Context, id int64, reason string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE tracks SET status = ?, progress_message = ?, updated_at = ? WHERE id = ?`,
		StatusNotFound,
		nullableString(reason),
		nowString(),
		id,
	); err != nil {
		return fmt.Errorf("mark not found: %w", err)
	}
	return nil
}

// MarkDownloaded records a finished mp3.
func (s *Store) MarkDownloaded(ctx context.Context, id int64, filePath string) error {
	if strings.TrimSpace(filePath) == "" {
		return errors.New("downloaded track requires a file path")
	}
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE tracks
         SET status = ?, file_path = ?, error_message = NULL, progress_message = ?, updated_at = ?
         WHERE id = ?`,
		StatusDownloaded,
		filePath,
		"Downloaded",
		nowString(),
		id,
	); err != nil {
		return fmt.Errorf("mark downloaded: %w", err)
	}
	return nil
}

// RecordDownloadFailure counts a failed attempt. The track stays found until
// maxAttempts is reached, then becomes failed. The resulting status is returned.
func (s *Store) RecordDownloadFailure(ctx context.Context, id int64, message string, maxAttempts int) (Status, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE tracks
         SET attempts = attempts + 1,
             status = CASE WHEN attempts + 1 >= ? THEN ? ELSE ? END,
             error_message = ?, progress_message = ?, updated_at = ?
         WHERE id = ?`,
		maxAttempts,
		StatusFailed,
		StatusFound,
		nullableString(message),
		"Download failed",
		nowString(),
		id,
	); err != nil {
		return "", fmt.Errorf("record download failure: %w", err)
	}
	var status Status
	if err := s.db.QueryRowContext(ctx, `SELECT status FROM tracks WHERE id = ?`, id).Scan(&status); err != nil {
		return "", fmt.Errorf("read status: %w", err)
	}
	return status, nil
}

// Remove deletes a track by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete track: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

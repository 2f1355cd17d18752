package queue

import (
	"database/sql"
	"errors"
	"time"
)

const trackColumns = "id, raw_text, song_name, artist_name, album, yt_id, cover_url, duration, result_type, match_score, status, file_path, error_message, attempts, progress_message, source_image, created_at, updated_at"

const imageColumns = "id, filename, full_text, track_count, created_at"

type rowScanner interface{ Scan(dest ...any) error }

func scanTrack(scanner rowScanner) (*Track, error) {
	var (
		id              int64
		rawText         string
		songName        sql.NullString
		artistName      sql.NullString
		album           sql.NullString
		videoID         sql.NullString
		coverURL        sql.NullString
		duration        sql.NullString
		resultType      sql.NullString
		matchScore      sql.NullFloat64
		statusStr       string
		filePath        sql.NullString
		errorMessage    sql.NullString
		attempts        sql.NullInt64
		progressMessage sql.NullString
		sourceImage     sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&rawText,
		&songName,
		&artistName,
		&album,
		&videoID,
		&coverURL,
		&duration,
		&resultType,
		&matchScore,
		&statusStr,
		&filePath,
		&errorMessage,
		&attempts,
		&progressMessage,
		&sourceImage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	track := &Track{
		ID:              id,
		RawText:         rawText,
		SongName:        songName.String,
		ArtistName:      artistName.String,
		Album:           album.String,
		VideoID:         videoID.String,
		CoverURL:        coverURL.String,
		Duration:        duration.String,
		ResultType:      resultType.String,
		MatchScore:      matchScore.Float64,
		Status:          Status(statusStr),
		FilePath:        filePath.String,
		ErrorMessage:    errorMessage.String,
		Attempts:        int(attempts.Int64),
		ProgressMessage: progressMessage.String,
		SourceImage:     sourceImage.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		track.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		track.UpdatedAt = updated
	}
	return track, nil
}

func scanImage(scanner rowScanner) (*Image, error) {
	var (
		image      Image
		fullText   sql.NullString
		createdRaw sql.NullString
	)
	if err := scanner.Scan(&image.ID, &image.Filename, &fullText, &image.TrackCount, &createdRaw); err != nil {
		return nil, err
	}
	image.FullText = fullText.String
	if created, err := parseTimeString(createdRaw.String); err == nil {
		image.CreatedAt = created
	}
	return &image, nil
}

func collectTracks(rows *sql.Rows) ([]*Track, error) {
	defer rows.Close()
	var tracks []*Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func idArgs(prefix []any, ids []int64) []any {
	args := make([]any, 0, len(prefix)+len(ids))
	args = append(args, prefix...)
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}

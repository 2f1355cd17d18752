package queue

import (
	"context"
	"fmt"
)

// IsImageProcessed reports whether a screenshot has already been through OCR.
func (s *Store) IsImageProcessed(ctx context.Context, filename string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM images WHERE filename = ?`, filename).Scan(&count); err != nil {
		return false, fmt.Errorf("check image: %w", err)
	}
	return count > 0, nil
}

// LogImage records a processed screenshot with its full OCR text. It returns
// false when the filename was already logged.
func (s *Store) LogImage(ctx context.Context, filename, fullText string, trackCount int) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO images (filename, full_text, track_count, created_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(filename) DO NOTHING`,
		filename,
		nullableString(fullText),
		trackCount,
		nowString(),
	)
	if err != nil {
		return false, fmt.Errorf("log image: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ProcessedImages returns the set of logged filenames.
func (s *Store) ProcessedImages(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT filename FROM images`)
	if err != nil {
		return nil, fmt.Errorf("list image names: %w", err)
	}
	defer rows.Close()
	names := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names[name] = struct{}{}
	}
	return names, rows.Err()
}

// Images lists logged screenshots, newest first.
func (s *Store) Images(ctx context.Context) ([]*Image, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+imageColumns+` FROM images ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()
	var images []*Image
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

// ForgetImage removes a screenshot from the log so the next scan reads it again.
// Tracks it produced are kept; their raw text still deduplicates.
func (s *Store) ForgetImage(ctx context.Context, filename string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM images WHERE filename = ?`, filename)
	if err != nil {
		return false, fmt.Errorf("forget image: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"tunescan/internal/queue"
)

type trackView struct {
	ID          int64   `json:"id"`
	RawText     string  `json:"raw_text"`
	Artist      string  `json:"artist,omitempty"`
	Song        string  `json:"song,omitempty"`
	Album       string  `json:"album,omitempty"`
	VideoID     string  `json:"video_id,omitempty"`
	URL         string  `json:"url,omitempty"`
	Score       float64 `json:"score,omitempty"`
	Status      string  `json:"status"`
	Attempts    int     `json:"attempts,omitempty"`
	FilePath    string  `json:"file_path,omitempty"`
	Error       string  `json:"error,omitempty"`
	SourceImage string  `json:"source_image,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func buildTrackViews(tracks []*queue.Track) []trackView {
	views := make([]trackView, 0, len(tracks))
	for _, t := range tracks {
		views = append(views, trackView{
			ID:          t.ID,
			RawText:     t.RawText,
			Artist:      t.ArtistName,
			Song:        t.SongName,
			Album:       t.Album,
			VideoID:     t.VideoID,
			URL:         t.WatchURL(),
			Score:       t.MatchScore,
			Status:      string(t.Status),
			Attempts:    t.Attempts,
			FilePath:    t.FilePath,
			Error:       t.ErrorMessage,
			SourceImage: t.SourceImage,
			CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return views
}

func buildQueueStatusRows(stats map[queue.Status]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(stats))
	for _, status := range queue.AllStatuses() {
		count, ok := stats[status]
		if !ok {
			continue
		}
		rows = append(rows, []string{formatStatusLabel(string(status)), fmt.Sprintf("%d", count)})
	}
	return rows
}

func buildQueueListRows(tracks []*queue.Track) [][]string {
	rows := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		detail := strings.TrimSpace(t.ErrorMessage)
		if detail == "" {
			detail = strings.TrimSpace(t.ProgressMessage)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", t.ID),
			truncate(t.Label(), 48),
			truncate(t.Album, 24),
			formatStatusLabel(string(t.Status)),
			truncate(detail, 40),
			formatDisplayTime(t.CreatedAt),
		})
	}
	return rows
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatDisplayTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

func truncate(value string, limit int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-1]) + "…"
}

func parseStatuses(values []string) ([]queue.Status, error) {
	statuses := make([]queue.Status, 0, len(values))
	for _, value := range values {
		status, ok := queue.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func parsePositiveIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid track id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a track.
type Status string

const (
	StatusPending     Status = "pending"
	StatusSearching   Status = "searching"
	StatusFound       Status = "found"
	StatusNotFound    Status = "not_found"
	StatusDownloading Status = "downloading"
	StatusDownloaded  Status = "downloaded"
	StatusFailed      Status = "failed"
)

// ResultType values reported by the catalog for a matched track.
const (
	ResultSong  = "song"
	ResultVideo = "video"
)

// DefaultAlbum is stored when the catalog result carries no album.
const DefaultAlbum = "Single"

var allStatuses = []Status{
	StatusPending,
	StatusSearching,
	StatusFound,
	StatusNotFound,
	StatusDownloading,
	StatusDownloaded,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]Status{
	StatusSearching:   StatusPending,
	StatusDownloading: StatusFound,
}

// Track is one OCR-extracted line and everything learned about it.
// RawText is the deduplication key; VideoID is unique once matched.
type Track struct {
	ID              int64
	RawText         string
	SongName        string
	ArtistName      string
	Album           string
	VideoID         string
	CoverURL        string
	Duration        string
	ResultType      string
	MatchScore      float64
	Status          Status
	FilePath        string
	ErrorMessage    string
	Attempts        int
	ProgressMessage string
	SourceImage     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Image records a screenshot that has already been through OCR.
type Image struct {
	ID         int64
	Filename   string
	FullText   string
	TrackCount int
	CreatedAt  time.Time
}

// Match is the catalog result chosen for a track.
type Match struct {
	VideoID    string
	Title      string
	Artist     string
	Album      string
	CoverURL   string
	Duration   string
	ResultType string
	Score      float64
}

// ApplyResult reports what ApplyMatch did with a track.
type ApplyResult struct {
	// Duplicate is true when another track already owned the video id and the
	// current row was deleted.
	Duplicate bool
	// ExistingID is the surviving track when Duplicate is true.
	ExistingID int64
}

// HealthSummary describes aggregated counts per lifecycle bucket.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Found      int
	NotFound   int
	Downloaded int
	Failed     int
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	normalized = Status(strings.ReplaceAll(string(normalized), "-", "_"))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsProcessing returns true when the track is mid-stage.
func (t Track) IsProcessing() bool {
	return IsProcessingStatus(t.Status)
}

// Label renders "Artist - Song" when known, falling back to the raw OCR text.
func (t Track) Label() string {
	artist := strings.TrimSpace(t.ArtistName)
	song := strings.TrimSpace(t.SongName)
	switch {
	case artist != "" && song != "":
		return artist + " - " + song
	case song != "":
		return song
	default:
		return t.RawText
	}
}

// WatchURL returns the YouTube watch URL for a matched track.
func (t Track) WatchURL() string {
	if t.VideoID == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + t.VideoID
}

// SetFailed records a terminal failure.
func (t *Track) SetFailed(message string) {
	t.Status = StatusFailed
	t.ErrorMessage = message
	t.ProgressMessage = message
}

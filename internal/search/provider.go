package search

import (
	"context"
	"strings"
)

// Result types reported by providers.
const (
	TypeSong     = "song"
	TypeVideo    = "video"
	TypeAlbum    = "album"
	TypeArtist   = "artist"
	TypePlaylist = "playlist"
	TypeEpisode  = "episode"
	TypePodcast  = "podcast"
	TypeProfile  = "profile"
)

// Thumbnail is one size of a cover image.
type Thumbnail struct {
	URL    string
	Width  int
	Height int
}

// Result is one catalog search hit.
type Result struct {
	ResultType string
	VideoID    string
	Title      string
	Artists    []string
	Album      string
	// Thumbnails are ordered smallest first.
	Thumbnails []Thumbnail
	Duration   string
}

// Playable reports whether the hit can be downloaded as a track.
func (r Result) Playable() bool {
	return (r.ResultType == TypeSong || r.ResultType == TypeVideo) && strings.TrimSpace(r.VideoID) != ""
}

// Cover returns the largest thumbnail URL, or "".
func (r Result) Cover() string {
	if len(r.Thumbnails) == 0 {
		return ""
	}
	return r.Thumbnails[len(r.Thumbnails)-1].URL
}

// Provider searches a music catalog.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) ([]Result, error)
}

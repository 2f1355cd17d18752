package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.uploadedlobster.com/mbtypes"
	"go.uploadedlobster.com/musicbrainzws2"

	"tunescan/internal/logging"
	"tunescan/internal/queue"
)

const coverArtArchiveURL = "https://coverartarchive.org/release/%s/front-250"

type recordingCandidate struct {
	Title        string
	Artist       string
	ReleaseID    mbtypes.MBID
	ReleaseTitle string
}

// MusicBrainz fills a generic "Single" album and a missing cover from the
// MusicBrainz recording index and the Cover Art Archive.
type MusicBrainz struct {
	client   *musicbrainzws2.Client
	minScore float64
	logger   *slog.Logger
	search   func(ctx context.Context, query string) ([]recordingCandidate, error)
}

// NewMusicBrainz creates an enricher identifying itself with contact, as the
// MusicBrainz API requires.
func NewMusicBrainz(contact string, minScore float64, logger *slog.Logger) *MusicBrainz {
	mb := &MusicBrainz{
		client: musicbrainzws2.NewClient(musicbrainzws2.AppInfo{
			Name:    "tunescan",
			Version: "1.0",
			URL:     contact,
		}),
		minScore: minScore,
		logger:   logging.NewComponentLogger(logger, "musicbrainz"),
	}
	mb.search = mb.searchRecordings
	return mb
}

// Name identifies the enricher in logs.
func (m *MusicBrainz) Name() string { return "musicbrainz" }

// Close releases the underlying client.
func (m *MusicBrainz) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Close()
}

// Enrich looks the match up only when its album or cover is missing.
func (m *MusicBrainz) Enrich(ctx context.Context, match *queue.Match) error {
	needAlbum := match.Album == "" || match.Album == queue.DefaultAlbum
	needCover := strings.TrimSpace(match.CoverURL) == ""
	if !needAlbum && !needCover {
		return nil
	}
	candidates, err := m.search(ctx, recordingQuery(match.Artist, match.Title))
	if err != nil {
		return err
	}
	for _, c := range candidates {
		if c.ReleaseID == "" {
			continue
		}
		if Score(match.Artist+" "+match.Title, c.Artist, c.Title) < m.minScore {
			continue
		}
		if needAlbum && strings.TrimSpace(c.ReleaseTitle) != "" && !strings.EqualFold(c.ReleaseTitle, c.Title) {
			match.Album = c.ReleaseTitle
		}
		if needCover {
			match.CoverURL = fmt.Sprintf(coverArtArchiveURL, c.ReleaseID)
		}
		m.logger.Debug("musicbrainz enrichment applied",
			logging.String("video_id", match.VideoID),
			logging.String("release_id", string(c.ReleaseID)),
		)
		return nil
	}
	return nil
}

func (m *MusicBrainz) searchRecordings(ctx context.Context, query string) ([]recordingCandidate, error) {
	res, err := m.client.SearchRecordings(ctx, musicbrainzws2.SearchFilter{Query: query}, musicbrainzws2.DefaultPaginator())
	if err != nil {
		return nil, fmt.Errorf("musicbrainz recording search: %w", err)
	}
	var out []recordingCandidate
	for _, rec := range res.Recordings {
		c := recordingCandidate{Title: rec.Title, Artist: rec.ArtistCredit.String()}
		if len(rec.Releases) > 0 {
			c.ReleaseID = rec.Releases[0].ID
			c.ReleaseTitle = rec.Releases[0].Title
		}
		out = append(out, c)
	}
	return out, nil
}

// recordingQuery builds a Lucene query for a recording by an artist.
func recordingQuery(artist, title string) string {
	q := fmt.Sprintf(`recording:"%s"`, luceneEscape(title))
	// Multi-artist credits are joined with ", "; the lead artist is enough.
	if lead := strings.TrimSpace(strings.Split(artist, ",")[0]); lead != "" {
		q += fmt.Sprintf(` AND artist:"%s"`, luceneEscape(lead))
	}
	return q
}

func luceneEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(strings.TrimSpace(s))
}

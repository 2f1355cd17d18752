package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"golang.org/x/time/rate"

	"tunescan/internal/config"
	"tunescan/internal/logging"
	"tunescan/internal/queue"
	"tunescan/internal/textutil"
)

// Enricher fills gaps in a match from a secondary catalog. Enrichers must
// leave the match untouched when they find nothing better.
type Enricher interface {
	Name() string
	Enrich(ctx context.Context, match *queue.Match) error
}

// Finder picks the best playable result for a raw OCR line.
type Finder struct {
	provider  Provider
	limiter   *rate.Limiter
	minScore  float64
	enrichers []Enricher
	logger    *slog.Logger
}

// NewFinder wires the configured provider and enrichers.
func NewFinder(cfg *config.Config, logger *slog.Logger) *Finder {
	timeout := time.Duration(cfg.Search.TimeoutSeconds) * time.Second
	provider := NewYTMusic(cfg.Search.BaseURL, cfg.Search.Language, timeout)
	finder := NewFinderWithProvider(provider, cfg.Search.RequestsPerSecond, cfg.Search.MinScore, logger)
	if cfg.MusicBrainz.Enabled {
		finder.AddEnricher(NewMusicBrainz(cfg.MusicBrainz.Contact, cfg.MusicBrainz.MinScore, logger))
	}
	if cfg.Spotify.Enabled && cfg.SpotifyReady() {
		finder.AddEnricher(NewSpotify(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Spotify.Market, cfg.Spotify.MinScore))
	}
	return finder
}

// NewFinderWithProvider builds a finder around any provider. A non-positive
// rate disables throttling.
func NewFinderWithProvider(provider Provider, requestsPerSecond, minScore float64, logger *slog.Logger) *Finder {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Finder{
		provider: provider,
		limiter:  rate.NewLimiter(limit, 1),
		minScore: minScore,
		logger:   logging.NewComponentLogger(logger, "search"),
	}
}

// AddEnricher appends an enricher; enrichers run in the order added.
func (f *Finder) AddEnricher(e Enricher) {
	if e != nil {
		f.enrichers = append(f.enrichers, e)
	}
}

// FindBestMatch searches for raw and returns the first song or video. It
// returns nil, nil when nothing playable (or nothing similar enough) comes
// back.
func (f *Finder) FindBestMatch(ctx context.Context, raw string) (*queue.Match, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	results, err := f.provider.Search(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%s search %q: %w", f.provider.Name(), raw, err)
	}

	for _, result := range results {
		if !result.Playable() {
			continue
		}
		match := toMatch(result)
		match.Score = Score(raw, match.Artist, match.Title)
		if f.minScore > 0 && match.Score < f.minScore {
			attrs := append(logging.DecisionAttrs(raw, logging.DecisionRejected, "score below threshold"),
				logging.String("candidate", match.Artist+" - "+match.Title),
				logging.Float64("score", match.Score),
				logging.Float64("min_score", f.minScore),
			)
			f.logger.Info("best result below score threshold", logging.Args(attrs...)...)
			return nil, nil
		}
		f.enrich(ctx, match)
		attrs := append(logging.DecisionAttrs(raw, logging.DecisionAccepted, result.ResultType),
			logging.String("video_id", match.VideoID),
			logging.Float64("score", match.Score),
		)
		f.logger.Debug("catalog match selected", logging.Args(attrs...)...)
		return match, nil
	}
	f.logger.Debug("no playable catalog result",
		logging.Args(logging.DecisionAttrs(raw, logging.DecisionMissing, fmt.Sprintf("%d results", len(results)))...)...)
	return nil, nil
}

// Close releases enrichers that hold resources, such as the MusicBrainz
// client. The finder must not be used afterwards.
func (f *Finder) Close() error {
	var errs []error
	for _, e := range f.enrichers {
		if c, ok := e.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", e.Name(), err))
			}
		}
	}
	f.enrichers = nil
	return errors.Join(errs...)
}

func (f *Finder) enrich(ctx context.Context, match *queue.Match) {
	for _, e := range f.enrichers {
		if err := e.Enrich(ctx, match); err != nil {
			logging.WarnWithContext(f.logger, "metadata enrichment failed", "enrich_failed",
				logging.String("enricher", e.Name()),
				logging.String("video_id", match.VideoID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "catalog album and cover kept"),
			)
		}
	}
}

func toMatch(r Result) *queue.Match {
	album := strings.TrimSpace(r.Album)
	if album == "" {
		album = queue.DefaultAlbum
	}
	return &queue.Match{
		VideoID:    r.VideoID,
		Title:      strings.TrimSpace(r.Title),
		Artist:     strings.Join(r.Artists, ", "),
		Album:      album,
		CoverURL:   r.Cover(),
		Duration:   r.Duration,
		ResultType: r.ResultType,
	}
}

// Score rates how well "artist title" (in either order) matches the OCR
// text, from 0 to 1.
func Score(raw, artist, title string) float64 {
	query := textutil.NormalizeForMatch(raw)
	if query == "" {
		return 0
	}
	jw := metrics.NewJaroWinkler()
	best := 0.0
	for _, candidate := range []string{artist + " " + title, title + " " + artist, title} {
		candidate = textutil.NormalizeForMatch(candidate)
		if candidate == "" {
			continue
		}
		if s := strutil.Similarity(query, candidate, jw); s > best {
			best = s
		}
	}
	return best
}

package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"tunescan/internal/queue"
)

// Spotify replaces album and cover with Spotify's when its best track hit is
// similar enough to the match.
type Spotify struct {
	clientID     string
	clientSecret string
	market       string
	minScore     float64
	apiBase      string
	tokenURL     string

	once    sync.Once
	client  *spotify.Client
	initErr error
}

// NewSpotify creates an enricher using the client credentials flow.
func NewSpotify(clientID, clientSecret, market string, minScore float64) *Spotify {
	return &Spotify{
		clientID:     clientID,
		clientSecret: clientSecret,
		market:       strings.TrimSpace(market),
		minScore:     minScore,
		tokenURL:     spotifyauth.TokenURL,
	}
}

// WithEndpoints points the enricher at alternate API and token URLs.
func (s *Spotify) WithEndpoints(apiBase, tokenURL string) *Spotify {
	if !strings.HasSuffix(apiBase, "/") {
		apiBase += "/"
	}
	s.apiBase = apiBase
	s.tokenURL = tokenURL
	return s
}

// Name identifies the enricher in logs.
func (s *Spotify) Name() string { return "spotify" }

func (s *Spotify) api(ctx context.Context) (*spotify.Client, error) {
	s.once.Do(func() {
		if s.clientID == "" || s.clientSecret == "" {
			s.initErr = fmt.Errorf("spotify credentials missing")
			return
		}
		cc := &clientcredentials.Config{
			ClientID:     s.clientID,
			ClientSecret: s.clientSecret,
			TokenURL:     s.tokenURL,
		}
		// The token source outlives this call, so it must not be bound to ctx.
		httpClient := cc.Client(context.WithoutCancel(ctx))
		var opts []spotify.ClientOption
		if s.apiBase != "" {
			opts = append(opts, spotify.WithBaseURL(s.apiBase))
		}
		s.client = spotify.New(httpClient, opts...)
	})
	return s.client, s.initErr
}

// Enrich searches for the match and adopts the best hit's album and cover.
func (s *Spotify) Enrich(ctx context.Context, match *queue.Match) error {
	client, err := s.api(ctx)
	if err != nil {
		return err
	}
	query := strings.TrimSpace(match.Title + " " + strings.Split(match.Artist, ",")[0])
	opts := []spotify.RequestOption{spotify.Limit(5)}
	if s.market != "" {
		opts = append(opts, spotify.Market(s.market))
	}
	results, err := client.Search(ctx, query, spotify.SearchTypeTrack, opts...)
	if err != nil {
		return fmt.Errorf("spotify search: %w", err)
	}
	if results == nil || results.Tracks == nil {
		return nil
	}

	var (
		best      *spotify.FullTrack
		bestScore float64
	)
	for i := range results.Tracks.Tracks {
		track := &results.Tracks.Tracks[i]
		artists := make([]string, 0, len(track.Artists))
		for _, a := range track.Artists {
			artists = append(artists, a.Name)
		}
		score := Score(match.Artist+" "+match.Title, strings.Join(artists, " "), track.Name)
		if score > bestScore {
			best, bestScore = track, score
		}
	}
	if best == nil || bestScore < s.minScore {
		return nil
	}
	if name := strings.TrimSpace(best.Album.Name); name != "" {
		match.Album = name
	}
	// Spotify lists images largest first.
	if len(best.Album.Images) > 0 && best.Album.Images[0].URL != "" {
		match.CoverURL = best.Album.Images[0].URL
	}
	return nil
}

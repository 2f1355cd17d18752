package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"tunescan/internal/queue"
)

func newSpotifyServer(t *testing.T, tracks string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"test-token","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected authorization %q", got)
		}
		if r.URL.Query().Get("type") != "track" {
			t.Errorf("unexpected search type %q", r.URL.Query().Get("type"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tracks":{"href":"","limit":5,"offset":0,"total":2,"items":` + tracks + `}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

const spotifyTracks = `[
 {"id":"1","name":"Yellow - Live","artists":[{"id":"a","name":"Tribute Band"}],
  "album":{"id":"x","name":"Covers","images":[{"url":"https://i.scdn.co/image/covers","height":640,"width":640}]}},
 {"id":"2","name":"Yellow","artists":[{"id":"b","name":"Coldplay"}],
  "album":{"id":"y","name":"Parachutes","images":[{"url":"https://i.scdn.co/image/big","height":640,"width":640},{"url":"https://i.scdn.co/image/small","height":64,"width":64}]}}
]`

func TestSpotifyEnrichAdoptsBestHit(t *testing.T) {
	srv := newSpotifyServer(t, spotifyTracks)
	enricher := NewSpotify("id", "secret", "US", 0.85).WithEndpoints(srv.URL+"/v1", srv.URL+"/token")

	match := &queue.Match{Title: "Yellow", Artist: "Coldplay", Album: queue.DefaultAlbum, CoverURL: "https://yt/thumb"}
	if err := enricher.Enrich(context.Background(), match); err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if match.Album != "Parachutes" || match.CoverURL != "https://i.scdn.co/image/big" {
		t.Fatalf("unexpected enrichment %#v", match)
	}
}

func TestSpotifyEnrichIgnoresWeakHits(t *testing.T) {
	srv := newSpotifyServer(t, `[{"id":"1","name":"Something Else","artists":[{"id":"a","name":"Nobody"}],"album":{"id":"x","name":"Nope"}}]`)
	enricher := NewSpotify("id", "secret", "", 0.85).WithEndpoints(srv.URL+"/v1/", srv.URL+"/token")

	match := &queue.Match{Title: "Yellow", Artist: "Coldplay", Album: queue.DefaultAlbum}
	if err := enricher.Enrich(context.Background(), match); err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if match.Album != queue.DefaultAlbum || match.CoverURL != "" {
		t.Fatalf("expected match untouched, got %#v", match)
	}
}

func TestSpotifyEnrichRequiresCredentials(t *testing.T) {
	if err := NewSpotify("", "", "", 0.5).Enrich(context.Background(), &queue.Match{Title: "x"}); err == nil {
		t.Fatal("expected error without credentials")
	}
}

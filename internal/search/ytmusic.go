package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"tunescan/internal/services"
)

const (
	ytmClientName    = "WEB_REMIX"
	ytmClientVersion = "1.20241127.01.00"
	ytmUserAgent     = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
	maxResponseBytes = 8 << 20
)

var durationPattern = regexp.MustCompile(`^\d{1,2}(:\d{2}){1,2}$`)

// YTMusic searches YouTube Music through the InnerTube API. No account is
// required for search.
type YTMusic struct {
	baseURL  string
	language string
	client   *http.Client
}

// NewYTMusic constructs a provider. An empty baseURL selects music.youtube.com.
func NewYTMusic(baseURL, language string, timeout time.Duration) *YTMusic {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://music.youtube.com"
	}
	if strings.TrimSpace(language) == "" {
		language = "en"
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &YTMusic{
		baseURL:  baseURL,
		language: language,
		client:   &http.Client{Timeout: timeout},
	}
}

// Name identifies the provider in logs.
func (y *YTMusic) Name() string { return "ytmusic" }

// Search runs an unfiltered search so both official songs and videos
// (remixes, covers, uploads) come back.
func (y *YTMusic) Search(ctx context.Context, query string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "search", "ytmusic", "Empty query", nil)
	}
	payload := map[string]any{
		"context": map[string]any{
			"client": map[string]any{
				"clientName":    ytmClientName,
				"clientVersion": ytmClientVersion,
				"hl":            y.language,
			},
			"user": map[string]any{},
		},
		"query": query,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	endpoint := y.baseURL + "/youtubei/v1/search?prettyPrint=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", ytmUserAgent)
	req.Header.Set("Origin", y.baseURL)

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "search", "ytmusic", "Request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "search", "ytmusic", "Read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		marker := services.ErrTransient
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			marker = services.ErrValidation
		}
		return nil, services.Wrap(marker, "search", "ytmusic", fmt.Sprintf("HTTP %d", resp.StatusCode), nil)
	}
	if !gjson.ValidBytes(data) {
		return nil, services.Wrap(services.ErrTransient, "search", "ytmusic", "Response is not JSON", nil)
	}
	return ParseSearchResponse(data), nil
}

// ParseSearchResponse extracts results from an InnerTube search response,
// in the order the page shows them.
func ParseSearchResponse(data []byte) []Result {
	sections := gjson.GetBytes(data, "contents.tabbedSearchResultsRenderer.tabs.0.tabRenderer.content.sectionListRenderer.contents")
	var results []Result
	sections.ForEach(func(_, section gjson.Result) bool {
		if card := section.Get("musicCardShelfRenderer"); card.Exists() {
			if r, ok := parseTopResult(card); ok {
				results = append(results, r)
			}
			card.Get("contents").ForEach(func(_, item gjson.Result) bool {
				if r, ok := parseListItem(item.Get("musicResponsiveListItemRenderer")); ok {
					results = append(results, r)
				}
				return true
			})
			return true
		}
		section.Get("musicShelfRenderer.contents").ForEach(func(_, item gjson.Result) bool {
			if r, ok := parseListItem(item.Get("musicResponsiveListItemRenderer")); ok {
				results = append(results, r)
			}
			return true
		})
		return true
	})
	return results
}

func parseTopResult(card gjson.Result) (Result, bool) {
	title := card.Get("title.runs.0")
	if !title.Exists() {
		return Result{}, false
	}
	r := Result{
		Title:      strings.TrimSpace(title.Get("text").String()),
		VideoID:    title.Get("navigationEndpoint.watchEndpoint.videoId").String(),
		Thumbnails: parseThumbnails(card.Get("thumbnail.musicThumbnailRenderer.thumbnail.thumbnails")),
	}
	runs := card.Get("subtitle.runs").Array()
	r.ResultType = classify(runs, title.Get("navigationEndpoint"))
	fillDetails(&r, runs)
	return r, r.Title != ""
}

func parseListItem(item gjson.Result) (Result, bool) {
	if !item.Exists() {
		return Result{}, false
	}
	titleRun := item.Get("flexColumns.0.musicResponsiveListItemFlexColumnRenderer.text.runs.0")
	r := Result{
		Title:      strings.TrimSpace(titleRun.Get("text").String()),
		Thumbnails: parseThumbnails(item.Get("thumbnail.musicThumbnailRenderer.thumbnail.thumbnails")),
	}
	r.VideoID = firstString(
		item.Get("playlistItemData.videoId"),
		titleRun.Get("navigationEndpoint.watchEndpoint.videoId"),
		item.Get("overlay.musicItemThumbnailOverlayRenderer.content.musicPlayButtonRenderer.playNavigationEndpoint.watchEndpoint.videoId"),
	)

	var runs []gjson.Result
	if cols := item.Get("flexColumns").Array(); len(cols) > 1 {
		for _, col := range cols[1:] {
			runs = append(runs, col.Get("musicResponsiveListItemFlexColumnRenderer.text.runs").Array()...)
		}
	}
	endpoint := titleRun.Get("navigationEndpoint")
	if !endpoint.Exists() {
		endpoint = item.Get("navigationEndpoint")
	}
	r.ResultType = classify(runs, endpoint)
	fillDetails(&r, runs)
	if r.Duration == "" {
		r.Duration = item.Get("fixedColumns.0.musicResponsiveListItemFixedColumnRenderer.text.runs.0.text").String()
	}
	return r, r.Title != ""
}

var knownTypes = map[string]string{
	"song":     TypeSong,
	"video":    TypeVideo,
	"album":    TypeAlbum,
	"single":   TypeAlbum,
	"ep":       TypeAlbum,
	"artist":   TypeArtist,
	"playlist": TypePlaylist,
	"episode":  TypeEpisode,
	"podcast":  TypePodcast,
	"profile":  TypeProfile,
}

// classify reads the type label from the first detail run, falling back to
// the music video type of the watch endpoint.
func classify(runs []gjson.Result, endpoint gjson.Result) string {
	if len(runs) > 0 {
		label := strings.ToLower(strings.TrimSpace(runs[0].Get("text").String()))
		if t, ok := knownTypes[label]; ok {
			return t
		}
	}
	videoType := endpoint.Get("watchEndpoint.watchEndpointMusicSupportedConfigs.watchEndpointMusicConfig.musicVideoType").String()
	switch videoType {
	case "MUSIC_VIDEO_TYPE_ATV":
		return TypeSong
	case "MUSIC_VIDEO_TYPE_OMV", "MUSIC_VIDEO_TYPE_UGC", "MUSIC_VIDEO_TYPE_OFFICIAL_SOURCE_MUSIC":
		return TypeVideo
	}
	switch pageType(endpoint) {
	case "MUSIC_PAGE_TYPE_ARTIST":
		return TypeArtist
	case "MUSIC_PAGE_TYPE_ALBUM":
		return TypeAlbum
	case "MUSIC_PAGE_TYPE_PLAYLIST":
		return TypePlaylist
	}
	return ""
}

// fillDetails collects artists, album, and duration from the detail runs.
// Artists and albums carry browse endpoints; plain text runs after the type
// label are treated as artist names when no linked artist is present.
func fillDetails(r *Result, runs []gjson.Result) {
	var plain []string
	for i, run := range runs {
		text := strings.TrimSpace(run.Get("text").String())
		if text == "" || text == "•" || text == "&" || text == "," {
			continue
		}
		switch pageType(run.Get("navigationEndpoint")) {
		case "MUSIC_PAGE_TYPE_ARTIST", "MUSIC_PAGE_TYPE_USER_CHANNEL":
			r.Artists = append(r.Artists, text)
			continue
		case "MUSIC_PAGE_TYPE_ALBUM":
			r.Album = text
			continue
		}
		if durationPattern.MatchString(text) {
			r.Duration = text
			continue
		}
		if i == 0 {
			if _, ok := knownTypes[strings.ToLower(text)]; ok {
				continue
			}
		}
		if strings.HasSuffix(text, " views") || strings.HasSuffix(text, " plays") || strings.HasSuffix(text, " subscribers") {
			continue
		}
		plain = append(plain, text)
	}
	if len(r.Artists) == 0 && len(plain) > 0 {
		r.Artists = []string{plain[0]}
	}
}

func pageType(endpoint gjson.Result) string {
	return endpoint.Get("browseEndpoint.browseEndpointContextSupportedConfigs.browseEndpointContextMusicConfig.pageType").String()
}

func parseThumbnails(list gjson.Result) []Thumbnail {
	var thumbs []Thumbnail
	list.ForEach(func(_, t gjson.Result) bool {
		if url := t.Get("url").String(); url != "" {
			thumbs = append(thumbs, Thumbnail{
				URL:    url,
				Width:  int(t.Get("width").Int()),
				Height: int(t.Get("height").Int()),
			})
		}
		return true
	})
	return thumbs
}

func firstString(values ...gjson.Result) string {
	for _, v := range values {
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

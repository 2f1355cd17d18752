// Package tagging writes ID3v2 metadata and cover art into downloaded mp3s.
package tagging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/nfnt/resize"

	"tunescan/internal/config"
	"tunescan/internal/logging"
	"tunescan/internal/services"
)

const maxCoverBytes = 10 << 20

// Meta is the metadata written to a file.
type Meta struct {
	Title    string
	Artist   string
	Album    string
	CoverURL string
}

// Tagger applies ID3 tags.
type Tagger struct {
	embedCover bool
	maxCoverPx int
	client     *http.Client
	logger     *slog.Logger
}

// New builds a tagger from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Tagger {
	timeout := time.Duration(cfg.Tagging.CoverTimeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Tagger{
		embedCover: cfg.Tagging.EmbedCover,
		maxCoverPx: cfg.Tagging.MaxCoverPx,
		client:     &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger(logger, "tagging"),
	}
}

// Apply writes title, artist, and album as UTF-8 ID3v2.4 frames and embeds the
// cover when one is available. A cover that cannot be fetched is logged and
// skipped; the text tags are still saved.
func (t *Tagger) Apply(ctx context.Context, path string, meta Meta) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return services.Wrap(services.ErrValidation, "tagging", "open", "Cannot read ID3 tag", err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetVersion(4)
	tag.SetTitle(meta.Title)
	tag.SetArtist(meta.Artist)
	tag.SetAlbum(meta.Album)

	if t.embedCover && strings.TrimSpace(meta.CoverURL) != "" {
		data, mimeType, err := t.fetchCover(ctx, meta.CoverURL)
		if err != nil {
			logging.WarnWithContext(t.logger, "cover art unavailable", "cover_fetch_failed",
				logging.String("cover_url", meta.CoverURL),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file tagged without cover art"),
			)
		} else {
			tag.DeleteFrames(tag.CommonID("Attached picture"))
			tag.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    mimeType,
				PictureType: id3v2.PTFrontCover,
				Description: "Cover",
				Picture:     data,
			})
		}
	}

	if err := tag.Save(); err != nil {
		return services.Wrap(services.ErrTransient, "tagging", "save", "Cannot write ID3 tag", err)
	}
	return nil
}

func (t *Tagger) fetchCover(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("cover request returned HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return nil, "", err
	}
	mimeType := "image/jpeg"
	if parsed, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && strings.HasPrefix(parsed, "image/") {
		mimeType = parsed
	}
	if t.maxCoverPx > 0 {
		if scaled, ok := downscale(data, uint(t.maxCoverPx)); ok {
			return scaled, "image/jpeg", nil
		}
	}
	return data, mimeType, nil
}

// downscale re-encodes images larger than maxPx on either side as JPEG.
// Images that are small enough or cannot be decoded are left alone.
func downscale(data []byte, maxPx uint) ([]byte, bool) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	b := img.Bounds()
	if uint(b.Dx()) <= maxPx && uint(b.Dy()) <= maxPx {
		return nil, false
	}
	thumb := resize.Thumbnail(maxPx, maxPx, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 90}); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

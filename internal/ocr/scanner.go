package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/disintegration/imaging"

	"tunescan/internal/config"
	"tunescan/internal/services"
)

// Result is the text read from one screenshot.
type Result struct {
	Lines    []string
	FullText string
}

// Candidates returns the trimmed lines longer than minLength runes.
func (r Result) Candidates(minLength int) []string {
	out := make([]string, 0, len(r.Lines))
	for _, line := range r.Lines {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) > minLength {
			out = append(out, line)
		}
	}
	return out
}

// WordSource returns word boxes for a preprocessed image.
type WordSource interface {
	Words(ctx context.Context, img image.Image) ([]Word, error)
}

// Scanner turns screenshot files into grouped lines.
type Scanner struct {
	engine  WordSource
	prep    PreprocessOptions
	factor  float64
	timeout time.Duration
}

// NewScanner builds a tesseract-backed scanner from configuration.
func NewScanner(cfg *config.Config, runner services.CommandRunner) *Scanner {
	return &Scanner{
		engine: Tesseract{
			Binary:      cfg.OCR.TesseractBinary,
			Language:    cfg.OCR.Language,
			PageSegMode: cfg.OCR.PageSegMode,
			Runner:      runner,
		},
		prep: PreprocessOptions{
			CropTop:         cfg.OCR.CropTop,
			CropBottom:      cfg.OCR.CropBottom,
			CropSides:       cfg.OCR.CropSides,
			ThresholdBlock:  cfg.OCR.ThresholdBlock,
			ThresholdOffset: cfg.OCR.ThresholdOffset,
		},
		factor:  cfg.OCR.LineGapFactor,
		timeout: time.Duration(cfg.OCR.TimeoutSeconds) * time.Second,
	}
}

// NewScannerWithSource uses a custom word source, mainly for tests.
func NewScannerWithSource(source WordSource, prep PreprocessOptions, factor float64) *Scanner {
	return &Scanner{engine: source, prep: prep, factor: factor}
}

// Extract reads path, preprocesses it, and groups the recognized words.
func (s *Scanner) Extract(ctx context.Context, path string) (Result, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "scan", "open image", fmt.Sprintf("Cannot decode %s", path), err)
	}
	processed, err := Preprocess(img, s.prep)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "scan", "preprocess", "Image too small to crop", err)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	words, err := s.engine.Words(ctx, processed)
	if err != nil {
		return Result{}, err
	}
	lines, full := GroupLines(words, s.factor)
	return Result{Lines: lines, FullText: full}, nil
}

package ocr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"tunescan/internal/services"
)

// Word is one recognized word box in preprocessed image coordinates.
type Word struct {
	Text   string
	Left   int
	Top    int
	Width  int
	Height int
	Conf   float64
}

// Tesseract runs the tesseract CLI and returns its word boxes.
type Tesseract struct {
	Binary      string
	Language    string
	PageSegMode int
	Runner      services.CommandRunner
}

// Words writes img to a temporary PNG and asks tesseract for TSV output.
func (t Tesseract) Words(ctx context.Context, img image.Image) ([]Word, error) {
	tmpDir, err := os.MkdirTemp("", "tunescan-ocr-")
	if err != nil {
		return nil, fmt.Errorf("create ocr temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pngPath := filepath.Join(tmpDir, "page.png")
	if err := imaging.Save(img, pngPath); err != nil {
		return nil, fmt.Errorf("write ocr input: %w", err)
	}

	runner := t.Runner
	if runner == nil {
		runner = services.ExecRunner{}
	}
	binary := strings.TrimSpace(t.Binary)
	if binary == "" {
		binary = "tesseract"
	}
	lang := strings.TrimSpace(t.Language)
	if lang == "" {
		lang = "eng"
	}
	args := []string{pngPath, "stdout", "-l", lang, "--psm", strconv.Itoa(t.PageSegMode), "tsv"}
	out, err := runner.Run(ctx, binary, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "scan", "tesseract", "OCR failed", err)
	}
	words, err := ParseTSV(out)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "scan", "parse tsv", "Unexpected tesseract output", err)
	}
	return words, nil
}

// ParseTSV decodes tesseract's TSV output, keeping word rows with text.
// Columns are level, page_num, block_num, par_num, line_num, word_num, left,
// top, width, height, conf, text.
func ParseTSV(data []byte) ([]Word, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var words []Word
	header := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if header {
			header = false
			if strings.HasPrefix(line, "level") {
				continue
			}
		}
		cols := strings.SplitN(line, "\t", 12)
		if len(cols) < 11 {
			return nil, fmt.Errorf("tsv row has %d columns", len(cols))
		}
		if len(cols) < 12 {
			continue
		}
		text := strings.TrimSpace(cols[11])
		if text == "" {
			continue
		}
		nums := make([]int, 4)
		for i := range nums {
			n, err := strconv.Atoi(strings.TrimSpace(cols[6+i]))
			if err != nil {
				return nil, fmt.Errorf("tsv column %d: %w", 6+i, err)
			}
			nums[i] = n
		}
		conf, _ := strconv.ParseFloat(strings.TrimSpace(cols[10]), 64)
		words = append(words, Word{
			Text:   text,
			Left:   nums[0],
			Top:    nums[1],
			Width:  nums[2],
			Height: nums[3],
			Conf:   conf,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

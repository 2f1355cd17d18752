package ocr

import "strings"

// DefaultLineGapFactor is how many line heights may separate two words of
// the same entry.
const DefaultLineGapFactor = 2.5

// GroupLines clusters words into entries. A word joins the current entry
// when it is the first word or its top is closer than lastHeight*factor to
// the previous word's top; otherwise a new entry starts. It also returns the
// raw text of every word, each followed by a space.
func GroupLines(words []Word, factor float64) ([]string, string) {
	if factor <= 0 {
		factor = DefaultLineGapFactor
	}
	var (
		lines      []string
		current    []string
		full       strings.Builder
		lastTop    int
		lastHeight int
		started    bool
	)
	for _, word := range words {
		text := strings.TrimSpace(word.Text)
		if text == "" {
			continue
		}
		full.WriteString(text)
		full.WriteByte(' ')

		if !started || float64(word.Top-lastTop) < float64(lastHeight)*factor {
			current = append(current, text)
		} else {
			if len(current) > 0 {
				lines = append(lines, strings.Join(current, " "))
			}
			current = []string{text}
		}
		started = true
		lastTop = word.Top
		lastHeight = word.Height
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	return lines, full.String()
}

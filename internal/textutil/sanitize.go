package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// maxFileNameBytes keeps room for ".mp3" and temp suffixes under the common
// 255-byte name limit.
const maxFileNameBytes = 240

// SanitizeFileName makes name safe as a single path segment.
// Slashes, backslashes, and colons become dashes; * ? " < > | are removed.
// The result is NFC-normalized so names decomposed by OCR or the catalog
// compare equal to typed ones, and trimmed of surrounding whitespace and dots.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = norm.NFC.String(fileNameReplacer.Replace(name))
	name = strings.Join(strings.Fields(name), " ")
	name = strings.Trim(name, " .")
	return truncateBytes(name, maxFileNameBytes)
}

// TrackFileName builds the "Artist - Song" base name for an mp3.
func TrackFileName(artist, song string) string {
	artist = strings.TrimSpace(artist)
	song = strings.TrimSpace(song)
	switch {
	case artist == "" && song == "":
		return ""
	case artist == "":
		return SanitizeFileName(song)
	case song == "":
		return SanitizeFileName(artist)
	default:
		return SanitizeFileName(artist + " - " + song)
	}
}

func truncateBytes(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	cut := 0
	for i := range value {
		if i > limit {
			break
		}
		cut = i
	}
	return strings.TrimSpace(value[:cut])
}

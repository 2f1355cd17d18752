// Package textutil provides text helpers shared by the search and download
// stages: filename sanitization for "Artist - Song.mp3" names and Unicode
// folding used when scoring catalog matches against OCR text.
package textutil

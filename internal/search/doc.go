// Package search resolves OCR text to a playable catalog entry.
//
// The YouTube Music provider talks to the InnerTube search endpoint the web
// client uses and reads the loosely structured response with gjson. Finder
// throttles lookups, picks the first song or video, scores it against the
// query, and lets optional enrichers (MusicBrainz, Spotify) fill in album
// names and covers the catalog left empty.
package search

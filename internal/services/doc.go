// Package services defines shared utilities consumed by the workflow stage
// handlers and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp track IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent queue statuses (retry vs failed).
//   - A CommandRunner abstraction so tesseract, yt-dlp, and ffmpeg calls can
//     be exercised with stub binaries in tests.
package services

// Package workflow drives tracks from screenshots to tagged mp3 files.
//
// A run has three phases. Scan OCRs every image in the input directory that
// has not been logged yet and stores each grouped line as a pending track.
// Search resolves pending tracks against the catalog. Download fetches,
// transcodes, and tags every found track. Each phase can run alone; Run does
// all three under an exclusive lock so two processes never work the same
// database.
//
// Search and download are per-track stage handlers executed through
// stageexec, which owns the processing-status bookkeeping and failure
// notifications. Watch re-runs the pipeline whenever new images land in the
// input directory.
package workflow

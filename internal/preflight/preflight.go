package preflight

import (
	"context"
	"os"

	"tunescan/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minLibraryFreeBytes is the free space below which downloads are refused.
const minLibraryFreeBytes = 200 << 20

// RunAll executes the local checks a run needs: state and library
// directories must be writable and the library must have room for downloads.
// A missing input directory passes; it is created on first run.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir),
	}
	if _, err := os.Stat(cfg.Paths.InputDir); os.IsNotExist(err) {
		results = append(results, Result{Name: "Input directory", Passed: true, Detail: cfg.Paths.InputDir + " (will be created)"})
	} else {
		results = append(results, CheckDirectoryAccess("Input directory", cfg.Paths.InputDir))
	}
	results = append(results, CheckFreeSpace("Library free space", cfg.Paths.LibraryDir, minLibraryFreeBytes))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

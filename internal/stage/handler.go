package stage

import (
	"context"

	"tunescan/internal/queue"
)

// Outcome classifies how a stage left a track.
type Outcome string

const (
	// OutcomeDone means the stage advanced the track (found or downloaded).
	OutcomeDone Outcome = "done"
	// OutcomeNotFound means search finished without a usable match.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeDuplicate means the match belonged to another track and this row was dropped.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeSkipped means the user declined the work; the track is unchanged.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeRetry means the stage failed but the track stays eligible.
	OutcomeRetry Outcome = "retry"
	// OutcomeFailed means the track is parked as failed.
	OutcomeFailed Outcome = "failed"
)

// Handler describes the contract the workflow needs from each per-track stage.
//
// Execute performs the work and persists the success transition. Fail is
// called with the Execute error and persists the failure transition,
// returning the status the track ended in.
type Handler interface {
	Execute(context.Context, *queue.Track) (Outcome, error)
	Fail(context.Context, *queue.Track, error) (queue.Status, error)
	HealthCheck(context.Context) Health
}

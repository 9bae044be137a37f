// Package stream converts a run worker's two asynchronous producers, the
// log-event stream and the single-shot result, into one ordered sequence of
// observable states for a caller that cannot block indefinitely.
package stream

import (
	"context"
	"errors"

	"dealhunt/internal/domain/entity"
)

type Phase string

const (
	PhaseRunning   Phase = "running"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
	PhaseTimedOut  Phase = "timed_out"
)

// Terminal reports whether the phase ends the run's state sequence.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed || p == PhaseTimedOut
}

// Result is the single-shot outcome of a run worker. Memory carries the full
// post-run snapshot; the observer never reads the live store directly.
type Result struct {
	Memory []entity.Opportunity
	Err    error
}

// State is one step of a run as seen by the observer. Log is the accumulated
// event buffer in producer order; Table is the most recently observed
// snapshot.
type State struct {
	Log   []string
	Table []entity.Opportunity
	Phase Phase
	Err   error
}

func phaseForError(err error) Phase {
	if errors.Is(err, context.DeadlineExceeded) {
		return PhaseTimedOut
	}

	return PhaseFailed
}

package worker

import (
	"sync"
	"time"

	"dealhunt/internal/stream"
)

// Run is the observable record of one dispatched pipeline run. The dispatcher
// appends multiplexer states as they surface; callers poll with StatesSince
// and never block on the worker.
type Run struct {
	ID        string
	Recipient string
	StartedAt time.Time

	mu     sync.Mutex
	states []stream.State
}

func (r *Run) append(state stream.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states = append(r.states, state)
}

// StatesSince returns the states observed after the given cursor along with
// the next cursor value.
func (r *Run) StatesSince(cursor int) ([]stream.State, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(r.states) {
		cursor = len(r.states)
	}

	out := make([]stream.State, len(r.states)-cursor)
	copy(out, r.states[cursor:])

	return out, len(r.states)
}

// Latest returns the most recent state, if any has surfaced yet.
func (r *Run) Latest() (stream.State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.states) == 0 {
		return stream.State{}, false
	}

	return r.states[len(r.states)-1], true
}

// Terminal reports whether the run has reached a terminal state.
func (r *Run) Terminal() bool {
	state, ok := r.Latest()

	return ok && state.Phase.Terminal()
}

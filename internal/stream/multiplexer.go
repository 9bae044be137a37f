package stream

import (
	"context"

	"dealhunt/internal/domain/entity"
)

// Multiplexer merges a run's log-event channel and its single-shot result
// channel into one ordered state sequence. Log events surface in producer
// order; the terminal state is emitted only after a result has been observed
// and every event that arrived alongside it has been drained, so trailing
// log lines are never dropped.
type Multiplexer struct {
	events  <-chan string
	results <-chan Result
	initial []entity.Opportunity
}

func NewMultiplexer(
	events <-chan string,
	results <-chan Result,
	initial []entity.Opportunity,
) *Multiplexer {
	return &Multiplexer{
		events:  events,
		results: results,
		initial: initial,
	}
}

// Run returns the channel of observable states. The channel closes after the
// terminal state. Cancelling ctx (the run deadline) ends the sequence with a
// timed-out or failed terminal state even if the worker never reports back.
func (m *Multiplexer) Run(ctx context.Context) <-chan State {
	out := make(chan State)

	go m.loop(ctx, out)

	return out
}

func (m *Multiplexer) loop(ctx context.Context, out chan<- State) {
	defer close(out)

	var logs []string

	events := m.events
	table := m.initial

	for {
		select {
		case line, ok := <-events:
			if !ok {
				// Producer went away without a result; keep waiting for one.
				events = nil
				continue
			}

			logs = append(logs, line)

			if !emit(ctx, out, State{Log: logs, Table: table, Phase: PhaseRunning}) {
				emitCancelled(ctx, out, logs, table)
				return
			}

		case result := <-m.results:
			logs, ok := m.drain(ctx, out, events, logs, table)
			if !ok {
				emitCancelled(ctx, out, logs, table)
				return
			}

			emit(context.WithoutCancel(ctx), out, terminalState(result, logs, table))

			return

		case <-ctx.Done():
			emitCancelled(ctx, out, logs, table)

			return
		}
	}
}

// drain consumes the event channel to exhaustion once a result has arrived.
// The worker closes the channel right after reporting, so this ends promptly.
// A false return means the run context died mid-drain; the caller still owes
// the sequence its terminal state.
func (m *Multiplexer) drain(
	ctx context.Context,
	out chan<- State,
	events <-chan string,
	logs []string,
	table []entity.Opportunity,
) ([]string, bool) {
	if events == nil {
		return logs, true
	}

	for {
		select {
		case line, ok := <-events:
			if !ok {
				return logs, true
			}

			logs = append(logs, line)

			if !emit(ctx, out, State{Log: logs, Table: table, Phase: PhaseRunning}) {
				return logs, false
			}

		case <-ctx.Done():
			return logs, false
		}
	}
}

// emitCancelled closes the sequence with the cancellation terminal state. The
// send is detached from the dead run context so the state always lands: every
// exit path of the loop must end in a terminal state, even when cancellation
// and a selectable event race.
func emitCancelled(ctx context.Context, out chan<- State, logs []string, table []entity.Opportunity) {
	emit(context.WithoutCancel(ctx), out, State{
		Log:   logs,
		Table: table,
		Phase: phaseForError(ctx.Err()),
		Err:   ctx.Err(),
	})
}

func terminalState(result Result, logs []string, lastKnown []entity.Opportunity) State {
	if result.Err != nil {
		return State{
			Log:   logs,
			Table: lastKnown,
			Phase: phaseForError(result.Err),
			Err:   result.Err,
		}
	}

	return State{
		Log:   logs,
		Table: result.Memory,
		Phase: PhaseCompleted,
	}
}

func emit(ctx context.Context, out chan<- State, state State) bool {
	select {
	case out <- state:
		return true
	case <-ctx.Done():
		return false
	}
}

package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rs/xid"

	"dealhunt/internal/domain"
	"dealhunt/internal/domain/service/hunt"
	"dealhunt/internal/domain/service/quota"
	"dealhunt/internal/observability"
	"dealhunt/internal/stream"
	"dealhunt/pkg/contextx"
	"dealhunt/pkg/errcodes"
	"dealhunt/pkg/logx"
)

const (
	eventBufferSize = 256

	// Terminal runs stay pollable for this long after dispatch, then are
	// evicted so the run index does not grow for the life of the process.
	runRetention = time.Hour
)

// Dispatcher owns run execution: it enforces at most one active run per
// result store, spawns the dedicated worker goroutine, wires the per-run
// logger into the event channel and folds multiplexer states into the run
// record. Quota is checked before dispatch and incremented only after a run
// completes successfully, so failed attempts do not consume the daily budget.
type Dispatcher struct {
	coordinator *hunt.Coordinator
	gate        *quota.Gate
	metrics     *observability.Metrics
	timeout     time.Duration
	now         func() time.Time

	mu     sync.Mutex
	active *Run
	runs   map[string]*Run
}

func NewDispatcher(
	coordinator *hunt.Coordinator,
	gate *quota.Gate,
	metrics *observability.Metrics,
	timeout time.Duration,
) *Dispatcher {
	return &Dispatcher{
		coordinator: coordinator,
		gate:        gate,
		metrics:     metrics,
		timeout:     timeout,
		now:         time.Now,
		runs:        make(map[string]*Run),
	}
}

// WithClock overrides the time source, for retention tests.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Start dispatches one run on a dedicated worker goroutine and returns its
// record immediately. It fails fast when the daily quota is exhausted or
// another run is still active.
func (d *Dispatcher) Start(ctx context.Context, recipient string) (*Run, error) {
	allowed, remaining := d.gate.CanRun(ctx)
	d.metrics.QuotaRemaining.Set(float64(remaining))

	if !allowed {
		return nil, domain.NewError(errcodes.QuotaExceeded, "daily run limit reached")
	}

	d.mu.Lock()
	if d.active != nil && !d.active.Terminal() {
		d.mu.Unlock()
		return nil, domain.NewError(errcodes.RunInProgress, "another run is still active")
	}

	run := &Run{
		ID:        xid.New().String(),
		Recipient: recipient,
		StartedAt: d.now(),
	}
	d.active = run
	d.runs[run.ID] = run
	d.mu.Unlock()

	d.metrics.RunsStarted.Inc()

	events := make(chan string, eventBufferSize)
	results := make(chan stream.Result, 1)

	// The run outlives the HTTP request that started it; only the run
	// deadline cancels it.
	runCtx := context.WithoutCancel(ctx)

	var cancel context.CancelFunc = func() {}
	if d.timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, d.timeout)
	}

	runCtx = contextx.WithRunID(runCtx, contextx.RunID(run.ID))
	runCtx = contextx.WithLogger(runCtx, d.runLogger(events, run.ID))

	go d.work(runCtx, run, recipient, events, results)
	go d.observe(runCtx, cancel, run, events, results)

	return run, nil
}

// Get returns a previously dispatched run by id.
func (d *Dispatcher) Get(id string) (*Run, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	run, ok := d.runs[id]

	return run, ok
}

// Active returns the currently running dispatch, if any.
func (d *Dispatcher) Active() *Run {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active == nil || d.active.Terminal() {
		return nil
	}

	return d.active
}

// work executes the run to completion on its dedicated goroutine. All worker
// log lines happen before the result send, and the event channel closes
// right after it, which lets the multiplexer drain trailing lines losslessly.
func (d *Dispatcher) work(
	ctx context.Context,
	run *Run,
	recipient string,
	events chan string,
	results chan<- stream.Result,
) {
	logger := contextx.LoggerFromContextOrDefault(ctx)

	before := d.coordinator.Memory()

	memory, err := d.coordinator.Run(ctx, recipient)
	if err != nil {
		logger.Error("run failed", logx.Error(err))
	} else {
		if len(memory) > len(before) {
			d.metrics.Opportunities.Inc()
		}

		if !d.gate.Increment(ctx) {
			logger.Warn("failed to persist run count increment")
		}
	}

	results <- stream.Result{Memory: memory, Err: err}
	close(events)
}

// observe consumes the multiplexer output into the run record and releases
// the active slot once a terminal state lands.
func (d *Dispatcher) observe(
	ctx context.Context,
	cancel context.CancelFunc,
	run *Run,
	events <-chan string,
	results <-chan stream.Result,
) {
	defer cancel()

	mux := stream.NewMultiplexer(events, results, d.coordinator.Memory())

	for state := range mux.Run(ctx) {
		run.append(state)

		if state.Phase.Terminal() {
			d.finish(ctx, run, state)
		}
	}
}

func (d *Dispatcher) finish(ctx context.Context, run *Run, state stream.State) {
	d.metrics.RunsFinished.WithLabelValues(string(state.Phase)).Inc()
	d.metrics.RunDuration.Observe(d.now().Sub(run.StartedAt).Seconds())

	_, remaining := d.gate.CanRun(ctx)
	d.metrics.QuotaRemaining.Set(float64(remaining))

	d.mu.Lock()
	if d.active == run {
		d.active = nil
	}
	d.evictExpiredLocked()
	d.mu.Unlock()
}

// evictExpiredLocked drops terminal runs past the retention window. Must be
// called with d.mu held.
func (d *Dispatcher) evictExpiredLocked() {
	cutoff := d.now().Add(-runRetention)

	for id, run := range d.runs {
		if run.Terminal() && run.StartedAt.Before(cutoff) {
			delete(d.runs, id)
		}
	}
}

func (d *Dispatcher) runLogger(events chan<- string, runID string) *slog.Logger {
	handler := stream.NewChannelHandler(events, slog.LevelInfo)

	return slog.New(handler).With(slog.String(logx.FieldRunID, runID))
}

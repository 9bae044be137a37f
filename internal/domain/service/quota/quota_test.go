package quota_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dealhunt/internal/domain/service/quota"
	"dealhunt/internal/infrastructure/blob"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestGateArithmetic(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	const limit = 3

	gate := quota.NewGate(blob.NewMemoryStore(), limit, time.UTC)

	for used := range limit {
		allowed, remaining := gate.CanRun(ctx)
		rq.True(allowed)
		rq.Equal(limit-used, remaining)

		rq.True(gate.Increment(ctx))
	}

	allowed, remaining := gate.CanRun(ctx)
	rq.False(allowed)
	rq.Equal(0, remaining)

	// Exceeding the cap never reports negative remaining.
	rq.True(gate.Increment(ctx))

	allowed, remaining = gate.CanRun(ctx)
	rq.False(allowed)
	rq.Equal(0, remaining)
}

func TestGateDayRollover(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	loc, err := time.LoadLocation("Asia/Kolkata")
	rq.NoError(err)

	backend := blob.NewMemoryStore()

	day1 := time.Date(2025, 11, 3, 23, 30, 0, 0, loc)

	gate := quota.NewGate(backend, 1, loc).WithClock(fixedClock(day1))

	rq.True(gate.Increment(ctx))

	allowed, _ := gate.CanRun(ctx)
	rq.False(allowed)

	// Crossing midnight in the gate's timezone starts a fresh counter.
	gate.WithClock(fixedClock(day1.Add(time.Hour)))

	allowed, remaining := gate.CanRun(ctx)
	rq.True(allowed)
	rq.Equal(1, remaining)

	// The old day's record is untouched.
	exists, err := backend.Exists(ctx, "workflow_run_2025-11-03.json")
	rq.NoError(err)
	rq.True(exists)

	rq.True(gate.Increment(ctx))

	exists, err = backend.Exists(ctx, "workflow_run_2025-11-04.json")
	rq.NoError(err)
	rq.True(exists)
}

func TestGateIncrementPinsDateAcrossMidnight(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	backend := blob.NewMemoryStore()

	day1 := time.Date(2025, 11, 3, 23, 59, 59, 0, time.UTC)

	// The clock crosses midnight after the first reading: an increment that
	// started on day one must land under day one's record, not leak the old
	// count into day two.
	calls := 0
	steppingClock := func() time.Time {
		calls++
		if calls == 1 {
			return day1
		}

		return day1.Add(time.Minute)
	}

	gate := quota.NewGate(backend, 5, time.UTC).WithClock(steppingClock)

	rq.True(gate.Increment(ctx))

	data, err := backend.Load(ctx, "workflow_run_2025-11-03.json")
	rq.NoError(err)
	rq.Contains(string(data), `"run_count": 1`)

	exists, err := backend.Exists(ctx, "workflow_run_2025-11-04.json")
	rq.NoError(err)
	rq.False(exists)
}

func TestGateFailsOpen(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name string
		gate *quota.Gate
	}{
		{
			name: "unconfigured backend",
			gate: quota.NewGate(nil, 1, time.UTC),
		},
		{
			name: "unreachable backend",
			gate: quota.NewGate(&unreachableStore{}, 1, time.UTC),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			for range 5 {
				allowed, remaining := tc.gate.CanRun(ctx)
				rq.True(allowed)
				rq.Equal(1, remaining)

				tc.gate.Increment(ctx)
			}
		})
	}
}

func TestGateMalformedRecord(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	backend := blob.NewMemoryStore()

	gate := quota.NewGate(backend, 2, time.UTC).
		WithClock(fixedClock(time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)))

	rq.NoError(backend.Save(ctx, "workflow_run_2025-11-03.json", []byte(`{broken`)))

	// An unreadable record counts as zero runs used.
	allowed, remaining := gate.CanRun(ctx)
	rq.True(allowed)
	rq.Equal(2, remaining)
}

func TestGateStatusMessage(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	loc, err := time.LoadLocation("Asia/Kolkata")
	rq.NoError(err)

	gate := quota.NewGate(blob.NewMemoryStore(), 1, loc)

	rq.Equal("✓ 1 runs remaining today", gate.StatusMessage(ctx))

	rq.True(gate.Increment(ctx))

	rq.Equal(
		"✗ Daily limit of 1 runs reached. Resets at 12 AM Asia/Kolkata.",
		gate.StatusMessage(ctx),
	)
}

type unreachableStore struct{}

func (unreachableStore) Exists(context.Context, string) (bool, error) {
	return false, context.DeadlineExceeded
}

func (unreachableStore) Load(context.Context, string) ([]byte, error) {
	return nil, context.DeadlineExceeded
}

func (unreachableStore) Save(context.Context, string, []byte) error {
	return context.DeadlineExceeded
}

package hunt_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"dealhunt/internal/domain"
	"dealhunt/internal/domain/entity"
	"dealhunt/internal/domain/service/hunt"
	"dealhunt/internal/infrastructure/blob"
	"dealhunt/internal/infrastructure/persistence"
	"dealhunt/pkg/errcodes"
)

type plannerStub struct {
	result    *entity.Opportunity
	err       error
	gotMemory []entity.Opportunity
	gotEmail  string
}

func (p *plannerStub) Plan(
	_ context.Context,
	memory []entity.Opportunity,
	recipient string,
) (*entity.Opportunity, error) {
	p.gotMemory = memory
	p.gotEmail = recipient

	return p.result, p.err
}

func newTestStore(t *testing.T) *persistence.ResultStore {
	t.Helper()

	store := persistence.NewResultStore(blob.NewMemoryStore(), "deal_memory.json")
	require.NoError(t, store.Load(context.Background()))

	return store
}

func TestCoordinatorRunAppendsResult(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	loc, err := time.LoadLocation("Asia/Kolkata")
	rq.NoError(err)

	found := &entity.Opportunity{
		Deal: entity.Deal{
			ProductDescription: "Bluetooth speaker",
			Price:              decimal.RequireFromString("100.00"),
			URL:                "https://deals.example/speaker",
		},
		Estimate: decimal.RequireFromString("115.00"),
		Discount: decimal.RequireFromString("15.00"),
	}

	planner := &plannerStub{result: found}
	stamp := time.Date(2025, 11, 3, 10, 30, 0, 0, loc)

	coordinator := hunt.NewCoordinator(planner, newTestStore(t), loc).
		WithClock(func() time.Time { return stamp })

	memory, err := coordinator.Run(ctx, "user@example.com")
	rq.NoError(err)
	rq.Len(memory, 1)

	rq.Empty(planner.gotMemory)
	rq.Equal("user@example.com", planner.gotEmail)

	got := memory[0]
	rq.True(got.Discount.Equal(decimal.RequireFromString("15.00")))
	rq.NotNil(got.AddedAt)
	rq.True(got.AddedAt.Equal(stamp))

	// A second run sees the grown memory.
	planner.result = nil

	memory, err = coordinator.Run(ctx, "user@example.com")
	rq.NoError(err)
	rq.Len(memory, 1)
	rq.Len(planner.gotMemory, 1)
}

func TestCoordinatorRunNoOpportunity(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	planner := &plannerStub{result: nil}

	coordinator := hunt.NewCoordinator(planner, newTestStore(t), time.UTC)

	memory, err := coordinator.Run(ctx, "user@example.com")
	rq.NoError(err)
	rq.Empty(memory)
	rq.Equal(0, len(coordinator.Memory()))
}

func TestCoordinatorRunPlannerFailure(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	errBoom := errors.New("boom")
	planner := &plannerStub{err: errBoom}

	coordinator := hunt.NewCoordinator(planner, newTestStore(t), time.UTC)

	_, err := coordinator.Run(ctx, "user@example.com")
	rq.Error(err)
	rq.ErrorIs(err, errBoom)

	var appErr *domain.AppError
	rq.ErrorAs(err, &appErr)
	rq.Equal(errcodes.PlanningFailed, appErr.Code)

	// A failed run leaves memory untouched.
	rq.Empty(coordinator.Memory())
}

func TestCoordinatorInconsistentDiscountStoredAsSupplied(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	planner := &plannerStub{result: &entity.Opportunity{
		Deal: entity.Deal{
			ProductDescription: "Mispriced gadget",
			Price:              decimal.RequireFromString("100.00"),
			URL:                "https://deals.example/gadget",
		},
		Estimate: decimal.RequireFromString("115.00"),
		Discount: decimal.RequireFromString("99.00"),
	}}

	coordinator := hunt.NewCoordinator(planner, newTestStore(t), time.UTC)

	memory, err := coordinator.Run(ctx, "user@example.com")
	rq.NoError(err)
	rq.Len(memory, 1)

	// The mismatch is logged, never corrected.
	rq.True(memory[0].Discount.Equal(decimal.RequireFromString("99.00")))
	rq.False(memory[0].ConsistentDiscount())
}

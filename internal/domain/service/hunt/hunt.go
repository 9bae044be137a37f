// Package hunt drives one pipeline attempt: ask the planner for a new
// opportunity and fold the answer into the result store.
package hunt

import (
	"context"
	"time"

	"dealhunt/internal/domain"
	"dealhunt/internal/domain/entity"
	"dealhunt/internal/infrastructure/persistence"
	"dealhunt/pkg/contextx"
	"dealhunt/pkg/errcodes"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Planner decides whether a new opportunity exists given accumulated memory.
// It may block on external calls; implementations must honor ctx.
type Planner interface {
	Plan(ctx context.Context, memory []entity.Opportunity, recipient string) (*entity.Opportunity, error)
}

// Coordinator executes one run. It is not internally synchronized: at most
// one run may drive it at a time per result store, and serialization is the
// dispatcher's responsibility.
type Coordinator struct {
	planner Planner
	store   *persistence.ResultStore
	loc     *time.Location
	now     func() time.Time
}

func NewCoordinator(planner Planner, store *persistence.ResultStore, loc *time.Location) *Coordinator {
	return &Coordinator{
		planner: planner,
		store:   store,
		loc:     loc,
		now:     time.Now,
	}
}

// WithClock overrides the time source used for added-at stamps, for tests.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// Run performs one planner attempt. A returned opportunity is stamped with
// the current fixed-timezone timestamp, appended and the updated full
// sequence returned; no opportunity returns the unchanged sequence. Planner
// failures are not retried and propagate as a failed run.
func (c *Coordinator) Run(ctx context.Context, recipient string) ([]entity.Opportunity, error) {
	logger(ctx).Info("kicking off planner", "memory-size", c.store.Len())

	result, err := c.planner.Plan(ctx, c.store.Snapshot(), recipient)
	if err != nil {
		return nil, domain.WrapError(err, errcodes.PlanningFailed, "planner failed")
	}

	if result == nil {
		logger(ctx).Info("planner completed, no opportunity found")
		return c.store.Snapshot(), nil
	}

	logger(ctx).Info("planner completed",
		"description", result.Deal.ProductDescription,
		"price", result.Deal.Price.String(),
		"discount", result.Discount.String(),
	)

	// Discount is stored as the planner supplied it; a mismatch with
	// estimate - price is surfaced for an operator, not corrected.
	if !result.ConsistentDiscount() {
		logger(ctx).Warn("discount does not equal estimate minus price",
			"estimate", result.Estimate.String(),
			"price", result.Deal.Price.String(),
			"discount", result.Discount.String(),
		)
	}

	addedAt := c.now().In(c.loc)
	result.AddedAt = &addedAt

	c.store.Append(ctx, *result)

	return c.store.Snapshot(), nil
}

// Memory returns the current full sequence of discovered opportunities.
func (c *Coordinator) Memory() []entity.Opportunity {
	return c.store.Snapshot()
}

// Location returns the fixed timezone used for added-at stamps.
func (c *Coordinator) Location() *time.Location {
	return c.loc
}

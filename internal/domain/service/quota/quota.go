// Package quota bounds the number of permitted pipeline runs per calendar
// day. Counter records live in the snapshot store, one object per date in the
// configured timezone; crossing midnight in that timezone starts a fresh
// counter with no carryover.
package quota

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"dealhunt/internal/domain/entity"
	"dealhunt/internal/infrastructure/blob"
	"dealhunt/pkg/contextx"
	"dealhunt/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const dateLayout = "2006-01-02"

// Gate is the daily run counter. It fails open: when the counter backend is
// absent or unreachable the current count reads as zero and runs are always
// permitted. The availability-over-strictness tradeoff is deliberate.
type Gate struct {
	store blob.Store // nil means rate limiting is unconfigured
	limit int
	loc   *time.Location
	now   func() time.Time

	// Serializes read-modify-write so concurrent increments within this
	// process cannot under-count. The gate is the counter's single writer.
	mu sync.Mutex
}

func NewGate(store blob.Store, limit int, loc *time.Location) *Gate {
	return &Gate{
		store: store,
		limit: limit,
		loc:   loc,
		now:   time.Now,
	}
}

// WithClock overrides the time source, for rollover tests.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// CanRun reports whether another run is permitted today and how many remain.
func (g *Gate) CanRun(ctx context.Context) (bool, int) {
	count := g.readRunCount(ctx, g.currentDate())

	remaining := max(0, g.limit-count)

	return count < g.limit, remaining
}

// Increment bumps today's counter by one and reports whether the write stuck.
// The date is pinned once so a midnight crossing between the read and the
// write cannot carry the old day's count into the new day's record.
func (g *Gate) Increment(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	date := g.currentDate()

	return g.writeRunCount(ctx, date, g.readRunCount(ctx, date)+1)
}

// Limit returns the configured daily cap.
func (g *Gate) Limit() int {
	return g.limit
}

// StatusMessage is a human-readable summary derived from CanRun; it is not
// itself a source of truth.
func (g *Gate) StatusMessage(ctx context.Context) string {
	allowed, remaining := g.CanRun(ctx)
	if allowed {
		return fmt.Sprintf("✓ %d runs remaining today", remaining)
	}

	return fmt.Sprintf("✗ Daily limit of %d runs reached. Resets at 12 AM %s.", g.limit, g.loc.String())
}

func (g *Gate) currentDate() string {
	return g.now().In(g.loc).Format(dateLayout)
}

func recordName(date string) string {
	return fmt.Sprintf("workflow_run_%s.json", date)
}

func (g *Gate) readRunCount(ctx context.Context, date string) int {
	if g.store == nil {
		logger(ctx).Warn("quota backend not configured, rate limiting disabled")
		return 0
	}

	data, err := g.store.Load(ctx, recordName(date))
	if errors.Is(err, blob.ErrNotExist) {
		return 0
	}
	if err != nil {
		logger(ctx).Error("read run count", logx.Error(err))
		return 0
	}

	var record entity.QuotaRecord
	if err := json.Unmarshal(data, &record); err != nil {
		logger(ctx).Error("malformed quota record", logx.Error(err))
		return 0
	}

	return record.RunCount
}

func (g *Gate) writeRunCount(ctx context.Context, date string, count int) bool {
	if g.store == nil {
		return true
	}

	record := entity.QuotaRecord{
		Date:        date,
		RunCount:    count,
		LastUpdated: g.now().In(g.loc),
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		logger(ctx).Error("marshal quota record", logx.Error(err))
		return false
	}

	if err := g.store.Save(ctx, recordName(date), data); err != nil {
		logger(ctx).Error("write run count", logx.Error(err))
		return false
	}

	return true
}

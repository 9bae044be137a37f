package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Opportunity is a Deal paired with the planner's estimate of its true value
// and the resulting discount. Discount is stored as supplied by the planner
// and is not re-derived from estimate - price.
type Opportunity struct {
	Deal     Deal            `json:"deal"`
	Estimate decimal.Decimal `json:"estimate"`
	Discount decimal.Decimal `json:"discount"`

	// AddedAt is stamped exactly once, at the moment of successful append.
	// Entries loaded from older snapshots may have no timestamp.
	AddedAt *time.Time `json:"added_at,omitempty"`
}

// ConsistentDiscount reports whether discount matches estimate - price.
func (o Opportunity) ConsistentDiscount() bool {
	return o.Discount.Equal(o.Estimate.Sub(o.Deal.Price))
}

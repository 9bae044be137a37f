package server

import (
	"sort"
	"time"

	"dealhunt/internal/domain/entity"
	"dealhunt/pkg/lox"
	"dealhunt/pkg/rest"
)

func newRESTTable(opportunities []entity.Opportunity) []rest.Opportunity {
	if opportunities == nil {
		return []rest.Opportunity{}
	}

	return lox.Map(opportunities, newRESTOpportunity)
}

func newRESTOpportunity(o entity.Opportunity) rest.Opportunity {
	out := rest.Opportunity{
		ProductDescription: o.Deal.ProductDescription,
		Price:              o.Deal.Price.StringFixed(2),
		Estimate:           o.Estimate.StringFixed(2),
		Discount:           o.Discount.StringFixed(2),
		URL:                o.Deal.URL,
	}

	if o.AddedAt != nil {
		out.AddedAt = o.AddedAt.Format(time.RFC3339)
	}

	return out
}

// sortedLatestFirst orders the table newest first. Entries without a
// timestamp come from snapshots written before timestamps were recorded and
// sort last, keeping their stored order.
func sortedLatestFirst(opportunities []entity.Opportunity) []entity.Opportunity {
	out := make([]entity.Opportunity, len(opportunities))
	copy(out, opportunities)

	sort.SliceStable(out, func(i, j int) bool {
		switch {
		case out[i].AddedAt == nil:
			return false
		case out[j].AddedAt == nil:
			return true
		default:
			return out[i].AddedAt.After(*out[j].AddedAt)
		}
	})

	return out
}

package persistence

import (
	"time"

	"github.com/shopspring/decimal"

	"dealhunt/internal/domain/entity"
)

// opportunitySchema maps a snapshot array element. Timestamps travel as
// ISO-8601 strings; an absent or unparseable added_at loads as nil rather
// than failing the whole snapshot.
type opportunitySchema struct {
	Deal     dealSchema      `json:"deal"`
	Estimate decimal.Decimal `json:"estimate"`
	Discount decimal.Decimal `json:"discount"`
	AddedAt  string          `json:"added_at,omitempty"`
}

type dealSchema struct {
	ProductDescription string          `json:"product_description"`
	Price              decimal.Decimal `json:"price"`
	URL                string          `json:"url"`
}

func fromOpportunity(o entity.Opportunity) opportunitySchema {
	s := opportunitySchema{
		Deal: dealSchema{
			ProductDescription: o.Deal.ProductDescription,
			Price:              o.Deal.Price,
			URL:                o.Deal.URL,
		},
		Estimate: o.Estimate,
		Discount: o.Discount,
	}

	if o.AddedAt != nil {
		s.AddedAt = o.AddedAt.Format(time.RFC3339)
	}

	return s
}

func (s opportunitySchema) toDomain() entity.Opportunity {
	o := entity.Opportunity{
		Deal: entity.Deal{
			ProductDescription: s.Deal.ProductDescription,
			Price:              s.Deal.Price,
			URL:                s.Deal.URL,
		},
		Estimate: s.Estimate,
		Discount: s.Discount,
	}

	if s.AddedAt != "" {
		if ts, err := time.Parse(time.RFC3339, s.AddedAt); err == nil {
			o.AddedAt = &ts
		}
	}

	return o
}

package entity

import "github.com/shopspring/decimal"

// Deal is an observed market item: what it is, what it costs, where it lives.
// Immutable once created.
type Deal struct {
	ProductDescription string          `json:"product_description"`
	Price              decimal.Decimal `json:"price"`
	URL                string          `json:"url"`
}

// This file should eventually be generated from the openapi spec as types.gen.go
package rest

type StartRunRequest struct {
	// Recipient receives deal notifications for opportunities found by this
	// run; required, must be a valid email address.
	Recipient string `json:"recipient" validate:"required,email"`
}

type StartRunResponse struct {
	RunID string `json:"runId"`
}

type RunEventsResponse struct {
	RunID      string        `json:"runId"`
	Phase      string        `json:"phase"`
	Log        []string      `json:"log"`
	NextCursor int           `json:"nextCursor"`
	Table      []Opportunity `json:"table"`
	Quota      string        `json:"quota,omitempty"`
	Error      string        `json:"error,omitempty"`
}

type Opportunity struct {
	ProductDescription string `json:"productDescription"`
	Price              string `json:"price"`
	Estimate           string `json:"estimate"`
	Discount           string `json:"discount"`
	URL                string `json:"url"`
	AddedAt            string `json:"addedAt,omitempty"`
}

type OpportunitiesResponse struct {
	Opportunities []Opportunity `json:"opportunities"`
}

type QuotaResponse struct {
	Allowed   bool   `json:"allowed"`
	Remaining int    `json:"remaining"`
	Limit     int    `json:"limit"`
	Message   string `json:"message"`
}

type ResetMemoryRequest struct {
	// Keep is the number of leading entries to preserve.
	Keep int `json:"keep" validate:"min=0"`
}

// Error Error model
type Error struct {
	// Code Error code
	Code ErrorCode `json:"code"`

	// Message Error message (for future display in a UI)
	Message string `json:"message"`
}

// ErrorCode Error code
type ErrorCode string

package entity

import "time"

// QuotaRecord is the persisted daily run counter. Keyed by calendar date in
// the configured timezone; a record for one date is never consulted on another.
type QuotaRecord struct {
	Date        string    `json:"date"`
	RunCount    int       `json:"run_count"`
	LastUpdated time.Time `json:"last_updated"`
}

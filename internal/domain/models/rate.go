package models

import (
	"time"

	"RateWatch/pkg/util"
)

// RateObservation is one recorded market interest-rate figure for a
// given date and loan term. Unique per (ObservedDate, TermYears).
type RateObservation struct {
	ObservedDate string    `json:"observed_date"` // YYYY-MM-DD
	RateType     string    `json:"rate_type"`
	RateValue    float64   `json:"rate_value"` // percent
	TermYears    int       `json:"term_years"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// RateInRange reports whether v is a plausible mortgage rate, strictly
// in (0, 15] percent. Values outside never reach the store.
func RateInRange(v float64) bool {
	return v > 0 && v <= 15
}

// Validate checks the observation invariants before persistence.
func (o *RateObservation) Validate() error {
	if !RateInRange(o.RateValue) {
		return NewFetchError(FetchKindOutOfRange, "rate %.3f outside (0, 15]", o.RateValue)
	}
	if o.TermYears <= 0 {
		return NewFetchError(FetchKindParse, "term years %d must be positive", o.TermYears)
	}
	if !util.ValidDate(o.ObservedDate) {
		return NewFetchError(FetchKindParse, "observed date %q not YYYY-MM-DD", o.ObservedDate)
	}
	return nil
}

// RefinanceOpportunity reports whether the market rate is strictly
// below a client's locked-in rate. Equal rates are not an opportunity.
// Both the analytics engine and the alert dispatcher use this single
// predicate so the two cannot drift.
func RefinanceOpportunity(currentRate, marketRate float64) bool {
	return marketRate < currentRate
}

package models

// LatestRateRequest queries the most recent observation for a term.
type LatestRateRequest struct {
	TermYears int `query:"term_years" json:"term_years" default:"30" validate:"gt=0"`
}

// RateHistoryRequest queries the recent observation series.
type RateHistoryRequest struct {
	TermYears int `query:"term_years" json:"term_years" default:"30" validate:"gt=0"`
	Days      int `query:"days" json:"days" default:"30" validate:"min=1,max=365"`
}

// AlertCheckRequest asks for a refinance-opportunity check on one client.
type AlertCheckRequest struct {
	ClientID string `json:"clientId" validate:"required"`
}

// RunSummary reports the outcome of one scheduled ingestion cycle.
type RunSummary struct {
	Ran         bool             `json:"ran"`
	SkipReason  string           `json:"skipReason,omitempty"`
	Observation *RateObservation `json:"observation,omitempty"`
	DurationMS  int64            `json:"durationMs"`
}

// SweepSummary reports a portfolio-wide alert sweep.
type SweepSummary struct {
	Checked  int `json:"checked"`
	Notified int `json:"notified"`
}

package models

// RateDistribution buckets mortgage-bearing clients into rate bands.
// Bands are mutually exclusive and cover every mortgage-bearing client
// exactly once: <4, [4,5), [5,6), >=6 percent.
type RateDistribution struct {
	Below4 int `json:"below4"`
	Below5 int `json:"below5"`
	Below6 int `json:"below6"`
	Above6 int `json:"above6"`
}

// AnalyticsSnapshot is an ephemeral aggregate over one broker's client
// set and one market observation. Computed on demand, never persisted.
type AnalyticsSnapshot struct {
	TotalClients       int              `json:"totalClients"`
	TotalLoanAmount    float64          `json:"totalLoanAmount"`
	AverageRate        float64          `json:"averageRate"`
	ClientsAboveMarket int              `json:"clientsAboveMarket"`
	PotentialSavings   float64          `json:"potentialSavings"`
	RateDistribution   RateDistribution `json:"rateDistribution"`
	MarketRate         float64          `json:"marketRate"`
}

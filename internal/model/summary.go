package model

// PerformanceSummary holds the derived statistics for one normalized series.
// It is recomputed from the exact series handed to the presentation layer on
// every request and is never cached independently.
type PerformanceSummary struct {
	StartClose     float64 `json:"startClose"`
	EndClose       float64 `json:"endClose"`
	TotalReturnPct float64 `json:"totalReturnPct"`
	MaxClose       float64 `json:"maxClose"`
	MinClose       float64 `json:"minClose"`
	// Volatility is the sample standard deviation (divisor n-1) of the
	// closing prices. It is a dispersion proxy, not an annualized measure.
	Volatility float64 `json:"volatility"`
	Points     int     `json:"points"`
}

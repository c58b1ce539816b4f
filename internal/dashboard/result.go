package dashboard

import (
	"context"
	"errors"

	"MarketLens/internal/model"
	"MarketLens/internal/recorder"
)

// State tracks a single ticker request through its pipeline.
// Requested -> Fetching -> Normalizing -> Analyzed | Failed.
type State string

const (
	StateRequested   State = "requested"
	StateFetching    State = "fetching"
	StateNormalizing State = "normalizing"
	StateAnalyzed    State = "analyzed"
	StateFailed      State = "failed"
)

// BatchRequest asks for a normalized, analyzed dataset for a set of tickers.
type BatchRequest struct {
	Tickers []string     `json:"tickers"`
	Period  model.Period `json:"period"`
	// Currency overrides the configured reporting currency when set.
	Currency string `json:"reportingCurrency,omitempty"`
}

// TickerResult is the terminal outcome for one ticker. Either Series and
// Summary are set (State == Analyzed) or Err is set (State == Failed).
type TickerResult struct {
	Ticker  string
	State   State
	Series  *model.NormalizedSeries
	Summary *model.PerformanceSummary
	Profile *model.CompanyProfile
	Err     error
}

// Reason maps the failure to its wire name, or "" on success.
func (r *TickerResult) Reason() string {
	switch {
	case r.Err == nil:
		return ""
	case errors.Is(r.Err, model.ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(r.Err, model.ErrConversionUnavailable):
		return "conversion_unavailable"
	case errors.Is(r.Err, model.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(r.Err, model.ErrUnknownMarket):
		return "unknown_market"
	case errors.Is(r.Err, context.Canceled), errors.Is(r.Err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal_error"
	}
}

// BatchResult aggregates per-ticker outcomes. Results are keyed by ticker;
// completion order carries no meaning.
type BatchResult struct {
	ID       string
	Period   model.Period
	Currency string
	Results  map[string]*TickerResult
}

// Analyzed returns the number of tickers that reached the Analyzed state.
func (b *BatchResult) Analyzed() int {
	n := 0
	for _, r := range b.Results {
		if r.State == StateAnalyzed {
			n++
		}
	}
	return n
}

// Failed returns the number of tickers that terminated in Failed.
func (b *BatchResult) Failed() int {
	return len(b.Results) - b.Analyzed()
}

// NoData reports whether no ticker in the batch produced data; callers
// surface this as a single aggregate outcome.
func (b *BatchResult) NoData() bool {
	return b.Analyzed() == 0
}

// Record converts the batch into its diagnostic audit form.
func (b *BatchResult) Record() *recorder.BatchRecord {
	rec := &recorder.BatchRecord{
		ID:        b.ID,
		Period:    string(b.Period),
		Currency:  b.Currency,
		Requested: len(b.Results),
		Analyzed:  b.Analyzed(),
	}
	rec.Failed = rec.Requested - rec.Analyzed
	for _, r := range b.Results {
		tr := recorder.TickerRecord{
			Ticker: r.Ticker,
			State:  string(r.State),
			Reason: r.Reason(),
		}
		if r.Series != nil {
			tr.Points = len(r.Series.Points)
		}
		if r.Summary != nil {
			tr.TotalReturn = r.Summary.TotalReturnPct
			tr.MaxClose = r.Summary.MaxClose
			tr.MinClose = r.Summary.MinClose
			tr.Volatility = r.Summary.Volatility
		}
		rec.Results = append(rec.Results, tr)
	}
	return rec
}

// Package normalize aligns a price series with an FX rate series on a common
// trading-day index and converts prices into the reporting currency.
//
// Alignment policy: rates are forward-filled across gaps inside the FX
// series' known range (the exchange trades on days the FX provider lacks,
// e.g. local holidays on one market only). Price dates before the first known
// rate or after the last known rate are dropped — a rate must exist at or
// before the date and is never extrapolated past the provider's latest quote.
package normalize

import (
	"fmt"
	"math"

	"MarketLens/internal/model"
)

// Convert returns the series with open/high/low/close divided by the aligned
// rate and restricted to the valid-date intersection. Volume is never
// converted. An empty intersection yields ErrConversionUnavailable rather
// than an empty series silently treated as valid.
func Convert(series *model.PriceSeries, fx *model.FxRateSeries, target string) (*model.NormalizedSeries, error) {
	rates := validRates(fx.Points)
	if len(rates) == 0 {
		return nil, fmt.Errorf("%s: no usable rates for %s: %w", series.Symbol, fx.Pair, model.ErrConversionUnavailable)
	}
	lastKnown := rates[len(rates)-1].Date

	out := make([]model.PricePoint, 0, len(series.Points))
	j := 0
	var rate float64
	haveRate := false

	for _, p := range series.Points {
		for j < len(rates) && !rates[j].Date.After(p.Date) {
			rate = rates[j].Rate
			haveRate = true
			j++
		}
		if !haveRate || p.Date.After(lastKnown) {
			continue
		}
		out = append(out, model.PricePoint{
			Date:   p.Date,
			Open:   p.Open / rate,
			High:   p.High / rate,
			Low:    p.Low / rate,
			Close:  p.Close / rate,
			Volume: p.Volume,
		})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no overlapping dates with %s: %w", series.Symbol, fx.Pair, model.ErrConversionUnavailable)
	}
	return &model.NormalizedSeries{
		Symbol:   series.Symbol,
		Currency: target,
		Points:   out,
	}, nil
}

// ConvertSpot converts a point-in-time value (current price, market cap) with
// the latest known rate. A non-positive or non-finite rate leaves the value
// unconverted and reports it as stale rather than silently wrong.
func ConvertSpot(value, rate float64) (converted float64, stale bool) {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return value, true
	}
	return value / rate, false
}

// validRates drops non-positive and non-finite quotes so no aligned date can
// carry an unusable rate.
func validRates(points []model.FxRate) []model.FxRate {
	out := make([]model.FxRate, 0, len(points))
	for _, r := range points {
		if r.Rate > 0 && !math.IsNaN(r.Rate) && !math.IsInf(r.Rate, 0) {
			out = append(out, r)
		}
	}
	return out
}

// Package calculator derives performance statistics from a normalized price
// series. Results are recomputed fresh for every request so they always
// reflect the exact series handed to the presentation layer.
package calculator

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"MarketLens/internal/model"
)

// TotalReturn computes (last-first)/first*100 over closing prices. It is
// defined only for series with at least two points and a non-zero first close.
func TotalReturn(closes []float64) (float64, error) {
	if len(closes) < 2 {
		return 0, model.ErrInsufficientData
	}
	first, last := closes[0], closes[len(closes)-1]
	if first == 0 {
		return 0, model.ErrInsufficientData
	}
	return (last - first) / first * 100, nil
}

// CloseRange returns the maximum and minimum closing price over the series.
func CloseRange(closes []float64) (max, min float64, err error) {
	if len(closes) == 0 {
		return 0, 0, model.ErrInsufficientData
	}
	max = math.Inf(-1)
	min = math.Inf(1)
	for _, c := range closes {
		if c > max {
			max = c
		}
		if c < min {
			min = c
		}
	}
	return max, min, nil
}

// Volatility returns the sample standard deviation (divisor n-1) of the
// closing prices. This matches the dashboard's dispersion column; it is not
// an annualized measure.
func Volatility(closes []float64) float64 {
	if len(closes) < 2 {
		return 0
	}
	return stat.StdDev(closes, nil)
}

// Summarize computes the full performance summary over the closing prices of
// a series already expressed in the reporting currency.
func Summarize(points []model.PricePoint) (*model.PerformanceSummary, error) {
	closes := extractCloses(points)

	ret, err := TotalReturn(closes)
	if err != nil {
		return nil, err
	}
	max, min, err := CloseRange(closes)
	if err != nil {
		return nil, err
	}

	return &model.PerformanceSummary{
		StartClose:     closes[0],
		EndClose:       closes[len(closes)-1],
		TotalReturnPct: ret,
		MaxClose:       max,
		MinClose:       min,
		Volatility:     Volatility(closes),
		Points:         len(closes),
	}, nil
}

func extractCloses(points []model.PricePoint) []float64 {
	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Close
	}
	return closes
}

package model

import "time"

// PricePoint is a single daily OHLCV bar. Price fields are denominated in the
// currency of the series the point belongs to; Volume is a share count and is
// never currency-converted.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries holds the raw bars fetched for one ticker, strictly increasing
// by date with no duplicates. A series is immutable once fetched; the cache
// owns it and hands out read-only references.
type PriceSeries struct {
	Symbol    string
	Currency  string
	Points    []PricePoint
	FetchedAt time.Time
}

// FxRate is a single daily exchange rate quote.
type FxRate struct {
	Date time.Time
	Rate float64
}

// FxRateSeries holds daily rates for converting a source currency into the
// reporting currency, ordered ascending by date.
type FxRateSeries struct {
	Pair      string
	Points    []FxRate
	FetchedAt time.Time
}

// NormalizedSeries is a price series whose open/high/low/close have been
// divided by the aligned FX rate. Its date domain is always a subset of the
// intersection of the original price dates and the forward-filled FX dates.
type NormalizedSeries struct {
	Symbol   string       `json:"symbol"`
	Currency string       `json:"currency"`
	Points   []PricePoint `json:"points"`
}

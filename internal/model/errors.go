package model

import "errors"

// Failure taxonomy for a single ticker pipeline. All of these are per-ticker
// and never abort the surrounding batch.
var (
	// ErrDataUnavailable indicates a provider returned nothing or errored.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrConversionUnavailable indicates no overlapping valid dates remained
	// after FX alignment. The unconverted series is never substituted.
	ErrConversionUnavailable = errors.New("currency conversion unavailable")

	// ErrInsufficientData indicates fewer than two valid closing prices.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrUnknownMarket indicates a ticker suffix with no entry in the market
	// table. The source currency is never guessed.
	ErrUnknownMarket = errors.New("unknown market")
)

package collector

import (
	"context"

	"MarketLens/internal/model"
)

// MarketFetcher defines the interface for fetching raw price series and
// issuer metadata for a ticker. Implementations must return bars in ascending
// date order without duplicates; gaps (holidays, missing days) are allowed.
type MarketFetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, period model.Period) ([]model.PricePoint, error)
	FetchProfile(ctx context.Context, symbol string) (*model.CompanyProfile, error)
	Name() string
}

// RateFetcher defines the interface for fetching daily FX rate series and the
// latest spot rate for a currency pair. Same ordering guarantees as
// MarketFetcher.
type RateFetcher interface {
	FetchRates(ctx context.Context, pair string, period model.Period) ([]model.FxRate, error)
	FetchLatestRate(ctx context.Context, pair string) (float64, error)
}

// PairSymbol returns the provider symbol quoting units of source currency per
// one unit of reporting currency, so dividing a source-currency price by the
// rate yields the reporting-currency price.
func PairSymbol(source, reporting string) string {
	if reporting == "USD" {
		// Yahoo quotes "KRW=X" as KRW per USD.
		return source + "=X"
	}
	return reporting + source + "=X"
}

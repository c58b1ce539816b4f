package collector

import (
	"context"
	"time"

	"MarketLens/internal/model"
)

// MockMarketFetcher returns controllable fixed data for development and testing.
type MockMarketFetcher struct {
	Bars    []model.PricePoint
	Profile *model.CompanyProfile
	Err     error

	// FetchCalls counts FetchDailyBars invocations.
	FetchCalls int
}

func (m *MockMarketFetcher) Name() string { return "mock" }

func (m *MockMarketFetcher) FetchDailyBars(_ context.Context, symbol string, _ model.Period) ([]model.PricePoint, error) {
	m.FetchCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	return GenerateBars(100, 30, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)), nil
}

func (m *MockMarketFetcher) FetchProfile(_ context.Context, symbol string) (*model.CompanyProfile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Profile != nil {
		return m.Profile, nil
	}
	return &model.CompanyProfile{Symbol: symbol, Name: symbol}, nil
}

// MockRateFetcher returns fixed FX data for testing.
type MockRateFetcher struct {
	Rates      []model.FxRate
	Latest     float64
	Err        error
	LatestErr  error
	FetchCalls int
}

func (m *MockRateFetcher) FetchRates(_ context.Context, _ string, _ model.Period) ([]model.FxRate, error) {
	m.FetchCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Rates, nil
}

func (m *MockRateFetcher) FetchLatestRate(_ context.Context, _ string) (float64, error) {
	if m.LatestErr != nil {
		return 0, m.LatestErr
	}
	return m.Latest, nil
}

// GenerateBars builds a synthetic daily series around a base price.
func GenerateBars(basePrice float64, count int, start time.Time) []model.PricePoint {
	bars := make([]model.PricePoint, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.PricePoint{
			Date:   start.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketLens/internal/cache"
	"MarketLens/internal/model"
	"MarketLens/internal/recorder"
)

// stubMarket serves per-symbol canned bars, so batch tests can mix healthy
// and broken tickers.
type stubMarket struct {
	bars     map[string][]model.PricePoint
	errs     map[string]error
	profiles map[string]*model.CompanyProfile
}

func (s *stubMarket) Name() string { return "stub" }

func (s *stubMarket) FetchDailyBars(_ context.Context, symbol string, _ model.Period) ([]model.PricePoint, error) {
	if err := s.errs[symbol]; err != nil {
		return nil, err
	}
	return s.bars[symbol], nil
}

func (s *stubMarket) FetchProfile(_ context.Context, symbol string) (*model.CompanyProfile, error) {
	if p := s.profiles[symbol]; p != nil {
		return p, nil
	}
	return &model.CompanyProfile{Symbol: symbol, Name: symbol}, nil
}

type stubRates struct {
	rates     map[string][]model.FxRate
	errs      map[string]error
	latest    map[string]float64
	latestErr error
}

func (s *stubRates) FetchRates(_ context.Context, pair string, _ model.Period) ([]model.FxRate, error) {
	if err := s.errs[pair]; err != nil {
		return nil, err
	}
	return s.rates[pair], nil
}

func (s *stubRates) FetchLatestRate(_ context.Context, pair string) (float64, error) {
	if s.latestErr != nil {
		return 0, s.latestErr
	}
	return s.latest[pair], nil
}

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func bars(closes ...float64) []model.PricePoint {
	out := make([]model.PricePoint, len(closes))
	for i, c := range closes {
		out[i] = model.PricePoint{Date: day(i + 1), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return out
}

func newTestService(market *stubMarket, rates *stubRates) *Service {
	return New(ServiceConfig{
		Market:            market,
		Rates:             rates,
		Bars:              cache.New[[]model.PricePoint](time.Second, zerolog.Nop()),
		Fx:                cache.New[[]model.FxRate](time.Second, zerolog.Nop()),
		Markets:           map[string]string{".KS": "KRW", ".T": "JPY"},
		ReportingCurrency: "USD",
		MaxConcurrent:     2,
		Recorder:          recorder.NewNoopRecorder(),
		Logger:            zerolog.Nop(),
	})
}

func TestAnalyze_SameCurrencyPassthrough(t *testing.T) {
	market := &stubMarket{bars: map[string][]model.PricePoint{
		"AAPL": bars(100, 105, 110),
	}}
	svc := newTestService(market, &stubRates{})

	batch, err := svc.Analyze(context.Background(), BatchRequest{Tickers: []string{"AAPL"}, Period: model.Period1y})
	require.NoError(t, err)
	require.Len(t, batch.Results, 1)

	res := batch.Results["AAPL"]
	require.Equal(t, StateAnalyzed, res.State)
	require.NotNil(t, res.Series)
	assert.Equal(t, "USD", res.Series.Currency)
	// No conversion happened; closes are byte-for-byte the provider's.
	assert.InDelta(t, 110.0, res.Series.Points[2].Close, 1e-12)
	assert.InDelta(t, 10.0, res.Summary.TotalReturnPct, 1e-9)
	assert.Equal(t, 0, batch.Failed())
}

func TestAnalyze_ForeignCurrencyConversion(t *testing.T) {
	// KRW prices with rates at days {1,3,5}: alignment forward-fills to
	// {100,100,110,110,105}.
	market := &stubMarket{bars: map[string][]model.PricePoint{
		"005930.KS": bars(70000, 70000, 70000, 70000, 70000),
	}}
	rates := &stubRates{
		rates: map[string][]model.FxRate{
			"KRW=X": {
				{Date: day(1), Rate: 100},
				{Date: day(3), Rate: 110},
				{Date: day(5), Rate: 105},
			},
		},
		latest: map[string]float64{"KRW=X": 105},
	}
	svc := newTestService(market, rates)

	batch, err := svc.Analyze(context.Background(), BatchRequest{Tickers: []string{"005930.KS"}, Period: model.Period3y})
	require.NoError(t, err)

	res := batch.Results["005930.KS"]
	require.Equal(t, StateAnalyzed, res.State)
	require.Len(t, res.Series.Points, 5)
	assert.Equal(t, "USD", res.Series.Currency)

	wantRates := []float64{100, 100, 110, 110, 105}
	for i, p := range res.Series.Points {
		assert.InDelta(t, 70000/wantRates[i], p.Close, 1e-9)
		assert.Equal(t, int64(1000), p.Volume)
	}
	require.NotNil(t, res.Profile)
	assert.Equal(t, "USD", res.Profile.Currency)
	assert.False(t, res.Profile.StaleConversion)
}

func TestAnalyze_FxLagsDropTrailingDays(t *testing.T) {
	market := &stubMarket{bars: map[string][]model.PricePoint{
		"005930.KS": bars(70000, 70000, 70000, 70000, 70000),
	}}
	rates := &stubRates{
		rates: map[string][]model.FxRate{
			"KRW=X": {
				{Date: day(1), Rate: 1300},
				{Date: day(2), Rate: 1300},
				{Date: day(3), Rate: 1300},
			},
		},
		latest: map[string]float64{"KRW=X": 1300},
	}
	svc := newTestService(market, rates)

	batch, err := svc.Analyze(context.Background(), BatchRequest{Tickers: []string{"005930.KS"}, Period: model.Period3y})
	require.NoError(t, err)

	res := batch.Results["005930.KS"]
	require.Equal(t, StateAnalyzed, res.State)
	// Days 4 and 5 have no known rate yet and are dropped, not extrapolated.
	require.Len(t, res.Series.Points, 3)
	assert.Equal(t, day(3), res.Series.Points[2].Date)
}

func TestAnalyze_UnknownMarketSuffix(t *testing.T) {
	market := &stubMarket{bars: map[string][]model.PricePoint{"FOO.ZZ": bars(1, 2)}}
	svc := newTestService(market, &stubRates{})

	batch, err := svc.Analyze(context.Background(), BatchRequest{Tickers: []string{"FOO.ZZ"}, Period: model.Period1y})
	require.NoError(t, err)

	res := batch.Results["FOO.ZZ"]
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, "unknown_market", res.Reason())
	assert.Nil(t, res.Series)
	assert.Nil(t, res.Summary)
}

func TestAnalyze_InsufficientData(t *testing.T) {
	market := &stubMarket{bars: map[string][]model.PricePoint{"AAPL": bars(100)}}
	svc := newTestService(market, &stubRates{})

	batch, err := svc.Analyze(context.Background(), BatchRequest{Tickers: []string{"AAPL"}, Period: model.Period1y})
	require.NoError(t, err)

	res := batch.Results["AAPL"]
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, "insufficient_data", res.Reason())
	assert.Nil(t, res.Summary, "a single point must never surface as a 0% return")
}

func TestAnalyze_PartialBatch(t *testing.T) {
	market := &stubMarket{
		bars: map[string][]model.PricePoint{"AAPL": bars(100, 120)},
		errs: map[string]error{"MSFT": context.DeadlineExceeded},
	}
	svc := newTestService(market, &stubRates{})

	batch, err := svc.Analyze(context.Background(), BatchRequest{Tickers: []string{"AAPL", "MSFT", "BAD.ZZ"}, Period: model.Period1y})
	require.NoError(t, err)
	require.Len(t, batch.Results, 3)

	assert.Equal(t, StateAnalyzed, batch.Results["AAPL"].State)
	assert.Equal(t, "data_unavailable", batch.Results["MSFT"].Reason())
	assert.Equal(t, "unknown_market", batch.Results["BAD.ZZ"].Reason())
	assert.Equal(t, 1, batch.Analyzed())
	assert.Equal(t, 2, batch.Failed())
	assert.False(t, batch.NoData())
}

func TestAnalyze_AllFailed(t *testing.T) {
	market := &stubMarket{errs: map[string]error{"AAPL": context.DeadlineExceeded}}
	svc := newTestService(market, &stubRates{})

	batch, err := svc.Analyze(context.Background(), BatchRequest{Tickers: []string{"AAPL"}, Period: model.Period1y})
	require.NoError(t, err)
	assert.True(t, batch.NoData())
}

func TestAnalyze_EmptySeriesIsDataUnavailable(t *testing.T) {
	market := &stubMarket{bars: map[string][]model.PricePoint{"AAPL": {}}}
	svc := newTestService(market, &stubRates{})

	batch, err := svc.Analyze(context.Background(), BatchRequest{Tickers: []string{"AAPL"}, Period: model.Period1y})
	require.NoError(t, err)
	assert.Equal(t, "data_unavailable", batch.Results["AAPL"].Reason())
}

func TestAnalyze_FxFetchFailure(t *testing.T) {
	market := &stubMarket{bars: map[string][]model.PricePoint{"005930.KS": bars(70000, 71000)}}
	rates := &stubRates{errs: map[string]error{"KRW=X": context.DeadlineExceeded}}
	svc := newTestService(market, rates)

	batch, err := svc.Analyze(context.Background(), BatchRequest{Tickers: []string{"005930.KS"}, Period: model.Period1y})
	require.NoError(t, err)
	assert.Equal(t, "data_unavailable", batch.Results["005930.KS"].Reason())
}

func TestAnalyze_StaleSpotConversion(t *testing.T) {
	market := &stubMarket{
		bars: map[string][]model.PricePoint{"005930.KS": bars(70000, 71000)},
		profiles: map[string]*model.CompanyProfile{
			"005930.KS": {Symbol: "005930.KS", Name: "Samsung Electronics", CurrentPrice: 70000, MarketCap: 4.2e14},
		},
	}
	rates := &stubRates{
		rates:     map[string][]model.FxRate{"KRW=X": {{Date: day(1), Rate: 1300}, {Date: day(2), Rate: 1300}}},
		latestErr: context.DeadlineExceeded,
	}
	svc := newTestService(market, rates)

	batch, err := svc.Analyze(context.Background(), BatchRequest{Tickers: []string{"005930.KS"}, Period: model.Period1y})
	require.NoError(t, err)

	res := batch.Results["005930.KS"]
	require.Equal(t, StateAnalyzed, res.State)
	require.NotNil(t, res.Profile)
	// Spot conversion failed; values stay in KRW and are flagged stale.
	assert.True(t, res.Profile.StaleConversion)
	assert.Equal(t, "KRW", res.Profile.Currency)
	assert.InDelta(t, 70000.0, res.Profile.CurrentPrice, 1e-9)
}

func TestAnalyze_CurrencyOverride(t *testing.T) {
	market := &stubMarket{bars: map[string][]model.PricePoint{
		"7203.T": bars(2500, 2600),
	}}
	rates := &stubRates{
		rates: map[string][]model.FxRate{
			"KRWJPY=X": {{Date: day(1), Rate: 9.1}, {Date: day(2), Rate: 9.2}},
		},
		latest: map[string]float64{"KRWJPY=X": 9.2},
	}
	svc := newTestService(market, rates)

	batch, err := svc.Analyze(context.Background(), BatchRequest{
		Tickers:  []string{"7203.T"},
		Period:   model.Period1y,
		Currency: "KRW",
	})
	require.NoError(t, err)

	assert.Equal(t, "KRW", batch.Currency)
	res := batch.Results["7203.T"]
	require.Equal(t, StateAnalyzed, res.State)
	assert.Equal(t, "KRW", res.Series.Currency)
	assert.InDelta(t, 2500/9.1, res.Series.Points[0].Close, 1e-9)
}

func TestAnalyze_BadRequest(t *testing.T) {
	svc := newTestService(&stubMarket{}, &stubRates{})

	_, err := svc.Analyze(context.Background(), BatchRequest{Period: model.Period1y})
	assert.Error(t, err)

	_, err = svc.Analyze(context.Background(), BatchRequest{Tickers: []string{"AAPL"}, Period: "7y"})
	assert.Error(t, err)
}

func TestAnalyze_CachesAcrossBatches(t *testing.T) {
	market := &stubMarket{bars: map[string][]model.PricePoint{"AAPL": bars(100, 110)}}
	svc := newTestService(market, &stubRates{})

	_, err := svc.Analyze(context.Background(), BatchRequest{Tickers: []string{"AAPL"}, Period: model.Period1y})
	require.NoError(t, err)

	// Break the provider; the second batch must still succeed from cache.
	market.errs = map[string]error{"AAPL": context.DeadlineExceeded}
	batch, err := svc.Analyze(context.Background(), BatchRequest{Tickers: []string{"AAPL"}, Period: model.Period1y})
	require.NoError(t, err)
	assert.Equal(t, StateAnalyzed, batch.Results["AAPL"].State)
}

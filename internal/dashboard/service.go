// Package dashboard resolves batches of (ticker, period) requests into
// normalized, analyzed datasets: it infers the source currency, fetches raw
// and FX series through the cache, applies currency normalization, and runs
// the performance calculator. Failures stay per-ticker; the batch always
// completes.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"MarketLens/internal/cache"
	"MarketLens/internal/calculator"
	"MarketLens/internal/collector"
	"MarketLens/internal/model"
	"MarketLens/internal/normalize"
	"MarketLens/internal/recorder"
)

// ServiceConfig carries the collaborators of the orchestrator.
type ServiceConfig struct {
	Market collector.MarketFetcher
	Rates  collector.RateFetcher
	Bars   *cache.Cache[[]model.PricePoint]
	Fx     *cache.Cache[[]model.FxRate]
	// Markets maps ticker suffixes to source currencies.
	Markets           map[string]string
	ReportingCurrency string
	// MaxConcurrent caps parallel ticker pipelines to respect provider rate
	// limits.
	MaxConcurrent int
	Recorder      recorder.Recorder
	Logger        zerolog.Logger
}

// Service is the batch orchestrator.
type Service struct {
	cfg ServiceConfig
	log zerolog.Logger
}

// New creates the orchestrator service.
func New(cfg ServiceConfig) *Service {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 4
	}
	if cfg.Recorder == nil {
		cfg.Recorder = recorder.NewNoopRecorder()
	}
	return &Service{
		cfg: cfg,
		log: cfg.Logger.With().Str("component", "dashboard").Logger(),
	}
}

// Analyze runs the full pipeline for every requested ticker and aggregates
// per-ticker outcomes. Tickers fail individually; Analyze itself only errors
// on an unusable request.
func (s *Service) Analyze(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	if len(req.Tickers) == 0 {
		return nil, fmt.Errorf("no tickers requested")
	}
	if !req.Period.Valid() {
		return nil, fmt.Errorf("unsupported period %q", req.Period)
	}
	currency := req.Currency
	if currency == "" {
		currency = s.cfg.ReportingCurrency
	}

	batch := &BatchResult{
		ID:       uuid.NewString(),
		Period:   req.Period,
		Currency: currency,
		Results:  make(map[string]*TickerResult, len(req.Tickers)),
	}
	log := s.log.With().Str("batch", batch.ID).Logger()
	log.Info().Int("tickers", len(req.Tickers)).Str("period", req.Period.String()).
		Str("currency", currency).Msg("batch started")

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.cfg.MaxConcurrent)

	for _, ticker := range req.Tickers {
		ticker := ticker
		g.Go(func() error {
			res := s.analyzeTicker(ctx, log, ticker, req.Period, currency)
			mu.Lock()
			batch.Results[ticker] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	log.Info().Int("analyzed", batch.Analyzed()).Int("failed", batch.Failed()).Msg("batch finished")

	if err := s.cfg.Recorder.RecordBatch(batch.Record()); err != nil {
		log.Error().Err(err).Msg("record batch")
	}
	return batch, nil
}

// analyzeTicker walks one ticker through
// Requested -> Fetching -> Normalizing -> Analyzed | Failed.
func (s *Service) analyzeTicker(ctx context.Context, log zerolog.Logger, ticker string, period model.Period, reporting string) *TickerResult {
	res := &TickerResult{Ticker: ticker, State: StateRequested}

	source, err := s.sourceCurrency(ticker, reporting)
	if err != nil {
		return s.fail(log, res, err)
	}

	res.State = StateFetching
	bars, err := s.cfg.Bars.GetOrFetch(ctx, cache.Key(ticker, period), func(ctx context.Context) ([]model.PricePoint, error) {
		return s.cfg.Market.FetchDailyBars(ctx, ticker, period)
	})
	if err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("price fetch failed")
		return s.fail(log, res, fmt.Errorf("%s: %w", ticker, model.ErrDataUnavailable))
	}
	if len(bars) == 0 {
		return s.fail(log, res, fmt.Errorf("%s: empty series: %w", ticker, model.ErrDataUnavailable))
	}

	series := &model.PriceSeries{Symbol: ticker, Currency: source, Points: bars}

	var norm *model.NormalizedSeries
	var pair string
	if source == reporting {
		// Already in the reporting currency; pass through unchanged.
		norm = &model.NormalizedSeries{Symbol: ticker, Currency: reporting, Points: bars}
	} else {
		pair = collector.PairSymbol(source, reporting)
		rates, err := s.cfg.Fx.GetOrFetch(ctx, cache.Key(pair, period), func(ctx context.Context) ([]model.FxRate, error) {
			return s.cfg.Rates.FetchRates(ctx, pair, period)
		})
		if err != nil {
			log.Error().Err(err).Str("pair", pair).Msg("fx fetch failed")
			return s.fail(log, res, fmt.Errorf("%s: fx %s: %w", ticker, pair, model.ErrDataUnavailable))
		}

		res.State = StateNormalizing
		norm, err = normalize.Convert(series, &model.FxRateSeries{Pair: pair, Points: rates}, reporting)
		if err != nil {
			return s.fail(log, res, err)
		}
	}

	summary, err := calculator.Summarize(norm.Points)
	if err != nil {
		return s.fail(log, res, fmt.Errorf("%s: %w", ticker, err))
	}

	res.Series = norm
	res.Summary = summary
	res.Profile = s.fetchProfile(ctx, log, ticker, source, reporting, pair)
	res.State = StateAnalyzed
	return res
}

// fetchProfile loads issuer metadata and converts its point-in-time values.
// Profile problems never fail the ticker; the series and summary stand alone.
func (s *Service) fetchProfile(ctx context.Context, log zerolog.Logger, ticker, source, reporting, pair string) *model.CompanyProfile {
	profile, err := s.cfg.Market.FetchProfile(ctx, ticker)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("profile fetch failed")
		return nil
	}
	if source == reporting {
		profile.Currency = reporting
		return profile
	}

	rate, err := s.cfg.Rates.FetchLatestRate(ctx, pair)
	if err != nil {
		log.Warn().Err(err).Str("pair", pair).Msg("latest rate fetch failed")
		rate = 0
	}
	var stale bool
	profile.CurrentPrice, stale = normalize.ConvertSpot(profile.CurrentPrice, rate)
	profile.MarketCap, _ = normalize.ConvertSpot(profile.MarketCap, rate)
	profile.StaleConversion = stale
	if stale {
		profile.Currency = source
	} else {
		profile.Currency = reporting
	}
	return profile
}

func (s *Service) fail(log zerolog.Logger, res *TickerResult, err error) *TickerResult {
	res.State = StateFailed
	res.Err = err
	res.Series = nil
	res.Summary = nil
	log.Warn().Err(err).Str("ticker", res.Ticker).Str("reason", res.Reason()).Msg("ticker failed")
	return res
}

// sourceCurrency resolves the currency a ticker trades in from the explicit
// market table. Suffix-less tickers trade in the reporting currency; unknown
// suffixes are rejected, never guessed.
func (s *Service) sourceCurrency(ticker, reporting string) (string, error) {
	idx := strings.LastIndex(ticker, ".")
	if idx < 0 || idx == len(ticker)-1 {
		return reporting, nil
	}
	suffix := ticker[idx:]
	currency, ok := s.cfg.Markets[suffix]
	if !ok {
		return "", fmt.Errorf("%s: suffix %q: %w", ticker, suffix, model.ErrUnknownMarket)
	}
	return currency, nil
}

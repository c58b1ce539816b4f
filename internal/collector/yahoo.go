package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/tidwall/gjson"

	"MarketLens/internal/model"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements MarketFetcher and RateFetcher using the Yahoo
// Finance public API. FX pairs use the same chart endpoint as equities,
// quoted under "=X" symbols.
type YahooFetcher struct {
	Client  *http.Client
	BaseURL string
}

// Compile-time interface checks.
var (
	_ MarketFetcher = (*YahooFetcher)(nil)
	_ RateFetcher   = (*YahooFetcher)(nil)
)

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string, timeout time.Duration) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		BaseURL: defaultYahooBaseURL,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from the Yahoo Finance chart API.
// Quote arrays use interface{} because Yahoo emits JSON nulls for halted or
// missing bars.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// day truncates a bar timestamp to its UTC calendar day.
func day(ts int64) time.Time {
	t := time.Unix(ts, 0).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// chartWindow translates a lookback period into chart query parameters.
func chartWindow(period model.Period, now time.Time) url.Values {
	params := url.Values{}
	params.Set("interval", "1d")
	if years := period.Years(); years > 0 {
		params.Set("period1", fmt.Sprintf("%d", now.AddDate(-years, 0, 0).Unix()))
		params.Set("period2", fmt.Sprintf("%d", now.Unix()))
	} else {
		params.Set("range", "max")
	}
	return params
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol string, params url.Values) ([]model.PricePoint, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned for %s", symbol)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no quote data for %s", symbol)
	}
	quote := result.Indicators.Quote[0]
	bars := make([]model.PricePoint, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		o := toFloat(quote.Open[i])
		h := toFloat(quote.High[i])
		l := toFloat(quote.Low[i])
		c := toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		var vol int64
		if i < len(quote.Volume) {
			if v := toFloat(quote.Volume[i]); v > 0 {
				vol = int64(v)
			}
		}
		bars = append(bars, model.PricePoint{
			Date:   day(ts),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: vol,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	// Intraday updates can surface the current day twice; keep the last bar
	// for a date so the series stays strictly increasing.
	deduped := bars[:0]
	for i, b := range bars {
		if i > 0 && b.Date.Equal(bars[i-1].Date) {
			deduped[len(deduped)-1] = b
			continue
		}
		deduped = append(deduped, b)
	}
	return deduped, nil
}

// FetchDailyBars fetches the daily OHLCV series for a symbol over the period.
func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol string, period model.Period) ([]model.PricePoint, error) {
	return f.fetchChart(ctx, symbol, chartWindow(period, time.Now()))
}

// FetchRates fetches the daily close rates for a currency pair symbol.
func (f *YahooFetcher) FetchRates(ctx context.Context, pair string, period model.Period) ([]model.FxRate, error) {
	bars, err := f.fetchChart(ctx, pair, chartWindow(period, time.Now()))
	if err != nil {
		return nil, err
	}
	rates := make([]model.FxRate, 0, len(bars))
	for _, b := range bars {
		if b.Close <= 0 {
			continue
		}
		rates = append(rates, model.FxRate{Date: b.Date, Rate: b.Close})
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("yahoo: no usable rates for %s", pair)
	}
	return rates, nil
}

// FetchLatestRate returns the most recent daily close for a currency pair.
func (f *YahooFetcher) FetchLatestRate(ctx context.Context, pair string) (float64, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", "5d")
	bars, err := f.fetchChart(ctx, pair, params)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("yahoo: no usable rates for %s", pair)
	}
	last := bars[len(bars)-1].Close
	if last <= 0 {
		return 0, fmt.Errorf("yahoo: non-positive latest rate for %s", pair)
	}
	return last, nil
}

// FetchProfile fetches issuer metadata and point-in-time quote values.
func (f *YahooFetcher) FetchProfile(ctx context.Context, symbol string) (*model.CompanyProfile, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=price%%2CsummaryProfile", f.BaseURL, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo profile fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo profile read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo profile: status %d", resp.StatusCode)
	}

	root := gjson.GetBytes(body, "quoteSummary.result.0")
	if !root.Exists() {
		return nil, fmt.Errorf("yahoo profile: no result for %s", symbol)
	}

	return &model.CompanyProfile{
		Symbol:       symbol,
		Name:         root.Get("price.longName").String(),
		Sector:       root.Get("summaryProfile.sector").String(),
		MarketCap:    root.Get("price.marketCap.raw").Float(),
		CurrentPrice: root.Get("price.regularMarketPrice.raw").Float(),
		Currency:     root.Get("price.currency").String(),
	}, nil
}

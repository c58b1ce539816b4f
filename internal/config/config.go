package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"MarketLens/internal/model"
)

// Company is one entry of the dashboard universe.
type Company struct {
	Name   string `yaml:"name"`
	Ticker string `yaml:"ticker"`
}

// Config holds all application configuration.
type Config struct {
	Server struct {
		Listen string `yaml:"listen"`
	} `yaml:"server"`
	DataSource struct {
		Proxy           string `yaml:"proxy"`
		FetchTimeoutSec int    `yaml:"fetch_timeout_sec"`
		MaxConcurrent   int    `yaml:"max_concurrent"`
	} `yaml:"data_source"`
	Reporting struct {
		Currency      string `yaml:"currency"`
		DefaultPeriod string `yaml:"default_period"`
	} `yaml:"reporting"`
	// Universe is the fixed set of companies the dashboard exposes.
	Universe []Company `yaml:"universe"`
	// Markets maps a ticker suffix (".KS", ".T", ...) to the currency its
	// exchange quotes in. Tickers without a suffix trade in the reporting
	// currency; suffixes missing from this table are rejected, never guessed.
	Markets map[string]string `yaml:"markets"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		WarmupCron    string `yaml:"warmup_cron"`
		WarmupOnStart bool   `yaml:"warmup_on_start"`
	} `yaml:"schedule"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

// defaultUniverse mirrors the companies the dashboard ships with.
var defaultUniverse = []Company{
	{Name: "Apple", Ticker: "AAPL"},
	{Name: "Microsoft", Ticker: "MSFT"},
	{Name: "Alphabet", Ticker: "GOOGL"},
	{Name: "Amazon", Ticker: "AMZN"},
	{Name: "NVIDIA", Ticker: "NVDA"},
	{Name: "Tesla", Ticker: "TSLA"},
	{Name: "Meta", Ticker: "META"},
	{Name: "Berkshire Hathaway", Ticker: "BRK-B"},
	{Name: "Taiwan Semiconductor", Ticker: "TSM"},
	{Name: "Visa", Ticker: "V"},
	{Name: "Samsung Electronics", Ticker: "005930.KS"},
	{Name: "Hyundai Motor", Ticker: "005380.KS"},
	{Name: "Advanced Micro Devices", Ticker: "AMD"},
	{Name: "Broadcom", Ticker: "AVGO"},
	{Name: "Palantir Technologies", Ticker: "PLTR"},
	{Name: "IonQ", Ticker: "IONQ"},
	{Name: "Rigetti Computing", Ticker: "RGTI"},
	{Name: "Honeywell International", Ticker: "HON"},
}

// defaultMarkets covers the exchange suffixes the universe can reach.
var defaultMarkets = map[string]string{
	".KS": "KRW", // Korea Exchange
	".KQ": "KRW", // KOSDAQ
	".T":  "JPY", // Tokyo
	".SR": "SAR", // Saudi Exchange
	".L":  "GBP", // London
	".DE": "EUR", // XETRA
	".PA": "EUR", // Euronext Paris
	".SW": "CHF", // SIX Swiss
	".TO": "CAD", // Toronto
	".HK": "HKD", // Hong Kong
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.DataSource.Proxy = v
	}
	if v := os.Getenv("REPORTING_CURRENCY"); v != "" {
		cfg.Reporting.Currency = v
	}
	if v := os.Getenv("DEFAULT_PERIOD"); v != "" {
		cfg.Reporting.DefaultPeriod = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("WARMUP_CRON"); v != "" {
		cfg.Schedule.WarmupCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DataSource.MaxConcurrent = n
		}
	}

	// Defaults
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.DataSource.FetchTimeoutSec == 0 {
		cfg.DataSource.FetchTimeoutSec = 15
	}
	if cfg.DataSource.MaxConcurrent == 0 {
		cfg.DataSource.MaxConcurrent = 4
	}
	if cfg.Reporting.Currency == "" {
		cfg.Reporting.Currency = "USD"
	}
	if cfg.Reporting.DefaultPeriod == "" {
		cfg.Reporting.DefaultPeriod = "3y"
	}
	if len(cfg.Universe) == 0 {
		cfg.Universe = defaultUniverse
	}
	if len(cfg.Markets) == 0 {
		cfg.Markets = defaultMarkets
	}
	if cfg.Schedule.WarmupCron == "" {
		// Weekday mornings, before US markets open.
		cfg.Schedule.WarmupCron = "0 0 7 * * 1-5"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if len(c.Universe) == 0 {
		return fmt.Errorf("universe must list at least one company")
	}
	for _, comp := range c.Universe {
		if comp.Ticker == "" {
			return fmt.Errorf("universe entry %q has no ticker", comp.Name)
		}
	}
	if c.Reporting.Currency == "" {
		return fmt.Errorf("reporting.currency is required")
	}
	if _, err := model.ParsePeriod(c.Reporting.DefaultPeriod); err != nil {
		return fmt.Errorf("reporting.default_period: %w", err)
	}
	if c.DataSource.MaxConcurrent < 1 {
		return fmt.Errorf("data_source.max_concurrent must be positive")
	}
	if c.DataSource.FetchTimeoutSec < 1 {
		return fmt.Errorf("data_source.fetch_timeout_sec must be positive")
	}
	return nil
}

// Tickers returns the ticker symbols of the configured universe.
func (c *Config) Tickers() []string {
	out := make([]string, 0, len(c.Universe))
	for _, comp := range c.Universe {
		out = append(out, comp.Ticker)
	}
	return out
}

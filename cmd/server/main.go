package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"MarketLens/internal/cache"
	"MarketLens/internal/collector"
	"MarketLens/internal/config"
	"MarketLens/internal/dashboard"
	"MarketLens/internal/model"
	"MarketLens/internal/recorder"
	"MarketLens/internal/scheduler"
	"MarketLens/internal/server"
)

func newLogger(level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	var output io.Writer = os.Stdout
	if pretty {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Logger()
}

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		bootLog := newLogger("info", true)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		bootLog := newLogger("info", true)
		bootLog.Fatal().Err(err).Msg("config validation")
	}

	log := newLogger(cfg.Log.Level, cfg.Log.Pretty)
	log.Info().Msg("MarketLens starting")

	fetchTimeout := time.Duration(cfg.DataSource.FetchTimeoutSec) * time.Second
	yahoo := collector.NewYahooFetcher(cfg.DataSource.Proxy, fetchTimeout)
	log.Info().Str("source", yahoo.Name()).Msg("data source ready")

	// Process-lifetime series caches; single source of truth for fetched data.
	bars := cache.New[[]model.PricePoint](fetchTimeout, log)
	fx := cache.New[[]model.FxRate](fetchTimeout, log)

	// Diagnostic recorder; falls back to noop when SQLite is not configured.
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("sqlite recorder unavailable, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	svc := dashboard.New(dashboard.ServiceConfig{
		Market:            yahoo,
		Rates:             yahoo,
		Bars:              bars,
		Fx:                fx,
		Markets:           cfg.Markets,
		ReportingCurrency: cfg.Reporting.Currency,
		MaxConcurrent:     cfg.DataSource.MaxConcurrent,
		Recorder:          rec,
		Logger:            log,
	})

	defaultPeriod := model.Period(cfg.Reporting.DefaultPeriod)

	sched := scheduler.NewScheduler(svc, cfg.Tickers(), defaultPeriod, log)
	if err := sched.Register(cfg.Schedule.WarmupCron); err != nil {
		log.Fatal().Err(err).Msg("register warmup task")
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Schedule.WarmupOnStart {
		log.Info().Msg("warmup_on_start enabled, pre-populating cache")
		go sched.RunWarmupNow()
	}

	srv := server.New(server.Config{
		Listen:        cfg.Server.Listen,
		Service:       svc,
		Universe:      cfg.Universe,
		DefaultPeriod: defaultPeriod,
		Log:           log,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("MarketLens stopped")
}

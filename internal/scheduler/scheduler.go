// Package scheduler warms the series cache by running the configured
// universe through the orchestrator on a cron schedule, so interactive
// requests mostly hit memoized data.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"MarketLens/internal/dashboard"
	"MarketLens/internal/model"
)

// warmupTimeout bounds one full universe pass.
const warmupTimeout = 5 * time.Minute

// Scheduler manages the cron tasks.
type Scheduler struct {
	cron    *cron.Cron
	svc     *dashboard.Service
	tickers []string
	period  model.Period
	log     zerolog.Logger
}

// NewScheduler creates a new Scheduler over the given universe.
func NewScheduler(svc *dashboard.Service, tickers []string, period model.Period, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		svc:     svc,
		tickers: tickers,
		period:  period,
		log:     log.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds the warm-up task under the given cron spec.
func (s *Scheduler) Register(warmupCron string) error {
	if _, err := s.cron.AddFunc(warmupCron, s.warmUp); err != nil {
		return fmt.Errorf("register warmup task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info().Msg("scheduler stopped")
}

// RunWarmupNow executes the warm-up immediately (startup pre-population).
func (s *Scheduler) RunWarmupNow() {
	s.warmUp()
}

func (s *Scheduler) warmUp() {
	ctx, cancel := context.WithTimeout(context.Background(), warmupTimeout)
	defer cancel()

	s.log.Info().Int("tickers", len(s.tickers)).Msg("running universe warm-up")
	res, err := s.svc.Analyze(ctx, dashboard.BatchRequest{Tickers: s.tickers, Period: s.period})
	if err != nil {
		s.log.Error().Err(err).Msg("warm-up failed")
		return
	}
	s.log.Info().Int("analyzed", res.Analyzed()).Int("failed", res.Failed()).Msg("warm-up finished")
}

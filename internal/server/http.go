// Package server exposes the analytics pipeline as a JSON API. All chart,
// map, and widget rendering lives in the frontend; this layer only hands it
// normalized series and summaries.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"MarketLens/internal/config"
	"MarketLens/internal/dashboard"
	"MarketLens/internal/model"
)

// Config holds server configuration.
type Config struct {
	Listen        string
	Service       *dashboard.Service
	Universe      []config.Company
	DefaultPeriod model.Period
	Log           zerolog.Logger
}

// Server is the HTTP API server.
type Server struct {
	router        *chi.Mux
	server        *http.Server
	svc           *dashboard.Service
	universe      []config.Company
	defaultPeriod model.Period
	log           zerolog.Logger
}

// New creates the HTTP server and wires its routes.
func New(cfg Config) *Server {
	s := &Server{
		router:        chi.NewRouter(),
		svc:           cfg.Service,
		universe:      cfg.Universe,
		defaultPeriod: cfg.DefaultPeriod,
		log:           cfg.Log.With().Str("component", "server").Logger(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/companies", s.handleCompanies)
		r.Post("/dashboard", s.handleDashboard)
	})

	s.server = &http.Server{
		Addr:         cfg.Listen,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// companyResponse is one universe entry.
type companyResponse struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

func (s *Server) handleCompanies(w http.ResponseWriter, _ *http.Request) {
	out := make([]companyResponse, 0, len(s.universe))
	for _, c := range s.universe {
		out = append(out, companyResponse{Name: c.Name, Ticker: c.Ticker})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"companies": out,
		"periods":   model.Periods,
	})
}

// tickerResponse is the per-ticker outbound shape: either series+summary or
// an error name.
type tickerResponse struct {
	Ticker  string                    `json:"ticker"`
	Series  *model.NormalizedSeries   `json:"series,omitempty"`
	Summary *model.PerformanceSummary `json:"summary,omitempty"`
	Profile *model.CompanyProfile     `json:"profile,omitempty"`
	Error   string                    `json:"error,omitempty"`
}

type dashboardResponse struct {
	ID       string           `json:"id"`
	Period   model.Period     `json:"period"`
	Currency string           `json:"currency"`
	Results  []tickerResponse `json:"results"`
	Error    string           `json:"error,omitempty"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var req dashboard.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Period == "" {
		req.Period = s.defaultPeriod
	}
	if !req.Period.Valid() {
		writeError(w, http.StatusBadRequest, "unsupported period")
		return
	}
	if len(req.Tickers) == 0 {
		writeError(w, http.StatusBadRequest, "no tickers requested")
		return
	}

	batch, err := s.svc.Analyze(r.Context(), req)
	if err != nil {
		s.log.Error().Err(err).Msg("analyze batch")
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	resp := dashboardResponse{
		ID:       batch.ID,
		Period:   batch.Period,
		Currency: batch.Currency,
	}
	// Results keep the request order for the frontend.
	for _, ticker := range req.Tickers {
		res, ok := batch.Results[ticker]
		if !ok {
			continue
		}
		tr := tickerResponse{Ticker: ticker}
		if res.State == dashboard.StateAnalyzed {
			tr.Series = res.Series
			tr.Summary = res.Summary
			tr.Profile = res.Profile
		} else {
			tr.Error = res.Reason()
		}
		resp.Results = append(resp.Results, tr)
	}
	if batch.NoData() {
		resp.Error = "no data available for the requested tickers"
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Package httpserver exposes the scanner's HTTP surface: the ranking and
// status APIs, manual quote injection, the WebSocket feed and the health
// and metrics probes.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mselser95/cex-arb/internal/arbitrage"
	"github.com/mselser95/cex-arb/pkg/healthprobe"
	"github.com/mselser95/cex-arb/pkg/types"
)

// RankingSource serves the latest opportunity ranking.
type RankingSource interface {
	Latest() []arbitrage.Opportunity
	LastEvalMS() int64
}

// StatusSource serves the per-exchange status snapshot.
type StatusSource interface {
	Snapshot() map[string]types.ExchangeStatus
}

// MarketSource serves the discovered market universe.
type MarketSource interface {
	Cached() []types.MarketInfo
}

// QuoteInjector accepts a manually injected quote into the intake.
type QuoteInjector interface {
	Inject(q types.Quote) bool
}

// Server provides the scanner's HTTP endpoints.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// Config holds server configuration. Ranking, Status, Markets, Injector and
// WSHandler are optional; their routes register only when set.
type Config struct {
	Port          string
	Logger        *zap.Logger
	HealthChecker *healthprobe.HealthChecker
	Ranking       RankingSource
	Status        StatusSource
	Markets       MarketSource
	Injector      QuoteInjector
	Filter        arbitrage.FilterConfig
	MinSpreadPct  float64
	WSHandler     http.HandlerFunc
}

// New creates a new HTTP server.
func New(cfg *Config) *Server {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", cfg.HealthChecker.Health())
	r.Get("/ready", cfg.HealthChecker.Ready())

	h := newHandler(cfg)

	if cfg.Ranking != nil {
		r.Get("/api/ranking", h.handleRanking)
		r.Get("/api/config/filtering", h.handleFilteringConfig)
	}

	if cfg.Status != nil {
		r.Get("/api/status", h.handleStatus)
	}

	if cfg.Markets != nil {
		r.Get("/internal/markets", h.handleMarkets)
	}

	if cfg.Injector != nil {
		r.Post("/internal/quote", h.handleInjectQuote)
	}

	if cfg.WSHandler != nil {
		r.Get("/ws", cfg.WSHandler)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		server: server,
		logger: cfg.Logger,
	}
}

// Handler returns the underlying router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
// This is a blocking call that returns when the server stops or encounters an error.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")

	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("http-server-shutdown-complete")
	return nil
}

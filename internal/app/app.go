// Package app wires the scanner together: venue adapters, market
// discovery, the quote pipeline, the arbitrage engine, the publish sinks
// and the HTTP surface.
package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mselser95/cex-arb/internal/aggregator"
	"github.com/mselser95/cex-arb/internal/arbitrage"
	"github.com/mselser95/cex-arb/internal/fees"
	"github.com/mselser95/cex-arb/internal/markets"
	"github.com/mselser95/cex-arb/internal/publish"
	"github.com/mselser95/cex-arb/internal/quotes"
	"github.com/mselser95/cex-arb/pkg/config"
	"github.com/mselser95/cex-arb/pkg/healthprobe"
	"github.com/mselser95/cex-arb/pkg/httpserver"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	discovery     *markets.Discovery
	fees          *fees.Service
	store         *quotes.Store
	status        *quotes.StatusTracker
	agg           *aggregator.Aggregator
	engine        *arbitrage.Engine
	hub           *publish.Hub
	broadcaster   *publish.Broadcaster
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

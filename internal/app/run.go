package app

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.Int("exchanges", len(a.cfg.Exchanges)),
		zap.Duration("evaluation-interval", a.cfg.EvaluationInterval),
		zap.String("log-level", a.cfg.LogLevel))

	a.startComponents()

	a.logger.Info("application-started",
		zap.String("http-addr", ":"+a.cfg.HTTPPort))

	// Wait for shutdown signal
	return a.waitForShutdown()
}

func (a *App) startComponents() {
	// Start HTTP server first so probes answer while discovery warms up.
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give HTTP server a moment to start
	time.Sleep(100 * time.Millisecond)

	a.wg.Add(1)
	go a.runHub()

	// The first refresh blocks so the mapper has a universe before the
	// first polls; otherwise every early quote drops as unmapped.
	// Readiness flips via the OnRefresh hook once the universe is
	// non-empty.
	err := a.discovery.Refresh(a.ctx)
	if err != nil {
		a.logger.Error("initial-discovery-refresh-failed", zap.Error(err))
	}

	a.wg.Add(1)
	go a.runDiscovery()

	a.wg.Add(1)
	go a.runFees()

	a.agg.Start(a.ctx)

	a.wg.Add(1)
	go a.runEngine()
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()

	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runHub() {
	defer a.wg.Done()
	a.hub.Run(a.ctx)
}

func (a *App) runDiscovery() {
	defer a.wg.Done()

	err := a.discovery.Run(a.ctx)
	if err != nil && !errors.Is(err, a.ctx.Err()) {
		a.logger.Error("discovery-error", zap.Error(err))
	}
}

func (a *App) runFees() {
	defer a.wg.Done()
	a.fees.Run(a.ctx)
}

func (a *App) runEngine() {
	defer a.wg.Done()
	a.engine.Start(a.ctx)
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}

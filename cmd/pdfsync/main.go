package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pdfsync/internal/adapters/storage/memory"
	cfgpkg "pdfsync/internal/infrastructure/config"
	httpapi "pdfsync/internal/infrastructure/httpapi"
	obs "pdfsync/internal/infrastructure/observability"
	"pdfsync/internal/usecase"
)

func main() {
	_ = godotenv.Load()
	cfg := cfgpkg.FromEnv()

	logger := obs.NewLogger(cfg.LogLevel)
	logger.Info().Str("addr", cfg.Addr).Str("version", obs.Version).Msg("starting pdfsync")

	metrics := obs.NewMetrics()

	registry := memory.NewRegistry(cfg.CommandQueueSize, cfg.ClientBuffer, cfg.SessionIdleTTL)
	svc := usecase.NewSyncService(registry)
	deps := &httpapi.Deps{Cfg: cfg, Logger: logger, Metrics: metrics, Svc: svc, Monitor: httpapi.NewMonitorHub()}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewRouterWithDeps(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// WriteTimeout stays zero: the events stream is held open for the
		// lifetime of each client
		IdleTimeout: 60 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		if cfg.SessionIdleTTL <= 0 || cfg.SweepInterval <= 0 {
			return
		}
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				removed, err := svc.SweepIdle(sweepCtx, time.Now().UTC())
				if err != nil {
					logger.Error().Err(err).Msg("session sweep failed")
					continue
				}
				if removed > 0 {
					metrics.SessionEvictions.Add(float64(removed))
					logger.Info().Int("removed", removed).Msg("idle sessions evicted")
				}
				if n, err := svc.SessionCount(sweepCtx); err == nil {
					metrics.ActiveSessions.Set(float64(n))
				}
			}
		}
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	logger.Info().Msg("pdfsync stopped")
}

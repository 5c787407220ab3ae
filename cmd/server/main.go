// Package main is the entry point for the Insights server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/insights/internal/config"
	"github.com/aristath/insights/internal/di"
	"github.com/aristath/insights/internal/server"
	"github.com/aristath/insights/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use a basic logger since config failed
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("filing_type", cfg.FilingType).
		Str("registry_store", cfg.Registry.Store).
		Msg("Starting Insights")

	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	// Load or rebuild the registry snapshot before serving lookups.
	// Without any snapshot the server still starts; every lookup retries the rebuild.
	if err := container.IdentifierCache.Warm(context.Background()); err != nil {
		log.Error().Err(err).Msg("No registry snapshot available, lookups will fail until the source is reachable")
	} else if snap := container.IdentifierCache.Current(); snap != nil {
		log.Info().
			Int("entries", snap.Len()).
			Time("retrieved_at", snap.RetrievedAt()).
			Msg("Identifier cache ready")
	}

	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		DevMode:   cfg.DevMode,
		Container: container,
	})
	srv.SetJobs(jobs.RegistryRefresh, jobs.ClientDataCleanup, jobs.DatabaseMaintenance)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	container.Scheduler.Start()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	container.Scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

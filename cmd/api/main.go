// Command api serves the loaded baseball averages archive over HTTP.
//
// Usage:
//
//	averages-api
//	API_PORT=8080 averages-api

// @title Scoracle Averages API
// @version 1.0.0
// @description Read-only API over converted historical league averages. Record bodies are JSON-passthrough from Postgres.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Scoracle
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/scoracle-averages/internal/api"
	"github.com/albapepper/scoracle-averages/internal/cache"
	"github.com/albapepper/scoracle-averages/internal/config"
	"github.com/albapepper/scoracle-averages/internal/db"
	"github.com/albapepper/scoracle-averages/internal/listener"
	"github.com/albapepper/scoracle-averages/internal/maintenance"
	"github.com/albapepper/scoracle-averages/internal/seed"

	_ "github.com/albapepper/scoracle-averages/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	level := slog.LevelInfo
	if err == nil && cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	if err == nil {
		err = cfg.RequireDatabase()
	}
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Make sure the archive schema exists before statements are prepared
	if err := bootstrapSchema(ctx, cfg); err != nil {
		logger.Error("Failed to prepare archive schema", "error", err)
		os.Exit(1)
	}

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	defer appCache.Close()
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled, "index_ttl", cfg.CacheTTL)

	// Start LISTEN/NOTIFY consumer for archive loads
	go listener.Start(ctx, cfg.DatabaseURL, appCache, logger)

	// Start maintenance tickers (catch-up view refresh)
	go maintenance.Start(ctx, pool.Pool, maintenance.DefaultConfig(), func() {
		appCache.Delete(cache.IndexKey)
	}, logger)

	// Create router
	router := api.NewRouter(pool, appCache, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Scoracle Averages API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}

func bootstrapSchema(ctx context.Context, cfg *config.Config) error {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	return seed.EnsureSchema(ctx, pool.Pool)
}

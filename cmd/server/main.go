// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

// Package main is the entry point for the Reelrec server application.
//
// Reelrec is a self-hosted movie recommendation and watchlist service. It
// serves similarity-based recommendations from a precomputed catalog, enriches
// them with details from an external metadata API, and stores user accounts
// and watchlists in DuckDB.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Catalog: Load the precomputed title list and similarity matrix
//  3. Database: Initialize DuckDB for accounts and watchlists
//  4. Metadata client: Rate-limited, circuit-broken external API client
//  5. Recommendation engine: Ranking plus bounded concurrent enrichment
//  6. Authentication: JWT manager and bootstrap admin account
//  7. HTTP Server: Chi REST API under supervisor control
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (REELREC_ prefix)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// Required settings:
//   - CATALOG_TITLES_PATH: JSON array of movie titles
//   - CATALOG_MATRIX_PATH: row-major JSON similarity matrix from the same build
//   - JWT_SECRET: 32+ character secret for token signing
//   - ADMIN_USERNAME / ADMIN_PASSWORD: bootstrap admin account (optional)
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Checkpoints and closes the database
//
// # Example Usage
//
//	export CATALOG_TITLES_PATH=/data/titles.json
//	export CATALOG_MATRIX_PATH=/data/similarity.json
//	export METADATA_API_KEY=your-api-key
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export ADMIN_USERNAME=admin
//	export ADMIN_PASSWORD=secure-password
//	./reelrec
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reelrec/reelrec/internal/api"
	"github.com/reelrec/reelrec/internal/auth"
	"github.com/reelrec/reelrec/internal/catalog"
	"github.com/reelrec/reelrec/internal/config"
	"github.com/reelrec/reelrec/internal/database"
	"github.com/reelrec/reelrec/internal/logging"
	"github.com/reelrec/reelrec/internal/metadata"
	"github.com/reelrec/reelrec/internal/recommend"
	"github.com/reelrec/reelrec/internal/supervisor"
	"github.com/reelrec/reelrec/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Reelrec with supervisor tree")
	logging.Info().
		Str("titles_path", cfg.Catalog.TitlesPath).
		Str("db_path", cfg.Database.Path).
		Str("environment", cfg.Server.Environment).
		Msg("Configuration loaded")

	// Load the immutable catalog before anything that depends on it. A missing
	// or mismatched artifact is fatal: there is nothing to recommend without it.
	cat, err := catalog.Load(cfg.Catalog.TitlesPath, cfg.Catalog.MatrixPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load catalog")
	}
	logging.Info().Int("titles", cat.Len()).Msg("Catalog loaded")

	// Initialize database for accounts and watchlists
	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Bootstrap admin account from configuration. A no-op when the username
	// already exists, so restarts never clobber a changed password.
	if cfg.Security.AdminUsername != "" && cfg.Security.AdminPassword != "" {
		if err := db.EnsureAdmin(context.Background(), cfg.Security.AdminUsername, cfg.Security.AdminPassword); err != nil {
			logging.Fatal().Err(err).Msg("Failed to bootstrap admin account")
		}
		logging.Info().Str("username", cfg.Security.AdminUsername).Msg("Admin account ready")
	} else {
		logging.Warn().Msg("No admin credentials configured (ADMIN_USERNAME/ADMIN_PASSWORD) - admin endpoints unreachable until a user is promoted")
	}

	// Metadata client with rate limiting and a circuit breaker so a slow or
	// failing upstream degrades responses instead of cascading
	provider := metadata.NewClient(&cfg.Metadata)

	engine := recommend.New(cat, provider, recommend.Config{
		MaxConcurrency: cfg.Metadata.MaxConcurrency,
	})

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	logging.Info().Msg("JWT authentication enabled")

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (RATE_LIMIT_DISABLED=true)")
		logging.Warn().Msg("This should only be used for automated tests!")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	handler := api.NewHandler(cfg, db, cat, engine, provider, jwtManager)
	chiMw := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		RateLimitRequests:  cfg.Security.RateLimitReqs,
		RateLimitWindow:    cfg.Security.RateLimitWindow,
		RateLimitDisabled:  cfg.Security.RateLimitDisabled,
	}, jwtManager)
	router := api.NewRouter(handler, chiMw)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

package api

import (
	"time"

	"github.com/reelrec/reelrec/internal/auth"
	"github.com/reelrec/reelrec/internal/catalog"
	"github.com/reelrec/reelrec/internal/config"
	"github.com/reelrec/reelrec/internal/database"
	"github.com/reelrec/reelrec/internal/metadata"
	"github.com/reelrec/reelrec/internal/recommend"
)

// Handler processes HTTP requests for all API endpoints.
type Handler struct {
	config     *config.Config
	db         *database.DB
	catalog    *catalog.Catalog
	engine     *recommend.Engine
	provider   metadata.Provider
	jwtManager *auth.JWTManager
	startTime  time.Time
}

// NewHandler creates an API handler with all required dependencies.
//
// The catalog and engine are immutable after startup; the database holds the
// mutable state (accounts, watchlists). The metadata provider is shared with
// the engine and used directly when snapshotting watchlist entries.
func NewHandler(cfg *config.Config, db *database.DB, cat *catalog.Catalog, engine *recommend.Engine, provider metadata.Provider, jwtManager *auth.JWTManager) *Handler {
	return &Handler{
		config:     cfg,
		db:         db,
		catalog:    cat,
		engine:     engine,
		provider:   provider,
		jwtManager: jwtManager,
		startTime:  time.Now(),
	}
}

// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

// Package database provides the DuckDB-backed persistent stores: user
// accounts and per-user watchlists. The catalog and similarity matrix are
// deliberately NOT stored here; they are immutable build artifacts loaded
// from disk at startup.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/reelrec/reelrec/internal/config"
	"github.com/reelrec/reelrec/internal/logging"
)

// DB wraps the DuckDB connection and provides data access methods for
// accounts and watchlists.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New creates a new database connection and initializes the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure parent directory exists for the database file. Use 0750
	// permissions (owner: rwx, group: rx, other: none) per gosec G301.
	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	// Disable auto-install/auto-load of extensions to prevent hangs in
	// restricted network environments; the account and watchlist tables
	// only need core SQL.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn: conn,
		cfg:  cfg,
	}

	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Failed to close database after initialization error")
		}
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// configureConnectionPool applies the pool settings: max_open NumCPU() for
// parallelism, max_idle 2 for connection reuse, max_lifetime 1h to prevent
// stale connections, max_idle_time 5m for idle connection cleanup.
func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// initialize verifies the connection and creates tables and indexes.
func (db *DB) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.createTables(); err != nil {
		return err
	}

	return db.createIndexes()
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Close checkpoints the WAL and closes the database connection. The
// checkpoint is best effort; a failure is logged but does not block close.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
	}

	return db.conn.Close()
}

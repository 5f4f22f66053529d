// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// getTableCreationQueries returns the table creation SQL statements.
//
// All columns are defined in the initial CREATE TABLE statement; there is no
// migration machinery. The schema is small enough that a versioned migration
// layer would be pure overhead at this stage.
func getTableCreationQueries() []string {
	return []string{
		// User accounts. Usernames are unique; password_hash holds a bcrypt
		// digest and is never exposed through the API.
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// Watchlist entries. poster/genre/year/rating are a snapshot of the
		// movie's metadata at the moment it was added; they are intentionally
		// not refreshed from the external metadata source afterwards, so the
		// list renders without any outbound calls.
		`CREATE TABLE IF NOT EXISTS watchlist (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL,
			title TEXT NOT NULL,
			poster TEXT NOT NULL DEFAULT 'N/A',
			genre TEXT NOT NULL DEFAULT 'N/A',
			year TEXT NOT NULL DEFAULT 'N/A',
			rating TEXT NOT NULL DEFAULT 'N/A',
			added_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(username, title)
		);`,
	}
}

// createIndexes creates indexes for the common query patterns: login by
// username and watchlist listing per user.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);`,
		`CREATE INDEX IF NOT EXISTS idx_watchlist_username ON watchlist(username);`,
		`CREATE INDEX IF NOT EXISTS idx_watchlist_added_at ON watchlist(username, added_at);`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}

	return nil
}

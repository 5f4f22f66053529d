// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reelrec/reelrec/internal/metrics"
	"github.com/reelrec/reelrec/internal/models"
)

// ErrWatchlistEntryNotFound indicates the (username, title) pair has no
// stored watchlist entry.
var ErrWatchlistEntryNotFound = errors.New("watchlist entry not found")

// AddWatchlistEntry saves a movie to a user's watchlist with a snapshot of
// its current metadata. Adding a title that is already on the list is a
// no-op returning the stored entry; the original snapshot wins.
func (db *DB) AddWatchlistEntry(ctx context.Context, entry *models.WatchlistEntry) (*models.WatchlistEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now().UTC()
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO watchlist (id, username, title, poster, genre, year, rating, added_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Username, entry.Title, entry.Poster, entry.Genre, entry.Year, entry.Rating, entry.AddedAt,
	)
	metrics.RecordDBQuery("insert", "watchlist", start, err)
	if err != nil {
		if isUniqueConstraintError(err) {
			metrics.RecordWatchlistOperation("add", true)
			return db.GetWatchlistEntry(ctx, entry.Username, entry.Title)
		}
		metrics.RecordWatchlistOperation("add", false)
		return nil, fmt.Errorf("failed to add watchlist entry: %w", err)
	}

	metrics.RecordWatchlistOperation("add", true)
	return entry, nil
}

// GetWatchlistEntry retrieves a single entry by its (username, title) key.
func (db *DB) GetWatchlistEntry(ctx context.Context, username, title string) (*models.WatchlistEntry, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, username, title, poster, genre, year, rating, added_at
		 FROM watchlist WHERE username = ? AND title = ?`,
		username, title,
	)

	entry, err := scanWatchlistEntry(row)
	metrics.RecordDBQuery("select", "watchlist", start, err)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrWatchlistEntryNotFound
		}
		return nil, fmt.Errorf("failed to get watchlist entry: %w", err)
	}
	return entry, nil
}

// ListWatchlist retrieves all of a user's entries, oldest first. The result
// renders entirely from stored snapshots; no external metadata calls.
func (db *DB) ListWatchlist(ctx context.Context, username string) ([]models.WatchlistEntry, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, username, title, poster, genre, year, rating, added_at
		 FROM watchlist WHERE username = ? ORDER BY added_at, title`,
		username,
	)
	metrics.RecordDBQuery("select", "watchlist", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}
	defer rows.Close()

	entries := make([]models.WatchlistEntry, 0)
	for rows.Next() {
		entry, err := scanWatchlistEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watchlist: %w", err)
	}

	return entries, nil
}

// RemoveWatchlistEntry deletes one entry by its (username, title) key.
func (db *DB) RemoveWatchlistEntry(ctx context.Context, username, title string) error {
	start := time.Now()
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM watchlist WHERE username = ? AND title = ?`,
		username, title,
	)
	metrics.RecordDBQuery("delete", "watchlist", start, err)
	if err != nil {
		metrics.RecordWatchlistOperation("remove", false)
		return fmt.Errorf("failed to remove watchlist entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		metrics.RecordWatchlistOperation("remove", false)
		return ErrWatchlistEntryNotFound
	}

	metrics.RecordWatchlistOperation("remove", true)
	return nil
}

// CountWatchlist returns the number of entries on a user's watchlist.
func (db *DB) CountWatchlist(ctx context.Context, username string) (int, error) {
	start := time.Now()
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM watchlist WHERE username = ?`, username,
	).Scan(&count)
	metrics.RecordDBQuery("select", "watchlist", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count watchlist: %w", err)
	}
	return count, nil
}

func scanWatchlistEntry(s rowScanner) (*models.WatchlistEntry, error) {
	var entry models.WatchlistEntry
	if err := s.Scan(&entry.ID, &entry.Username, &entry.Title, &entry.Poster,
		&entry.Genre, &entry.Year, &entry.Rating, &entry.AddedAt); err != nil {
		return nil, err
	}
	return &entry, nil
}

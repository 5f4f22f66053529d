// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

package models

import "time"

// WatchlistEntry is one movie saved by a user. Poster, genre, year, and
// rating are a snapshot captured when the entry was added; they are not
// re-fetched from the metadata source afterwards.
type WatchlistEntry struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Title    string    `json:"title"`
	Poster   string    `json:"poster"`
	Genre    string    `json:"genre"`
	Year     string    `json:"year"`
	Rating   string    `json:"rating"`
	AddedAt  time.Time `json:"added_at"`
}

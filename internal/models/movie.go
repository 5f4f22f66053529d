// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

// Package models defines the data structures shared across the API,
// recommendation engine, and stores.
package models

// UnknownField is the sentinel used for metadata fields the external source
// did not supply. A MovieDetails always carries every field, either with real
// data or this marker.
const UnknownField = "N/A"

// MovieDetails is display-ready metadata for one movie, assembled fresh per
// request from the external metadata source. Never cached, never persisted
// by the engine.
type MovieDetails struct {
	Title  string `json:"title"`
	Year   string `json:"year"`
	Genre  string `json:"genre"`
	Rating string `json:"rating"`
	Plot   string `json:"plot"`
	ImdbID string `json:"imdb_id"`
	Poster string `json:"poster"`
}

// PlaceholderDetails returns a MovieDetails with every metadata field set to
// the unknown sentinel. Used when enrichment for one recommended title fails
// or times out; the batch still returns a complete card for it.
func PlaceholderDetails(title string) MovieDetails {
	return MovieDetails{
		Title:  title,
		Year:   UnknownField,
		Genre:  UnknownField,
		Rating: UnknownField,
		Plot:   UnknownField,
		ImdbID: UnknownField,
		Poster: UnknownField,
	}
}

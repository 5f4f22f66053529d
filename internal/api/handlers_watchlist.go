// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/reelrec/reelrec/internal/database"
	"github.com/reelrec/reelrec/internal/logging"
	"github.com/reelrec/reelrec/internal/models"
)

// Watchlist handles GET /api/v1/watchlist, returning the authenticated
// user's saved movies. Served entirely from stored snapshots; no external
// metadata calls.
func (h *Handler) Watchlist(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		rw.Unauthorized("Missing authentication token")
		return
	}

	entries, err := h.db.ListWatchlist(r.Context(), claims.Username)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(entries, &PaginationMeta{
		Count:   len(entries),
		HasMore: false,
	})
}

// AddToWatchlist handles POST /api/v1/watchlist. The title must exist in
// the catalog. Current metadata is snapshotted into the entry at add time;
// if the metadata source is down the snapshot stores "N/A" placeholders
// rather than failing the add. Re-adding an existing title is a no-op that
// returns the stored entry.
func (h *Handler) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		rw.Unauthorized("Missing authentication token")
		return
	}

	var req AddWatchlistRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	if !h.engine.HasTitle(req.Title) {
		rw.NotFound("Title not found in catalog: " + req.Title)
		return
	}

	details := h.snapshotDetails(r, req.Title)

	entry, err := h.db.AddWatchlistEntry(r.Context(), &models.WatchlistEntry{
		Username: claims.Username,
		Title:    req.Title,
		Poster:   details.Poster,
		Genre:    details.Genre,
		Year:     details.Year,
		Rating:   details.Rating,
	})
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Created(entry)
}

// RemoveFromWatchlist handles DELETE /api/v1/watchlist/{title}.
func (h *Handler) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		rw.Unauthorized("Missing authentication token")
		return
	}

	// Titles contain spaces and punctuation; the path segment arrives
	// URL-encoded.
	title, err := url.PathUnescape(chi.URLParam(r, "title"))
	if err != nil || title == "" {
		rw.BadRequest("Title path parameter is required")
		return
	}

	if err := h.db.RemoveWatchlistEntry(r.Context(), claims.Username, title); err != nil {
		if errors.Is(err, database.ErrWatchlistEntryNotFound) {
			rw.NotFound("Title is not on the watchlist: " + title)
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.NoContent()
}

// snapshotDetails fetches metadata for a watchlist snapshot, degrading to
// placeholder values when the external source is unavailable.
func (h *Handler) snapshotDetails(r *http.Request, title string) models.MovieDetails {
	details, err := h.provider.FetchDetails(r.Context(), title)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("title", title).
			Msg("Watchlist snapshot degraded to placeholder metadata")
		return models.PlaceholderDetails(title)
	}
	return details
}

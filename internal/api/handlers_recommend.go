// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/reelrec/reelrec/internal/recommend"
)

// Recommendations handles GET /api/v1/recommendations?title=<title>&k=<n>.
//
// The title match is exact and case sensitive; an unknown title returns 404
// without any external metadata calls. k defaults to the configured value
// and is clamped to the configured maximum. Items whose metadata lookup
// failed come back with "N/A" placeholder fields and are counted in
// meta.degraded.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	title := r.URL.Query().Get("title")
	if title == "" {
		rw.BadRequest("Query parameter 'title' is required")
		return
	}

	k := h.config.API.DefaultK
	if kStr := r.URL.Query().Get("k"); kStr != "" {
		parsed, err := strconv.Atoi(kStr)
		if err != nil || parsed < 1 {
			rw.BadRequest("Query parameter 'k' must be a positive integer")
			return
		}
		k = parsed
	}
	if k > h.config.API.MaxK {
		k = h.config.API.MaxK
	}

	before := h.engine.Stats().DegradedItems
	results, err := h.engine.FindSimilar(r.Context(), title, k)
	if err != nil {
		if errors.Is(err, recommend.ErrNotFound) {
			rw.NotFound("Title not found in catalog: " + title)
			return
		}
		rw.InternalError("Failed to generate recommendations")
		return
	}
	degraded := int(h.engine.Stats().DegradedItems - before)

	rw.SuccessWithMeta(results, &APIMeta{Degraded: degraded})
}

// Suggest handles GET /api/v1/catalog/suggest?q=<fragment>&limit=<n>.
// Case-insensitive substring autocomplete over catalog titles; exists so
// clients can find the exact spelling the recommendation lookup requires.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	fragment := r.URL.Query().Get("q")
	if fragment == "" {
		rw.BadRequest("Query parameter 'q' is required")
		return
	}

	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			rw.BadRequest("Query parameter 'limit' must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > h.config.API.MaxPageSize {
		limit = h.config.API.MaxPageSize
	}

	rw.SuccessCached(h.catalog.Suggest(fragment, limit), nil)
}

// Movies handles GET /api/v1/catalog/movies?offset=<n>&limit=<n>, a
// paginated listing of the catalog titles.
func (h *Handler) Movies(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil || parsed < 0 {
			rw.BadRequest("Query parameter 'offset' must be a non-negative integer")
			return
		}
		offset = parsed
	}

	limit := h.config.API.DefaultPageSize
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			rw.BadRequest("Query parameter 'limit' must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > h.config.API.MaxPageSize {
		limit = h.config.API.MaxPageSize
	}

	titles := h.catalog.Titles()
	total := len(titles)

	page := []string{}
	if offset < total {
		end := offset + limit
		if end > total {
			end = total
		}
		page = titles[offset:end]
	}

	rw.SuccessCached(page, &APIMeta{Pagination: &PaginationMeta{
		Total:   int64(total),
		Count:   len(page),
		Offset:  offset,
		Limit:   limit,
		HasMore: offset+len(page) < total,
	}})
}

// EngineStats handles GET /api/v1/admin/stats, an admin view of engine
// counters.
func (h *Handler) EngineStats(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.engine.Stats())
}

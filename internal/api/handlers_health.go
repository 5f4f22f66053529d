// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the payload of the health endpoints.
type HealthStatus struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	CatalogSize   int    `json:"catalog_size"`
	Database      string `json:"database"`
}

// HealthLive handles GET /health/live. Process-is-up check for liveness
// probes; no dependencies touched.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// HealthReady handles GET /health/ready. Ready means the catalog is loaded
// and the database answers a ping; the external metadata source is
// deliberately excluded because the service degrades gracefully without it.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := HealthStatus{
		Status:        "ready",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		CatalogSize:   h.catalog.Len(),
		Database:      "up",
	}

	if err := h.db.Ping(r.Context()); err != nil {
		status.Status = "not ready"
		status.Database = "down"
		rw.writeJSON(http.StatusServiceUnavailable, APIResponse{
			Success: false,
			Data:    status,
			Error: &APIError{
				Code:    ErrCodeServiceUnavailable,
				Message: "Database is unavailable",
			},
		})
		return
	}

	rw.Success(status)
}

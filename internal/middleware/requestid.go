// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

// Package middleware provides HTTP middleware for request tracking,
// Prometheus instrumentation, and response compression. All middleware uses
// the standard func(http.Handler) http.Handler shape so it composes with
// chi's Use().
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/reelrec/reelrec/internal/logging"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

// RequestID generates a unique ID for each request and adds it to both the
// response header and the request context. An ID supplied by an upstream
// proxy via X-Request-ID is kept as-is.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		// Echo to the response so clients can report it.
		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = logging.ContextWithRequestID(ctx, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request ID from context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

package middleware

import (
	"net/http"
	"time"

	"github.com/reelrec/reelrec/internal/logging"
)

// slowRequestThreshold flags requests worth a warn-level entry.
const slowRequestThreshold = time.Second

// RequestLogger emits one structured log line per request with method, path,
// status, and duration. Slow requests are logged at warn level.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &statusCapturingWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		event := logging.Ctx(r.Context()).Debug()
		if duration > slowRequestThreshold {
			event = logging.Ctx(r.Context()).Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("Request handled")
	})
}

// statusCapturingWriter records the status code written by the handler.
type statusCapturingWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusCapturingWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

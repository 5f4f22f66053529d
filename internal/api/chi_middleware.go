// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/reelrec/reelrec/internal/auth"
	"github.com/reelrec/reelrec/internal/logging"
	"github.com/reelrec/reelrec/internal/metrics"
	"github.com/reelrec/reelrec/internal/models"
)

type claimsContextKey struct{}

// ChiMiddlewareConfig holds configuration for the middleware factories.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins []string

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// RateLimitConfig defines rate limit parameters for specific route groups.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Endpoint-specific rate limits, tuned per endpoint cost.
var (
	// RateLimitLogin is very strict to slow credential stuffing.
	RateLimitLogin = RateLimitConfig{Requests: 5, Window: 5 * time.Minute}

	// RateLimitAuth covers the remaining auth endpoints.
	RateLimitAuth = RateLimitConfig{Requests: 5, Window: time.Minute}

	// RateLimitHealth is permissive so monitoring can poll freely.
	RateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}
)

// ChiMiddleware provides chi-compatible middleware factories built on the
// go-chi/cors and go-chi/httprate ecosystem packages.
type ChiMiddleware struct {
	config     *ChiMiddlewareConfig
	cors       func(http.Handler) http.Handler
	jwtManager *auth.JWTManager
}

// NewChiMiddleware creates the middleware factory.
func NewChiMiddleware(config *ChiMiddlewareConfig, jwtManager *auth.JWTManager) *ChiMiddleware {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           86400,
	})

	return &ChiMiddleware{
		config:     config,
		cors:       corsHandler,
		jwtManager: jwtManager,
	}
}

// CORS returns the go-chi/cors handler. Applied globally so OPTIONS
// preflight requests are answered on every route.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns the default per-IP rate limiter for API endpoints.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitConfig{
		Requests: m.config.RateLimitRequests,
		Window:   m.config.RateLimitWindow,
	})
}

// RateLimitCustom returns a per-IP rate limiter with specific parameters.
// Rejections increment the rate limit metric with the route pattern label.
func (m *ChiMiddleware) RateLimitCustom(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			endpoint := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				endpoint = rctx.RoutePattern()
			}
			metrics.APIRateLimitHits.WithLabelValues(endpoint).Inc()
			NewResponseWriter(w, r).Error(http.StatusTooManyRequests, ErrCodeTooManyRequests, "Rate limit exceeded")
		}),
	)
}

// RateLimitLogin returns the strict limiter for the login endpoint.
func (m *ChiMiddleware) RateLimitLogin() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitLogin)
}

// RateLimitAuth returns the limiter for the remaining auth endpoints.
func (m *ChiMiddleware) RateLimitAuth() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitAuth)
}

// RateLimitHealth returns the permissive limiter for health endpoints.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitHealth)
}

// Authenticate validates the JWT from the Authorization header or the token
// cookie and stores its claims in the request context. Requests without a
// valid token get 401.
func (m *ChiMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractToken(r)
		if err != nil {
			NewResponseWriter(w, r).Unauthorized("Missing authentication token")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Token validation failed")
			NewResponseWriter(w, r).Unauthorized("Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects authenticated requests whose claims lack the admin
// role. Must run after Authenticate.
func (m *ChiMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			NewResponseWriter(w, r).Unauthorized("Missing authentication token")
			return
		}
		if claims.Role != string(models.RoleAdmin) {
			NewResponseWriter(w, r).Forbidden("Admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext returns the authenticated claims, or nil when the
// request did not pass Authenticate.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey{}).(*auth.Claims)
	return claims
}

// extractToken pulls the JWT from the Authorization header, falling back to
// the HTTP-only cookie set at login.
func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		cookie, err := r.Cookie("token")
		if err != nil {
			return "", err
		}
		return cookie.Value, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", http.ErrNoCookie
	}
	return parts[1], nil
}

// APISecurityHeaders adds security headers to API responses. CSP is omitted
// on purpose; it is an HTML-document concern.
func APISecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

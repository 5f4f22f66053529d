// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reelrec/reelrec/internal/middleware"
)

// Router wires handlers and middleware into the HTTP routing tree.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router from a handler and its middleware factory.
func NewRouter(handler *Handler, chiMw *ChiMiddleware) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: chiMw,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	// Health endpoints. Permissive rate limit so monitoring can poll freely.
	r.Route("/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Prometheus metrics endpoint.
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Authentication endpoints. Login gets the strictest limit to slow
	// brute force attempts.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.With(router.chiMiddleware.RateLimitLogin()).Post("/login", router.handler.Login)
		r.With(router.chiMiddleware.RateLimitAuth()).Post("/signup", router.handler.Signup)
		r.With(router.chiMiddleware.RateLimitAuth()).Post("/logout", router.handler.Logout)
		r.With(router.chiMiddleware.RateLimit()).
			With(router.chiMiddleware.Authenticate).
			Get("/me", router.handler.Me)
	})

	// Data endpoints. All require authentication.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(middleware.Compression)
		r.Use(router.chiMiddleware.Authenticate)

		r.Get("/recommendations", router.handler.Recommendations)
		r.Get("/catalog/suggest", router.handler.Suggest)
		r.Get("/catalog/movies", router.handler.Movies)

		r.Route("/watchlist", func(r chi.Router) {
			r.Get("/", router.handler.Watchlist)
			r.Post("/", router.handler.AddToWatchlist)
			r.Delete("/{title}", router.handler.RemoveFromWatchlist)
		})

		// Admin endpoints.
		r.Route("/admin", func(r chi.Router) {
			r.Use(router.chiMiddleware.RequireAdmin)

			r.Get("/stats", router.handler.EngineStats)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", router.handler.ListUsers)
				r.Post("/", router.handler.CreateUser)
				r.Get("/{username}", router.handler.GetUser)
				r.Put("/{username}/role", router.handler.UpdateUserRole)
				r.Put("/{username}/password", router.handler.UpdateUserPassword)
				r.Delete("/{username}", router.handler.DeleteUser)
			})
		})
	})

	return r
}

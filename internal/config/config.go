// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

// Package config loads and validates application configuration.
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//  1. Built-in defaults
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables
//
// A configuration error is fatal: the process refuses to start rather than
// serve with missing artifacts or credentials.
package config

import "time"

// Config holds all application configuration.
// Immutable after Load() and safe for concurrent read access.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Metadata MetadataConfig `koanf:"metadata"`
	Security SecurityConfig `koanf:"security"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds DuckDB configuration for the accounts and
// watchlist store.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// CatalogConfig locates the precomputed catalog artifacts.
//
// TitlesPath is a JSON array of movie titles; MatrixPath is a row-major JSON
// matrix of pairwise similarity scores. Both must come from the same build:
// position i in the title list corresponds to row and column i of the matrix.
type CatalogConfig struct {
	TitlesPath string `koanf:"titles_path"`
	MatrixPath string `koanf:"matrix_path"`
}

// MetadataConfig configures the external movie metadata API client.
type MetadataConfig struct {
	BaseURL        string        `koanf:"base_url"`
	APIKey         string        `koanf:"api_key"`
	Timeout        time.Duration `koanf:"timeout"`         // per-lookup timeout
	MaxConcurrency int           `koanf:"max_concurrency"` // fan-out cap per request
	RateLimit      float64       `koanf:"rate_limit"`      // outbound requests per second
	RateBurst      int           `koanf:"rate_burst"`
}

// SecurityConfig holds authentication and rate limiting configuration.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	AdminUsername     string        `koanf:"admin_username"` // bootstrap admin account
	AdminPassword     string        `koanf:"admin_password"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// APIConfig holds pagination limits for list endpoints.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
	DefaultK        int `koanf:"default_k"` // recommendations returned when k is omitted
	MaxK            int `koanf:"max_k"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

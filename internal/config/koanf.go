// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/reelrec/config.yaml",
	"/etc/reelrec/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8402,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:      "/data/reelrec.duckdb",
			MaxMemory: "512MB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		Catalog: CatalogConfig{
			TitlesPath: "/data/catalog/titles.json",
			MatrixPath: "/data/catalog/similarity.json",
		},
		Metadata: MetadataConfig{
			BaseURL:        "https://www.omdbapi.com/",
			APIKey:         "",
			Timeout:        5 * time.Second,
			MaxConcurrency: 8,
			RateLimit:      10, // OMDB free tier tolerates ~1000/day; keep bursts polite
			RateBurst:      5,
		},
		Security: SecurityConfig{
			JWTSecret:         "",
			SessionTimeout:    24 * time.Hour,
			AdminUsername:     "",
			AdminPassword:     "",
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
			DefaultK:        5,
			MaxK:            20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values from defaultConfig()
//  2. Config file: optional YAML file (if present)
//  3. Environment variables: override any setting
//
// The returned Config has passed Validate(); any error from Load is a
// startup-time configuration error and the process should exit.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Environment variables map through an explicit table so that random
	// env vars cannot pollute the configuration.
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when supplied via environment variables.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings; the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from the YAML file): leave alone.
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are skipped.
//
// Examples:
//   - OMDB_API_KEY -> metadata.api_key
//   - CATALOG_TITLES_PATH -> catalog.titles_path
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_host":    "server.host",
		"http_port":    "server.port",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// Database mappings
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Catalog artifact mappings
		"catalog_titles_path": "catalog.titles_path",
		"catalog_matrix_path": "catalog.matrix_path",

		// Metadata API mappings
		"omdb_base_url":             "metadata.base_url",
		"omdb_api_key":              "metadata.api_key",
		"metadata_timeout":          "metadata.timeout",
		"metadata_max_concurrency":  "metadata.max_concurrency",
		"metadata_rate_limit":       "metadata.rate_limit",
		"metadata_rate_burst":       "metadata.rate_burst",

		// Security mappings
		"jwt_secret":          "security.jwt_secret",
		"session_timeout":     "security.session_timeout",
		"admin_username":      "security.admin_username",
		"admin_password":      "security.admin_password",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",

		// API mappings
		"api_default_page_size": "api.default_page_size",
		"api_max_page_size":     "api.max_page_size",
		"api_default_k":         "api.default_k",
		"api_max_k":             "api.max_k",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Skip unmapped keys so stray environment variables never leak in.
	return ""
}

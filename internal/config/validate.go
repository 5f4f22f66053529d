// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid.
// Any error here is structural and fatal at startup.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.TitlesPath == "" {
		return fmt.Errorf("CATALOG_TITLES_PATH is required")
	}
	if c.Catalog.MatrixPath == "" {
		return fmt.Errorf("CATALOG_MATRIX_PATH is required")
	}
	return nil
}

func (c *Config) validateMetadata() error {
	if c.Metadata.APIKey == "" {
		return fmt.Errorf("OMDB_API_KEY is required")
	}
	if err := validateHTTPURL(c.Metadata.BaseURL, "OMDB_BASE_URL"); err != nil {
		return err
	}
	if c.Metadata.Timeout <= 0 {
		return fmt.Errorf("METADATA_TIMEOUT must be positive")
	}
	if c.Metadata.MaxConcurrency < 1 {
		return fmt.Errorf("METADATA_MAX_CONCURRENCY must be at least 1")
	}
	if c.Metadata.RateLimit <= 0 {
		return fmt.Errorf("METADATA_RATE_LIMIT must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(c.Security.JWTSecret))
	}
	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}

	// The bootstrap admin account is optional, but if one credential is set
	// the other must be too.
	if (c.Security.AdminUsername == "") != (c.Security.AdminPassword == "") {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	if c.Security.AdminPassword != "" && len(c.Security.AdminPassword) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters")
	}

	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 || c.API.DefaultPageSize > c.API.MaxPageSize {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be between 1 and API_MAX_PAGE_SIZE (%d)", c.API.MaxPageSize)
	}
	if c.API.DefaultK < 1 || c.API.DefaultK > c.API.MaxK {
		return fmt.Errorf("API_DEFAULT_K must be between 1 and API_MAX_K (%d)", c.API.MaxK)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, panic; got %q", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// validateHTTPURL checks that a value parses as an absolute http(s) URL.
func validateHTTPURL(raw, name string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme, got %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", name)
	}
	return nil
}

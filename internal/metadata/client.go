// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

// Package metadata fetches display metadata for movies from an external
// OMDB-compatible HTTP API.
//
// The external source is treated as untrusted and possibly incomplete: any
// field it omits degrades to the "N/A" sentinel, and transport-level failures
// surface as ErrUnavailable so callers can degrade per item instead of
// failing a whole batch.
//
// Resilience mechanisms:
//   - Per-call timeout (config METADATA_TIMEOUT)
//   - Outbound rate limiter (golang.org/x/time/rate)
//   - Circuit breaker that fails fast while the upstream is down
package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/reelrec/reelrec/internal/config"
	"github.com/reelrec/reelrec/internal/logging"
	"github.com/reelrec/reelrec/internal/metrics"
	"github.com/reelrec/reelrec/internal/models"
)

// ErrUnavailable indicates the external metadata source could not serve a
// lookup: network failure, non-2xx response, malformed body, timeout, or an
// open circuit breaker. Callers degrade the affected item to placeholder
// metadata rather than failing the batch.
var ErrUnavailable = errors.New("metadata unavailable")

// maxErrorBodySize limits how much of an error response body is read for
// diagnostics.
const maxErrorBodySize = 64 * 1024 // 64KB

// Provider is the seam between the recommendation engine and the external
// metadata source. Implementations must be safe for concurrent use.
type Provider interface {
	// FetchDetails returns display metadata for the given title. The
	// returned MovieDetails always has every field populated, either with
	// real data or the "N/A" sentinel. Returns an error wrapping
	// ErrUnavailable when the source cannot be reached.
	FetchDetails(ctx context.Context, title string) (models.MovieDetails, error)
}

// Client is an OMDB API client implementing Provider.
//
// Thread Safety: safe for concurrent use; each lookup creates its own HTTP
// request and the limiter and breaker are internally synchronized.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[models.MovieDetails]
}

// omdbResponse mirrors the OMDB JSON payload. Response is the OMDB-level
// status flag: "False" means the title could not be matched, delivered with
// HTTP 200.
type omdbResponse struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Genre      string `json:"Genre"`
	ImdbRating string `json:"imdbRating"`
	Plot       string `json:"Plot"`
	ImdbID     string `json:"imdbID"`
	Poster     string `json:"Poster"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

// NewClient creates an OMDB metadata client from configuration.
//
// Circuit breaker configuration mirrors the rest of the service's outbound
// clients: max 3 requests in half-open state, 1 minute measurement window,
// 2 minute recovery timeout, opens at a 60% failure rate over at least 10
// requests.
func NewClient(cfg *config.MetadataConfig) *Client {
	cbName := "omdb-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[models.MovieDetails](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()

			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		breaker: breaker,
	}
}

// FetchDetails implements Provider.
//
// The lookup is keyed by title, not a stable external ID. Titles can be
// ambiguous and the source can match a different movie than intended; that
// weakness is inherited from the catalog build, which carries no external
// identifiers.
func (c *Client) FetchDetails(ctx context.Context, title string) (models.MovieDetails, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// The limiter wait is cancellable and counts against the per-call
	// timeout.
	if err := c.limiter.Wait(ctx); err != nil {
		metrics.RecordMetadataLookup("timeout", start)
		return models.MovieDetails{}, fmt.Errorf("%w: rate limiter wait: %s", ErrUnavailable, err)
	}

	details, err := c.breaker.Execute(func() (models.MovieDetails, error) {
		return c.doFetch(ctx, title)
	})
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			metrics.RecordMetadataLookup("rejected", start)
			logging.Ctx(ctx).Warn().Str("title", title).Msg("[CIRCUIT BREAKER] Metadata lookup rejected")
			return models.MovieDetails{}, fmt.Errorf("%w: %s", ErrUnavailable, err)
		case errors.Is(err, context.DeadlineExceeded):
			metrics.RecordMetadataLookup("timeout", start)
			return models.MovieDetails{}, fmt.Errorf("%w: lookup timed out", ErrUnavailable)
		default:
			metrics.RecordMetadataLookup("failure", start)
			counts := c.breaker.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues("omdb-api").Set(float64(counts.ConsecutiveFailures))
			return models.MovieDetails{}, err
		}
	}

	metrics.RecordMetadataLookup("success", start)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues("omdb-api").Set(0)
	return details, nil
}

// doFetch performs the actual HTTP GET and normalizes the response.
func (c *Client) doFetch(ctx context.Context, title string) (models.MovieDetails, error) {
	params := url.Values{}
	params.Set("t", title)
	params.Set("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return models.MovieDetails{}, fmt.Errorf("%w: failed to create request: %s", ErrUnavailable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return models.MovieDetails{}, ctx.Err()
		}
		return models.MovieDetails{}, fmt.Errorf("%w: request failed: %s", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return models.MovieDetails{}, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var payload omdbResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.MovieDetails{}, fmt.Errorf("%w: failed to decode response: %s", ErrUnavailable, err)
	}

	return normalize(title, &payload), nil
}

// normalize maps an OMDB payload to a complete MovieDetails, substituting
// the "N/A" sentinel for any missing field. When OMDB reports no match
// (Response "False" with HTTP 200), the card keeps the requested catalog
// title with all metadata fields degraded.
func normalize(requested string, payload *omdbResponse) models.MovieDetails {
	details := models.MovieDetails{
		Title:  orUnknown(payload.Title),
		Year:   orUnknown(payload.Year),
		Genre:  orUnknown(payload.Genre),
		Rating: orUnknown(payload.ImdbRating),
		Plot:   orUnknown(payload.Plot),
		ImdbID: orUnknown(payload.ImdbID),
		Poster: orUnknown(payload.Poster),
	}

	if details.Title == models.UnknownField {
		details.Title = requested
	}

	return details
}

// orUnknown returns the value or the unknown sentinel when the source
// omitted the field. OMDB itself uses the literal "N/A" for absent data,
// which passes through unchanged.
func orUnknown(v string) string {
	if v == "" {
		return models.UnknownField
	}
	return v
}

// readBodyForError reads at most maxErrorBodySize of a response body for
// error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// stateToFloat converts circuit breaker state to a numeric value for metrics.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to a string for logging.
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

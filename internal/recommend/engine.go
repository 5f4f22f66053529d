// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

// Package recommend implements the recommendation engine: similarity ranking
// over the precomputed catalog matrix plus concurrent metadata enrichment.
//
// The engine holds only immutable state (catalog, matrix) and an injected
// metadata provider, so a single Engine is safe for concurrent use without
// locking. Enrichment failures are isolated per recommended item; a dead
// metadata source degrades cards to placeholder values but never fails a
// lookup that found its title in the catalog.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelrec/reelrec/internal/catalog"
	"github.com/reelrec/reelrec/internal/logging"
	"github.com/reelrec/reelrec/internal/metadata"
	"github.com/reelrec/reelrec/internal/metrics"
	"github.com/reelrec/reelrec/internal/models"
)

// ErrNotFound indicates the queried title has no exact match in the catalog.
// Surfaced to the caller as "no such movie"; never fatal, and no external
// lookups are performed.
var ErrNotFound = errors.New("title not in catalog")

// Config holds engine tuning parameters.
type Config struct {
	// MaxConcurrency caps the enrichment fan-out per lookup. The effective
	// worker count is min(k, MaxConcurrency).
	MaxConcurrency int
}

// Engine ranks catalog entries by precomputed similarity and enriches the
// top results via the metadata provider.
type Engine struct {
	catalog        *catalog.Catalog
	provider       metadata.Provider
	maxConcurrency int
	logger         zerolog.Logger

	// Atomic counters for the stats endpoint.
	lookups       atomic.Int64
	notFound      atomic.Int64
	degradedItems atomic.Int64
}

// Stats is a point-in-time snapshot of engine counters.
type Stats struct {
	Lookups       int64 `json:"lookups"`
	NotFound      int64 `json:"not_found"`
	DegradedItems int64 `json:"degraded_items"`
	CatalogSize   int   `json:"catalog_size"`
}

// scoredIndex pairs a catalog index with its similarity score for ranking.
type scoredIndex struct {
	index int
	score float64
}

// New creates an Engine over an immutable catalog and a metadata provider.
func New(cat *catalog.Catalog, provider metadata.Provider, cfg Config) *Engine {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	return &Engine{
		catalog:        cat,
		provider:       provider,
		maxConcurrency: maxConcurrency,
		logger:         logging.WithComponent("recommend"),
	}
}

// FindSimilar returns the k catalog entries most similar to title, enriched
// with external metadata, in descending similarity order.
//
// Ranking is deterministic: scores sort descending with a stable tie-break
// that preserves catalog order among equal scores. The query movie itself is
// never included. Requesting more results than the catalog holds returns
// all other entries without error.
//
// Enrichment runs as a bounded concurrent fan-out; each lookup carries its
// own timeout inside the provider. A failed or timed-out lookup yields a
// placeholder card for that one item.
func (e *Engine) FindSimilar(ctx context.Context, title string, k int) ([]models.MovieDetails, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
	}()

	if k < 1 {
		return nil, fmt.Errorf("k must be at least 1, got %d", k)
	}

	e.lookups.Add(1)

	queryIndex, ok := e.catalog.IndexOf(title)
	if !ok {
		e.notFound.Add(1)
		metrics.RecommendationsTotal.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%w: %q", ErrNotFound, title)
	}

	selected := e.rank(queryIndex, k)
	results := e.enrich(ctx, selected)

	metrics.RecommendationsTotal.WithLabelValues("success").Inc()
	e.logger.Debug().
		Str("title", title).
		Int("k", k).
		Int("returned", len(results)).
		Dur("elapsed", time.Since(start)).
		Msg("Recommendation lookup served")

	return results, nil
}

// rank returns up to k catalog indices ordered by descending similarity to
// queryIndex, excluding the query entry itself.
func (e *Engine) rank(queryIndex, k int) []int {
	row := e.catalog.Row(queryIndex)

	scored := make([]scoredIndex, len(row))
	for i, score := range row {
		scored[i] = scoredIndex{index: i, score: score}
	}

	// Stable sort keeps catalog order among equal scores, which makes the
	// output reproducible for identical inputs.
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].score > scored[b].score
	})

	selected := make([]int, 0, k)
	for _, s := range scored {
		if s.index == queryIndex {
			continue
		}
		selected = append(selected, s.index)
		if len(selected) == k {
			break
		}
	}
	return selected
}

// enrich fetches metadata for the selected indices with a bounded worker
// pool, preserving ranking order in the returned slice. Failures degrade the
// affected item to a placeholder card.
func (e *Engine) enrich(ctx context.Context, selected []int) []models.MovieDetails {
	results := make([]models.MovieDetails, len(selected))
	if len(selected) == 0 {
		return results
	}

	workers := e.maxConcurrency
	if len(selected) < workers {
		workers = len(selected)
	}

	type job struct {
		pos   int
		title string
	}
	jobs := make(chan job)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				details, err := e.provider.FetchDetails(ctx, j.title)
				if err != nil {
					e.degradedItems.Add(1)
					metrics.RecommendationDegradedItems.Inc()
					logging.Ctx(ctx).Warn().
						Err(err).
						Str("title", j.title).
						Msg("Metadata enrichment degraded to placeholder")
					details = models.PlaceholderDetails(j.title)
				}
				results[j.pos] = details
			}
		}()
	}

	for pos, idx := range selected {
		jobs <- job{pos: pos, title: e.catalog.TitleAt(idx)}
	}
	close(jobs)
	wg.Wait()

	return results
}

// HasTitle reports whether a title exists in the catalog. Callers use this
// as a cheap precondition check for input validation and autocomplete.
func (e *Engine) HasTitle(title string) bool {
	_, ok := e.catalog.IndexOf(title)
	return ok
}

// Stats returns a snapshot of engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Lookups:       e.lookups.Load(),
		NotFound:      e.notFound.Load(),
		DegradedItems: e.degradedItems.Load(),
		CatalogSize:   e.catalog.Len(),
	}
}

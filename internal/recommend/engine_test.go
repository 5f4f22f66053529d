// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/reelrec/reelrec/internal/catalog"
	"github.com/reelrec/reelrec/internal/metadata"
	"github.com/reelrec/reelrec/internal/models"
)

// stubProvider returns canned metadata and counts calls. failFor titles
// return a metadata.ErrUnavailable error instead.
type stubProvider struct {
	mu      sync.Mutex
	calls   atomic.Int64
	failFor map[string]bool
}

func (p *stubProvider) FetchDetails(_ context.Context, title string) (models.MovieDetails, error) {
	p.calls.Add(1)

	p.mu.Lock()
	fail := p.failFor[title]
	p.mu.Unlock()
	if fail {
		return models.MovieDetails{}, fmt.Errorf("%w: stubbed failure", metadata.ErrUnavailable)
	}

	return models.MovieDetails{
		Title:  title,
		Year:   "2010",
		Genre:  "Drama",
		Rating: "7.5",
		Plot:   "Plot of " + title,
		ImdbID: "tt0000001",
		Poster: "https://example.com/" + title + ".jpg",
	}, nil
}

func fixtureEngine(t *testing.T, provider metadata.Provider) *Engine {
	t.Helper()

	cat, err := catalog.New(
		[]string{"A", "B", "C", "D"},
		[][]float64{
			{1.0, 0.9, 0.9, 0.1},
			{0.9, 1.0, 0.5, 0.2},
			{0.9, 0.5, 1.0, 0.3},
			{0.1, 0.2, 0.3, 1.0},
		},
	)
	if err != nil {
		t.Fatalf("Failed to build catalog: %v", err)
	}

	return New(cat, provider, Config{MaxConcurrency: 4})
}

func titlesOf(results []models.MovieDetails) []string {
	titles := make([]string, len(results))
	for i, r := range results {
		titles[i] = r.Title
	}
	return titles
}

func TestFindSimilarStableTieBreak(t *testing.T) {
	// Row A = [1.0, 0.9, 0.9, 0.1]: B and C tie at 0.9 and must come back
	// in catalog order.
	engine := fixtureEngine(t, &stubProvider{})

	results, err := engine.FindSimilar(context.Background(), "A", 2)
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}

	got := titlesOf(results)
	if len(got) != 2 || got[0] != "B" || got[1] != "C" {
		t.Errorf(`Expected ["B","C"], got %v`, got)
	}
}

func TestFindSimilarKLargerThanCatalog(t *testing.T) {
	engine := fixtureEngine(t, &stubProvider{})

	results, err := engine.FindSimilar(context.Background(), "A", 10)
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}

	// 4-movie catalog: exactly the 3 other entries, never an error.
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Title == "A" {
			t.Error("Query movie must never appear in its own recommendations")
		}
	}
}

func TestFindSimilarUnknownTitle(t *testing.T) {
	provider := &stubProvider{}
	engine := fixtureEngine(t, provider)

	_, err := engine.FindSimilar(context.Background(), "Zelig", 5)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	// A catalog miss must not trigger any external metadata calls.
	if calls := provider.calls.Load(); calls != 0 {
		t.Errorf("Expected zero provider calls, got %d", calls)
	}
}

func TestFindSimilarCaseSensitive(t *testing.T) {
	engine := fixtureEngine(t, &stubProvider{})

	if _, err := engine.FindSimilar(context.Background(), "a", 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for case mismatch, got %v", err)
	}
}

func TestFindSimilarInvalidK(t *testing.T) {
	engine := fixtureEngine(t, &stubProvider{})

	if _, err := engine.FindSimilar(context.Background(), "A", 0); err == nil {
		t.Fatal("Expected error for k=0")
	}
}

func TestFindSimilarDeterministic(t *testing.T) {
	engine := fixtureEngine(t, &stubProvider{})

	first, err := engine.FindSimilar(context.Background(), "A", 3)
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}
	second, err := engine.FindSimilar(context.Background(), "A", 3)
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}

	firstTitles, secondTitles := titlesOf(first), titlesOf(second)
	for i := range firstTitles {
		if firstTitles[i] != secondTitles[i] {
			t.Errorf("Expected identical order across calls, got %v then %v", firstTitles, secondTitles)
		}
	}
}

func TestFindSimilarDegradesFailedItems(t *testing.T) {
	provider := &stubProvider{failFor: map[string]bool{"C": true}}
	engine := fixtureEngine(t, provider)

	results, err := engine.FindSimilar(context.Background(), "A", 3)
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}

	// Full batch count despite the per-item failure.
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	got := titlesOf(results)
	if got[0] != "B" || got[1] != "C" || got[2] != "D" {
		t.Fatalf("Unexpected order: %v", got)
	}

	// The failed item degrades to a complete placeholder card.
	degraded := results[1]
	if degraded.Title != "C" {
		t.Errorf("Expected placeholder to keep catalog title, got %q", degraded.Title)
	}
	for name, field := range map[string]string{
		"Year":   degraded.Year,
		"Genre":  degraded.Genre,
		"Rating": degraded.Rating,
		"Plot":   degraded.Plot,
		"ImdbID": degraded.ImdbID,
		"Poster": degraded.Poster,
	} {
		if field != models.UnknownField {
			t.Errorf("Expected %s sentinel for degraded item, got %q", name, field)
		}
	}

	// Healthy neighbors keep their real metadata.
	if results[0].Year != "2010" {
		t.Errorf("Expected real metadata for healthy item, got %+v", results[0])
	}
}

func TestFindSimilarAllEnrichmentFails(t *testing.T) {
	provider := &stubProvider{failFor: map[string]bool{"A": true, "B": true, "C": true, "D": true}}
	engine := fixtureEngine(t, provider)

	results, err := engine.FindSimilar(context.Background(), "A", 3)
	if err != nil {
		t.Fatalf("Enrichment failures must never fail the batch, got %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 placeholder results, got %d", len(results))
	}
}

func TestFindSimilarConcurrencyCapOne(t *testing.T) {
	cat, err := catalog.New(
		[]string{"A", "B", "C", "D"},
		[][]float64{
			{1.0, 0.9, 0.8, 0.7},
			{0.9, 1.0, 0.5, 0.2},
			{0.8, 0.5, 1.0, 0.3},
			{0.7, 0.2, 0.3, 1.0},
		},
	)
	if err != nil {
		t.Fatalf("Failed to build catalog: %v", err)
	}

	engine := New(cat, &stubProvider{}, Config{MaxConcurrency: 1})

	results, err := engine.FindSimilar(context.Background(), "A", 3)
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}
	got := titlesOf(results)
	if got[0] != "B" || got[1] != "C" || got[2] != "D" {
		t.Errorf("Expected ranking order preserved with serial workers, got %v", got)
	}
}

func TestHasTitle(t *testing.T) {
	engine := fixtureEngine(t, &stubProvider{})

	if !engine.HasTitle("A") {
		t.Error("Expected HasTitle to find A")
	}
	if engine.HasTitle("Zelig") {
		t.Error("Expected HasTitle to miss unknown title")
	}
}

func TestStats(t *testing.T) {
	provider := &stubProvider{failFor: map[string]bool{"B": true}}
	engine := fixtureEngine(t, provider)

	_, _ = engine.FindSimilar(context.Background(), "A", 1)
	_, _ = engine.FindSimilar(context.Background(), "Zelig", 1)

	stats := engine.Stats()
	if stats.Lookups != 2 {
		t.Errorf("Expected 2 lookups, got %d", stats.Lookups)
	}
	if stats.NotFound != 1 {
		t.Errorf("Expected 1 not-found, got %d", stats.NotFound)
	}
	if stats.DegradedItems != 1 {
		t.Errorf("Expected 1 degraded item, got %d", stats.DegradedItems)
	}
	if stats.CatalogSize != 4 {
		t.Errorf("Expected catalog size 4, got %d", stats.CatalogSize)
	}
}

// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

// Package catalog loads and serves the precomputed movie catalog and its
// pairwise similarity matrix.
//
// Both artifacts are produced by the same offline build: position i in the
// title list corresponds to row and column i of the matrix. That
// correspondence is validated at load time and the loaded state is immutable
// for the process lifetime, so a Catalog may be shared across goroutines
// without locking.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

// Catalog is the fixed ordered list of known movies plus their similarity
// matrix. Immutable after Load.
type Catalog struct {
	titles []string
	matrix [][]float64
	index  map[string]int
}

// Load reads the title list and similarity matrix from JSON files and
// validates their correspondence. Any error is structural and should abort
// startup.
func Load(titlesPath, matrixPath string) (*Catalog, error) {
	titles, err := loadTitles(titlesPath)
	if err != nil {
		return nil, err
	}

	matrix, err := loadMatrix(matrixPath)
	if err != nil {
		return nil, err
	}

	return New(titles, matrix)
}

// New builds a Catalog from in-memory artifacts, validating that the matrix
// is square and matches the title count. Exposed for tests with fixture
// catalogs.
func New(titles []string, matrix [][]float64) (*Catalog, error) {
	if len(titles) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	if len(matrix) != len(titles) {
		return nil, fmt.Errorf("similarity matrix has %d rows for %d titles", len(matrix), len(titles))
	}
	for i, row := range matrix {
		if len(row) != len(titles) {
			return nil, fmt.Errorf("similarity matrix row %d has %d columns, want %d", i, len(row), len(titles))
		}
	}

	// First occurrence wins for duplicate titles; the catalog does not
	// deduplicate.
	index := make(map[string]int, len(titles))
	for i, title := range titles {
		if _, exists := index[title]; !exists {
			index[title] = i
		}
	}

	return &Catalog{
		titles: titles,
		matrix: matrix,
		index:  index,
	}, nil
}

func loadTitles(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog titles %s: %w", path, err)
	}

	var titles []string
	if err := json.Unmarshal(data, &titles); err != nil {
		return nil, fmt.Errorf("failed to parse catalog titles %s: %w", path, err)
	}
	return titles, nil
}

func loadMatrix(path string) ([][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read similarity matrix %s: %w", path, err)
	}

	var matrix [][]float64
	if err := json.Unmarshal(data, &matrix); err != nil {
		return nil, fmt.Errorf("failed to parse similarity matrix %s: %w", path, err)
	}
	return matrix, nil
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.titles)
}

// IndexOf resolves a title to its catalog index with an exact,
// case-sensitive match. Returns the first matching index when duplicates
// exist.
func (c *Catalog) IndexOf(title string) (int, bool) {
	i, ok := c.index[title]
	return i, ok
}

// TitleAt returns the title at catalog position i.
func (c *Catalog) TitleAt(i int) string {
	return c.titles[i]
}

// Row returns row i of the similarity matrix: one score per catalog entry,
// including the self entry at position i. Callers must not mutate the
// returned slice.
func (c *Catalog) Row(i int) []float64 {
	return c.matrix[i]
}

// Titles returns all catalog titles in positional order. The returned slice
// is a copy.
func (c *Catalog) Titles() []string {
	out := make([]string, len(c.titles))
	copy(out, c.titles)
	return out
}

// Suggest returns up to limit titles containing the fragment,
// case-insensitive, in catalog order. An empty fragment yields no
// suggestions.
func (c *Catalog) Suggest(fragment string, limit int) []string {
	if fragment == "" || limit <= 0 {
		return nil
	}

	needle := strings.ToLower(fragment)
	var matches []string
	for _, title := range c.titles {
		if strings.Contains(strings.ToLower(title), needle) {
			matches = append(matches, title)
			if len(matches) >= limit {
				break
			}
		}
	}
	return matches
}

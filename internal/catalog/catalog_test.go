// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fixtureCatalog(t *testing.T) *Catalog {
	t.Helper()

	c, err := New(
		[]string{"A", "B", "C", "D"},
		[][]float64{
			{1.0, 0.9, 0.9, 0.1},
			{0.9, 1.0, 0.5, 0.2},
			{0.9, 0.5, 1.0, 0.3},
			{0.1, 0.2, 0.3, 1.0},
		},
	)
	if err != nil {
		t.Fatalf("Failed to build fixture catalog: %v", err)
	}
	return c
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		titles  []string
		matrix  [][]float64
		wantErr string
	}{
		{
			name:    "empty catalog",
			titles:  nil,
			matrix:  nil,
			wantErr: "catalog is empty",
		},
		{
			name:    "row count mismatch",
			titles:  []string{"A", "B"},
			matrix:  [][]float64{{1.0, 0.5}},
			wantErr: "1 rows for 2 titles",
		},
		{
			name:    "ragged row",
			titles:  []string{"A", "B"},
			matrix:  [][]float64{{1.0, 0.5}, {0.5}},
			wantErr: "row 1 has 1 columns",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.titles, tt.matrix)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestIndexOf(t *testing.T) {
	c := fixtureCatalog(t)

	i, ok := c.IndexOf("C")
	if !ok || i != 2 {
		t.Errorf("Expected index 2 for C, got %d (ok=%v)", i, ok)
	}

	if _, ok := c.IndexOf("Z"); ok {
		t.Error("Expected miss for unknown title")
	}

	// Exact match is case-sensitive.
	if _, ok := c.IndexOf("c"); ok {
		t.Error("Expected miss for lowercase title")
	}
}

func TestIndexOfDuplicateTitlesFirstWins(t *testing.T) {
	c, err := New(
		[]string{"A", "B", "A"},
		[][]float64{
			{1.0, 0.5, 0.5},
			{0.5, 1.0, 0.5},
			{0.5, 0.5, 1.0},
		},
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	i, ok := c.IndexOf("A")
	if !ok || i != 0 {
		t.Errorf("Expected first index 0 for duplicate title, got %d", i)
	}
}

func TestRowAndTitleAt(t *testing.T) {
	c := fixtureCatalog(t)

	row := c.Row(0)
	if len(row) != 4 || row[1] != 0.9 {
		t.Errorf("Unexpected row 0: %v", row)
	}
	if c.TitleAt(3) != "D" {
		t.Errorf("Expected D at index 3, got %q", c.TitleAt(3))
	}
	if c.Len() != 4 {
		t.Errorf("Expected length 4, got %d", c.Len())
	}
}

func TestSuggest(t *testing.T) {
	c, err := New(
		[]string{"The Matrix", "The Matrix Reloaded", "Inception", "Heat"},
		[][]float64{
			{1, 0, 0, 0},
			{0, 1, 0, 0},
			{0, 0, 1, 0},
			{0, 0, 0, 1},
		},
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tests := []struct {
		name     string
		fragment string
		limit    int
		want     []string
	}{
		{"case insensitive", "matrix", 10, []string{"The Matrix", "The Matrix Reloaded"}},
		{"limit respected", "matrix", 1, []string{"The Matrix"}},
		{"no match", "avatar", 10, nil},
		{"empty fragment", "", 10, nil},
		{"zero limit", "matrix", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Suggest(tt.fragment, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	titlesPath := filepath.Join(dir, "titles.json")
	matrixPath := filepath.Join(dir, "similarity.json")

	writeFile(t, titlesPath, `["A","B"]`)
	writeFile(t, matrixPath, `[[1.0,0.4],[0.4,1.0]]`)

	c, err := Load(titlesPath, matrixPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", c.Len())
	}
	if c.Row(1)[0] != 0.4 {
		t.Errorf("Unexpected matrix value: %v", c.Row(1))
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	titlesPath := filepath.Join(dir, "titles.json")
	matrixPath := filepath.Join(dir, "similarity.json")
	writeFile(t, titlesPath, `["A","B"]`)

	// Missing matrix file.
	if _, err := Load(titlesPath, matrixPath); err == nil {
		t.Error("Expected error for missing matrix file")
	}

	// Malformed JSON.
	writeFile(t, matrixPath, `not-json`)
	if _, err := Load(titlesPath, matrixPath); err == nil {
		t.Error("Expected error for malformed matrix file")
	}

	// Dimension mismatch between the two artifacts.
	writeFile(t, matrixPath, `[[1.0]]`)
	if _, err := Load(titlesPath, matrixPath); err == nil {
		t.Error("Expected error for dimension mismatch")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

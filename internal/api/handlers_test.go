// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/reelrec/reelrec/internal/auth"
	"github.com/reelrec/reelrec/internal/catalog"
	"github.com/reelrec/reelrec/internal/config"
	"github.com/reelrec/reelrec/internal/database"
	"github.com/reelrec/reelrec/internal/metadata"
	"github.com/reelrec/reelrec/internal/models"
	"github.com/reelrec/reelrec/internal/recommend"
)

// stubProvider returns canned metadata; titles in failFor return an error.
type stubProvider struct {
	mu      sync.Mutex
	failFor map[string]bool
}

func (p *stubProvider) FetchDetails(_ context.Context, title string) (models.MovieDetails, error) {
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

// testServer bundles everything a handler test needs.
type testServer struct {
	router     http.Handler
	db         *database.DB
	jwtManager *auth.JWTManager
	provider   *stubProvider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Security: config.SecurityConfig{
			JWTSecret:         strings.Repeat("s", 32),
			SessionTimeout:    time.Hour,
			RateLimitReqs:     1000,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: true,
			CORSOrigins:       []string{"http://localhost:3000"},
		},
		API: config.APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
			DefaultK:        5,
			MaxK:            20,
		},
	}

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

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB"})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("Failed to create JWT manager: %v", err)
	}

	provider := &stubProvider{failFor: map[string]bool{}}
	engine := recommend.New(cat, provider, recommend.Config{MaxConcurrency: 4})

	handler := NewHandler(cfg, db, cat, engine, provider, jwtManager)
	chiMw := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		RateLimitRequests:  cfg.Security.RateLimitReqs,
		RateLimitWindow:    cfg.Security.RateLimitWindow,
		RateLimitDisabled:  cfg.Security.RateLimitDisabled,
	}, jwtManager)

	return &testServer{
		router:     NewRouter(handler, chiMw).Setup(),
		db:         db,
		jwtManager: jwtManager,
		provider:   provider,
	}
}

// createUser inserts an account directly and returns a bearer token for it.
func (ts *testServer) createUser(t *testing.T, username string, role models.Role) string {
	t.Helper()

	if _, err := ts.db.CreateUser(context.Background(), username, "secret-password", role); err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}

	token, err := ts.jwtManager.GenerateToken(username, string(role))
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return token
}

// doJSON performs a request with an optional bearer token and JSON body.
func (ts *testServer) doJSON(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

// decodeResponse unmarshals the standard envelope.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestLoginSuccess(t *testing.T) {
	ts := newTestServer(t)
	ts.createUser(t, "alice", models.RoleUser)

	rec := ts.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{
		Username: "alice",
		Password: "secret-password",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatal("Expected success envelope")
	}

	var hasCookie bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" && c.Value != "" && c.HttpOnly {
			hasCookie = true
		}
	}
	if !hasCookie {
		t.Error("Expected HTTP-only token cookie")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.createUser(t, "alice", models.RoleUser)

	rec := ts.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{
		Username: "alice",
		Password: "wrong-password",
	})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != ErrCodeUnauthorized {
		t.Errorf("Expected UNAUTHORIZED code, got %+v", resp.Error)
	}
}

func TestLoginUnknownUserSameError(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{
		Username: "ghost",
		Password: "secret-password",
	})

	// Unknown user and wrong password must be indistinguishable.
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rec.Code)
	}
}

func TestLoginValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body LoginRequest
	}{
		{"missing username", LoginRequest{Password: "secret-password"}},
		{"missing password", LoginRequest{Username: "alice"}},
		{"short password", LoginRequest{Username: "alice", Password: "short"}},
		{"non-alphanumeric username", LoginRequest{Username: "al ice!", Password: "secret-password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rec.Code)
			}
			resp := decodeResponse(t, rec)
			if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
				t.Errorf("Expected VALIDATION_ERROR, got %+v", resp.Error)
			}
		})
	}
}

func TestSignupAndDuplicate(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.doJSON(t, http.MethodPost, "/api/v1/auth/signup", "", SignupRequest{
		Username: "bob",
		Password: "secret-password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	data, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("Failed to re-marshal data: %v", err)
	}
	var login LoginResponse
	if err := json.Unmarshal(data, &login); err != nil {
		t.Fatalf("Failed to decode login payload: %v", err)
	}
	if login.Role != string(models.RoleUser) {
		t.Errorf("Expected self-signup to get user role, got %q", login.Role)
	}
	if login.Token == "" {
		t.Error("Expected token in signup response")
	}

	rec = ts.doJSON(t, http.MethodPost, "/api/v1/auth/signup", "", SignupRequest{
		Username: "bob",
		Password: "other-password",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for duplicate signup, got %d", rec.Code)
	}
}

func TestMeRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.doJSON(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rec.Code)
	}
}

func TestMeReturnsAccount(t *testing.T) {
	ts := newTestServer(t)
	token := ts.createUser(t, "alice", models.RoleAdmin)

	rec := ts.doJSON(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if !strings.Contains(rec.Body.String(), `"username":"alice"`) {
		t.Errorf("Expected username in response, got %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("Password hash must never appear in responses")
	}
}

func TestAuthViaCookie(t *testing.T) {
	ts := newTestServer(t)
	token := ts.createUser(t, "alice", models.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected cookie auth to work, got %d", rec.Code)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.doJSON(t, http.MethodPost, "/api/v1/auth/logout", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("Expected token cookie to be expired")
	}
}

func TestHealthLive(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.doJSON(t, http.MethodGet, "/health/live", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
}

func TestHealthReady(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.doJSON(t, http.MethodGet, "/health/ready", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"catalog_size":4`) {
		t.Errorf("Expected catalog size in readiness payload, got %s", rec.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.doJSON(t, http.MethodGet, "/health/live", "", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("Expected nosniff header, got %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("Expected DENY header, got %q", got)
	}
}

// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/reelrec/reelrec/internal/database"
	"github.com/reelrec/reelrec/internal/logging"
	"github.com/reelrec/reelrec/internal/models"
)

// Login handles POST /api/v1/auth/login. On success the JWT is returned in
// the body and set as an HTTP-only cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req LoginRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	user, err := h.db.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, database.ErrInvalidCredentials) {
			rw.Unauthorized("Invalid username or password")
			return
		}
		rw.DatabaseError(err)
		return
	}

	h.issueToken(rw, w, r, user)
}

// Signup handles POST /api/v1/auth/signup. Self-registered accounts always
// get the "user" role and are logged in immediately.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req SignupRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	user, err := h.db.CreateUser(r.Context(), req.Username, req.Password, models.RoleUser)
	if err != nil {
		if errors.Is(err, database.ErrUsernameTaken) {
			rw.Conflict("Username already exists")
			return
		}
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("username", user.Username).Msg("Account created")
	h.issueToken(rw, w, r, user)
}

// Logout handles POST /api/v1/auth/logout by expiring the token cookie.
// Tokens themselves are stateless; a client keeping its bearer token can
// still use it until expiry.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	NewResponseWriter(w, r).Success(map[string]string{"status": "logged out"})
}

// Me handles GET /api/v1/auth/me, returning the authenticated account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		rw.Unauthorized("Missing authentication token")
		return
	}

	user, err := h.db.GetUserByUsername(r.Context(), claims.Username)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			// Token outlived the account.
			rw.Unauthorized("Account no longer exists")
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(user)
}

// issueToken generates a JWT for the user, sets the auth cookie, and writes
// the login response.
func (h *Handler) issueToken(rw *ResponseWriter, w http.ResponseWriter, r *http.Request, user *models.User) {
	token, err := h.jwtManager.GenerateToken(user.Username, string(user.Role))
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to generate token")
		rw.InternalError("Failed to generate authentication token")
		return
	}

	expiresAt := time.Now().Add(h.jwtManager.SessionTimeout())

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	rw.Success(LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		Username:  user.Username,
		Role:      string(user.Role),
	})
}

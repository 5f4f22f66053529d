// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reelrec/reelrec/internal/database"
	"github.com/reelrec/reelrec/internal/logging"
	"github.com/reelrec/reelrec/internal/models"
)

// ListUsers handles GET /api/v1/admin/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	users, err := h.db.ListUsers(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(users, &PaginationMeta{
		Count:   len(users),
		HasMore: false,
	})
}

// CreateUser handles POST /api/v1/admin/users. Unlike signup, admins choose
// the role.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CreateUserRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	user, err := h.db.CreateUser(r.Context(), req.Username, req.Password, models.Role(req.Role))
	if err != nil {
		if errors.Is(err, database.ErrUsernameTaken) {
			rw.Conflict("Username already exists")
			return
		}
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("username", user.Username).
		Str("role", string(user.Role)).
		Str("created_by", adminUsername(r)).
		Msg("Account created by admin")

	rw.Created(user)
}

// GetUser handles GET /api/v1/admin/users/{username}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	username := chi.URLParam(r, "username")
	user, err := h.db.GetUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			rw.NotFound("User not found: " + username)
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(user)
}

// UpdateUserRole handles PUT /api/v1/admin/users/{username}/role. An admin
// cannot demote themselves, which keeps at least one admin reachable.
func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	username := chi.URLParam(r, "username")

	var req UpdateRoleRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	if username == adminUsername(r) && models.Role(req.Role) != models.RoleAdmin {
		rw.Forbidden("Cannot remove your own admin role")
		return
	}

	if err := h.db.UpdateUserRole(r.Context(), username, models.Role(req.Role)); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			rw.NotFound("User not found: " + username)
			return
		}
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("username", username).
		Str("role", req.Role).
		Str("changed_by", adminUsername(r)).
		Msg("Account role updated")

	rw.Success(map[string]string{"username": username, "role": req.Role})
}

// UpdateUserPassword handles PUT /api/v1/admin/users/{username}/password.
func (h *Handler) UpdateUserPassword(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	username := chi.URLParam(r, "username")

	var req UpdatePasswordRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	if err := h.db.UpdateUserPassword(r.Context(), username, req.Password); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			rw.NotFound("User not found: " + username)
			return
		}
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("username", username).
		Str("changed_by", adminUsername(r)).
		Msg("Account password reset by admin")

	rw.Success(map[string]string{"username": username, "status": "password updated"})
}

// DeleteUser handles DELETE /api/v1/admin/users/{username}. Self-deletion is
// rejected for the same reason as self-demotion.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	username := chi.URLParam(r, "username")
	if username == adminUsername(r) {
		rw.Forbidden("Cannot delete your own account")
		return
	}

	if err := h.db.DeleteUser(r.Context(), username); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			rw.NotFound("User not found: " + username)
			return
		}
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("username", username).
		Str("deleted_by", adminUsername(r)).
		Msg("Account deleted")

	rw.NoContent()
}

// adminUsername returns the username of the authenticated admin, or "" when
// unauthenticated (cannot happen behind RequireAdmin).
func adminUsername(r *http.Request) string {
	if claims := ClaimsFromContext(r.Context()); claims != nil {
		return claims.Username
	}
	return ""
}

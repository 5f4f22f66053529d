// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/reelrec/reelrec/internal/validation"
)

// LoginRequest is the body of POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// SignupRequest is the body of POST /api/v1/auth/signup. New accounts always
// get the "user" role; only admins promote.
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// AddWatchlistRequest is the body of POST /api/v1/watchlist. The title must
// exist in the catalog; metadata is snapshotted server-side.
type AddWatchlistRequest struct {
	Title string `json:"title" validate:"required,min=1,max=512"`
}

// CreateUserRequest is the body of POST /api/v1/admin/users.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"required,oneof=admin user"`
}

// UpdateRoleRequest is the body of PUT /api/v1/admin/users/{username}/role.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin user"`
}

// UpdatePasswordRequest is the body of PUT /api/v1/admin/users/{username}/password.
type UpdatePasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginResponse is the payload returned on successful authentication. The
// token is also set as an HTTP-only cookie; the body copy supports
// non-browser clients.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	Username  string `json:"username"`
	Role      string `json:"role"`
}

// decodeAndValidate decodes a JSON request body into dst and runs struct
// validation. On failure it writes the error response and returns false.
func decodeAndValidate(rw *ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		rw.BadRequest("Invalid request body")
		return false
	}

	if verr := validation.ValidateStruct(dst); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return false
	}

	return true
}

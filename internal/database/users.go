// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reelrec/reelrec/internal/auth"
	"github.com/reelrec/reelrec/internal/logging"
	"github.com/reelrec/reelrec/internal/metrics"
	"github.com/reelrec/reelrec/internal/models"
)

// Account errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// CreateUser creates a new account. The password is hashed here; callers
// pass the plaintext and never handle the digest.
func (db *DB) CreateUser(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role: %q", role)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	start := time.Now()
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.PasswordHash, string(user.Role), user.CreatedAt,
	)
	metrics.RecordDBQuery("insert", "users", start, err)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetUserByUsername retrieves an account by its unique username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at FROM users WHERE username = ?`,
		username,
	)

	user, err := scanUser(row)
	metrics.RecordDBQuery("select", "users", start, err)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers retrieves all accounts ordered by creation time.
func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, username, password_hash, role, created_at FROM users ORDER BY created_at, username`,
	)
	metrics.RecordDBQuery("select", "users", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// UpdateUserPassword replaces an account's password hash.
func (db *DB) UpdateUserPassword(ctx context.Context, username, newPassword string) error {
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE username = ?`,
		hash, username,
	)
	metrics.RecordDBQuery("update", "users", start, err)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return requireRowsAffected(result, "update password")
}

// UpdateUserRole changes an account's role.
func (db *DB) UpdateUserRole(ctx context.Context, username string, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role: %q", role)
	}

	start := time.Now()
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET role = ? WHERE username = ?`,
		string(role), username,
	)
	metrics.RecordDBQuery("update", "users", start, err)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	return requireRowsAffected(result, "update role")
}

// DeleteUser removes an account and its watchlist entries.
func (db *DB) DeleteUser(ctx context.Context, username string) error {
	start := time.Now()
	result, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	metrics.RecordDBQuery("delete", "users", start, err)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if err := requireRowsAffected(result, "delete user"); err != nil {
		return err
	}

	// Orphaned watchlist rows are useless once the account is gone.
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM watchlist WHERE username = ?`, username); err != nil {
		return fmt.Errorf("failed to delete user watchlist: %w", err)
	}

	return nil
}

// Authenticate verifies a username/password pair and returns the account on
// success. A missing user and a wrong password both return
// ErrInvalidCredentials so the response does not leak which usernames exist.
func (db *DB) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := db.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account if it does not already
// exist. Called at startup when ADMIN_USERNAME/ADMIN_PASSWORD are set;
// an existing account is left untouched, including its password.
func (db *DB) EnsureAdmin(ctx context.Context, username, password string) error {
	_, err := db.CreateUser(ctx, username, password, models.RoleAdmin)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			logging.Debug().Str("username", username).Msg("Admin account already exists, skipping bootstrap")
			return nil
		}
		return fmt.Errorf("failed to bootstrap admin account: %w", err)
	}

	logging.Info().Str("username", username).Msg("Bootstrap admin account created")
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*models.User, error) {
	var user models.User
	var role string
	if err := s.Scan(&user.ID, &user.Username, &user.PasswordHash, &role, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	return &user, nil
}

// requireRowsAffected maps a zero-row result to ErrUserNotFound.
func requireRowsAffected(result sql.Result, operation string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for %s: %w", operation, err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueConstraintError checks if an error is a unique constraint
// violation. DuckDB constraint errors contain "unique constraint" or
// "Duplicate key" depending on version.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "unique constraint") || strings.Contains(errMsg, "duplicate key")
}

// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

// Package auth provides JWT session tokens and bcrypt password hashing for
// the account system.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/reelrec/reelrec/internal/config"
)

// Claims represents JWT claims for an authenticated session.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager handles JWT token creation and validation using HMAC-SHA256.
//
// Tokens are stateless and cannot be revoked before expiration; clients
// should store them in an HTTP-only cookie.
type JWTManager struct {
	secret  []byte
	timeout time.Duration
}

// NewJWTManager creates a JWT token manager with the configured secret and
// session timeout. The secret is stored as []byte to avoid string interning.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}

	return &JWTManager{
		secret:  []byte(cfg.JWTSecret),
		timeout: cfg.SessionTimeout,
	}, nil
}

// SessionTimeout returns the configured token lifetime.
func (m *JWTManager) SessionTimeout() time.Duration {
	return m.timeout
}

// GenerateToken creates a signed token carrying the user's username and
// role, valid for the configured session timeout.
func (m *JWTManager) GenerateToken(username, role string) (string, error) {
	claims := &Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken verifies a token's signature, algorithm, and time claims,
// and returns its Claims.
//
// The signing method check rejects algorithm-confusion attacks (RS256,
// "none"); only HMAC tokens signed with our secret validate.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

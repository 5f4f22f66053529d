// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/reelrec/reelrec/internal/config"
)

func testManager(t *testing.T, timeout time.Duration) *JWTManager {
	t.Helper()

	m, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      strings.Repeat("s", 32),
		SessionTimeout: timeout,
	})
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}
	return m
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	_, err := NewJWTManager(&config.SecurityConfig{SessionTimeout: time.Hour})
	if err == nil {
		t.Fatal("Expected error for empty secret")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := testManager(t, time.Hour)

	token, err := m.GenerateToken("alice", "admin")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}

	if claims.Username != "alice" {
		t.Errorf("Expected username alice, got %q", claims.Username)
	}
	if claims.Role != "admin" {
		t.Errorf("Expected role admin, got %q", claims.Role)
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) > time.Hour {
		t.Error("Expected expiry within the session timeout")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	m := testManager(t, -time.Minute)

	token, err := m.GenerateToken("alice", "user")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := m.ValidateToken(token); err == nil {
		t.Fatal("Expected error for expired token")
	}
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	m := testManager(t, time.Hour)

	token, err := m.GenerateToken("alice", "user")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	tampered := token[:len(token)-4] + "xxxx"
	if _, err := m.ValidateToken(tampered); err == nil {
		t.Fatal("Expected error for tampered token")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	m1 := testManager(t, time.Hour)
	m2, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      strings.Repeat("x", 32),
		SessionTimeout: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}

	token, err := m1.GenerateToken("alice", "user")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := m2.ValidateToken(token); err == nil {
		t.Fatal("Expected error for token signed with different secret")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	m := testManager(t, time.Hour)

	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.ValidateToken(input); err == nil {
			t.Errorf("Expected error for input %q", input)
		}
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash == "correct horse battery" {
		t.Error("Hash must not equal the plaintext password")
	}
	if !CheckPassword(hash, "correct horse battery") {
		t.Error("Expected matching password to verify")
	}
	if CheckPassword(hash, "wrong password") {
		t.Error("Expected wrong password to fail")
	}
}

func TestHashPasswordRejectsWeak(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Error("Expected error for empty password")
	}
	if _, err := HashPassword("short"); err == nil {
		t.Error("Expected error for short password")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	h1, err := HashPassword("same password here")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	h2, err := HashPassword("same password here")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if h1 == h2 {
		t.Error("Expected distinct hashes for the same password (per-hash salt)")
	}
}

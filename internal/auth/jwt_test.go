package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestManager(secret string, now time.Time) *Manager {
	m := NewManager(secret, 0)
	m.now = func() time.Time { return now }
	return m
}

func TestIssueAndVerify(t *testing.T) {
	m := newTestManager("test-secret", time.Now())

	raw, err := m.Issue(7, "a@x.com", "ngo")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if claims.UserID != 7 || claims.Email != "a@x.com" || claims.Role != "ngo" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Subject != "7" {
		t.Fatalf("subject = %q, want 7", claims.Subject)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != DefaultTTL {
		t.Fatalf("ttl = %v, want %v", got, DefaultTTL)
	}
}

func TestVerifyExpiredAfterTTL(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager("test-secret", issuedAt)

	raw, err := m.Issue(1, "a@x.com", "donor")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	m.now = func() time.Time { return issuedAt.Add(23 * time.Hour) }
	if _, err := m.Verify(raw); err != nil {
		t.Fatalf("token should still be valid before 24h: %v", err)
	}

	m.now = func() time.Time { return issuedAt.Add(24*time.Hour + time.Second) }
	_, err = m.Verify(raw)
	if !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	now := time.Now()
	other := newTestManager("other-secret", now)
	m := newTestManager("test-secret", now)

	raw, err := other.Issue(1, "a@x.com", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = m.Verify(raw)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	m := newTestManager("test-secret", time.Now())

	claims := Claims{
		UserID: 1,
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	if _, err := m.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := newTestManager("test-secret", time.Now())

	for _, raw := range []string{"", "abc", "a.b.c"} {
		if _, err := m.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Verify(%q): expected ErrInvalidToken, got %v", raw, err)
		}
	}
}

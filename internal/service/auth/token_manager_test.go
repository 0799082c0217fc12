package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"pharmacy-pos/internal/domain"
)

func TestTokenManagerRoundTrip(t *testing.T) {
	m, err := NewTokenManager("s3cret", time.Hour)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	token, exp, err := m.Issue(domain.Principal{UserID: 12, Role: domain.RoleManager})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expected future expiry, got %v", exp)
	}
	p, err := m.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if p.UserID != 12 || p.Role != domain.RoleManager {
		t.Fatalf("unexpected principal %+v", p)
	}
}

func TestTokenManagerRejects(t *testing.T) {
	m, _ := NewTokenManager("s3cret", time.Hour)
	other, _ := NewTokenManager("different", time.Hour)
	foreign, _, err := other.Issue(domain.Principal{UserID: 1, Role: domain.RoleCashier})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	expired, _ := NewTokenManager("s3cret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, _, err := expired.Issue(domain.Principal{UserID: 1, Role: domain.RoleCashier})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 1, Role: "janitor"}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1, Role: domain.RoleAdmin}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	for name, token := range map[string]string{
		"garbage":      "not.a.token",
		"wrong secret": foreign,
		"expired":      stale,
		"unknown role": badRole,
		"alg none":     none,
	} {
		if _, err := m.Validate(token); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("%s: expected unauthorized, got %v", name, err)
		}
	}
}

func TestTokenManagerIssueValidation(t *testing.T) {
	if _, err := NewTokenManager("  ", time.Hour); err == nil {
		t.Fatalf("expected secret error")
	}
	m, _ := NewTokenManager("s3cret", 0)
	if m.ttl != 12*time.Hour {
		t.Fatalf("expected default ttl, got %v", m.ttl)
	}
	if _, _, err := m.Issue(domain.Principal{UserID: 0, Role: domain.RoleCashier}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

// Package auth issues and verifies the signed bearer tokens that identify
// till staff.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"pharmacy-pos/internal/domain"
)

// Claims is the token payload. user_id and role are the only application
// claims; expiry and issue time use the registered names.
type Claims struct {
	UserID int64       `json:"user_id"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret required")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (m *TokenManager) Issue(p domain.Principal) (string, time.Time, error) {
	if p.UserID <= 0 || !p.Role.Valid() {
		return "", time.Time{}, fmt.Errorf("issue token: %w", domain.ErrInvalidInput)
	}
	now := m.now()
	expiresAt := now.Add(m.ttl)
	claims := Claims{
		UserID: p.UserID,
		Role:   p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate parses a bearer token. Any failure, including an unknown role,
// is reported as ErrUnauthorized.
func (m *TokenManager) Validate(token string) (domain.Principal, error) {
	claims := &Claims{}
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	if claims.UserID <= 0 || !claims.Role.Valid() {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return domain.Principal{UserID: claims.UserID, Role: claims.Role}, nil
}

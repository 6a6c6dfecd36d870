// Package share issues and verifies signed links to saved bills.
package share

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidLink = errors.New("invalid or expired share link")

const issuer = "receiptsplit"

// Manager handles share token generation and validation.
type Manager struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// Claims identify the shared bill.
type Claims struct {
	BillID string `json:"bill_id"`
	Slug   string `json:"slug"`
	jwt.RegisteredClaims
}

// NewManager creates a new share link manager.
// secretKey should be a strong random string (e.g., 32 bytes).
// A zero ttl issues links that never expire.
func NewManager(secretKey string, ttl time.Duration) *Manager {
	return &Manager{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		now:       time.Now,
	}
}

// Generate creates a signed token for the given bill.
func (m *Manager) Generate(billID, slug string) (string, error) {
	now := m.now()
	claims := &Claims{
		BillID: billID,
		Slug:   slug,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  slug,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if m.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign share token: %w", err)
	}
	return signed, nil
}

// Validate parses and validates a share token, returning its claims.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			return m.secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.BillID == "" {
		return nil, ErrInvalidLink
	}
	return claims, nil
}

package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"nikotrade/backend/internal/domain"
)

var (
	// ErrInvalidToken covers malformed, tampered, or wrongly signed tokens.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrExpiredToken marks a well-formed token past its expiry.
	ErrExpiredToken = errors.New("session token expired")
)

// CookieName is the inquiry session cookie.
const CookieName = "nikotrade_inquiry_session"

// DefaultTTL is how long an inquiry session stays valid.
const DefaultTTL = 24 * time.Hour

// Claims carries the session payload. The email is the only identity this
// system knows.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Manager signs and verifies inquiry session tokens with HMAC-SHA256.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewManager creates a session manager. A zero ttl falls back to DefaultTTL.
func NewManager(secret, issuer string, ttl time.Duration) *Manager {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue signs a session token for the normalized email.
func (m *Manager) Issue(email string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: domain.NormalizeEmail(email),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   domain.NormalizeEmail(email),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses a session token and returns the email it was issued for.
func (m *Manager) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Email == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}

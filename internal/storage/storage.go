package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"nikotrade/backend/internal/domain"
)

var (
	// ErrConsentRequired is returned when an inquiry is created without consent.
	ErrConsentRequired = errors.New("consent required to persist inquiry")
	// ErrProductNotFound is returned for unknown product slugs.
	ErrProductNotFound = errors.New("product not found")
	// ErrProductsUnavailable marks backends that carry no catalog data; callers
	// fall back to the compiled-in table.
	ErrProductsUnavailable = errors.New("products unavailable in this storage backend")
)

// InquiryRepository covers inquiry records.
type InquiryRepository interface {
	CreateInquiry(input domain.CreateInquiryInput) (*domain.Inquiry, error)
	// ListInquiriesByEmail returns the inquiries for a normalized email,
	// newest first.
	ListInquiriesByEmail(email string) ([]domain.Inquiry, error)
}

// AccessTokenRepository covers magic-link tokens.
type AccessTokenRepository interface {
	// IssueAccessToken mints a fresh one-time token for the email and returns
	// the raw secret. The store keeps only the hash.
	IssueAccessToken(email string) (*domain.IssuedAccessToken, error)
	// ConsumeAccessToken redeems a raw token at most once. The lookup and the
	// used-at stamp are a single atomic conditional update; the second of two
	// racing redemptions always gets "". Returns the token's email, or "" when
	// the token is unknown, expired, or already used.
	ConsumeAccessToken(rawToken string) (string, error)
}

// ProductRepository covers read-only catalog access.
type ProductRepository interface {
	ListProducts() ([]domain.Product, error)
	GetProductBySlug(slug string) (*domain.Product, error)
}

// Store aggregates the persistence contract. Two durable backends implement
// it (SQL, filesystem) plus an in-memory one for development and tests;
// callers never branch on which is active.
type Store interface {
	InquiryRepository
	AccessTokenRepository
	ProductRepository

	// Cleanup deletes inquiries older than the retention horizon and tokens
	// that are expired or past the used-token grace window. Returns how many
	// records were removed.
	Cleanup(now time.Time) (int, error)

	Health() error
	Close() error
}

// RetentionPolicy bundles the cleanup horizons a backend applies.
type RetentionPolicy struct {
	InquiryRetention   time.Duration
	AccessTokenTTL     time.Duration
	UsedTokenRetention time.Duration
}

// DefaultRetentionPolicy mirrors the documented defaults: 730 days for
// inquiries, 30 minutes for unused tokens, 24 hours grace for used ones.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		InquiryRetention:   domain.DefaultInquiryRetentionDays * 24 * time.Hour,
		AccessTokenTTL:     domain.DefaultAccessTokenTTLMinutes * time.Minute,
		UsedTokenRetention: domain.UsedTokenRetentionHours * time.Hour,
	}
}

// HashAccessToken is the one-way hash stored in place of the raw secret.
// Shared by every backend so tokens hash identically regardless of storage.
func HashAccessToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}

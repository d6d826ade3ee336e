package memory

import (
	"crypto/rand"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"nikotrade/backend/internal/domain"
	"nikotrade/backend/internal/storage"
)

// Store keeps inquiries and access tokens in process memory. Used for local
// development without a store directory and as the test double everywhere.
type Store struct {
	mu        sync.RWMutex
	inquiries []domain.Inquiry
	tokens    map[string]*domain.InquiryAccessToken // tokenHash -> token
	retention storage.RetentionPolicy
}

// NewStore creates an in-memory store with the given retention policy.
func NewStore(retention storage.RetentionPolicy) *Store {
	return &Store{
		tokens:    make(map[string]*domain.InquiryAccessToken),
		retention: retention,
	}
}

// CreateInquiry appends a new inquiry record.
func (s *Store) CreateInquiry(input domain.CreateInquiryInput) (*domain.Inquiry, error) {
	if !input.Consent {
		return nil, storage.ErrConsentRequired
	}

	now := time.Now().UTC()
	inquiry := domain.Inquiry{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		ReplyEmail:  domain.NormalizeEmail(input.ReplyEmail),
		ProductSlug: strings.TrimSpace(input.ProductSlug),
		ProductName: strings.TrimSpace(input.ProductName),
		Status:      domain.StatusNew,
		ConsentAt:   now,
		CreatedAt:   now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupLocked(now)
	s.inquiries = append(s.inquiries, inquiry)

	return &inquiry, nil
}

// ListInquiriesByEmail returns the email's inquiries, newest first.
func (s *Store) ListInquiriesByEmail(email string) ([]domain.Inquiry, error) {
	normalized := domain.NormalizeEmail(email)

	s.mu.Lock()
	s.cleanupLocked(time.Now().UTC())
	result := make([]domain.Inquiry, 0)
	for _, inquiry := range s.inquiries {
		if inquiry.ReplyEmail == normalized {
			result = append(result, inquiry)
		}
	}
	s.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// IssueAccessToken mints a one-time token and stores only its hash.
func (s *Store) IssueAccessToken(email string) (*domain.IssuedAccessToken, error) {
	raw := make([]byte, domain.RawTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	rawToken := hex.EncodeToString(raw)

	now := time.Now().UTC()
	token := &domain.InquiryAccessToken{
		ID:        uuid.NewString(),
		Email:     domain.NormalizeEmail(email),
		TokenHash: storage.HashAccessToken(rawToken),
		CreatedAt: now,
		ExpiresAt: now.Add(s.retention.AccessTokenTTL),
	}

	s.mu.Lock()
	s.cleanupLocked(now)
	s.tokens[token.TokenHash] = token
	s.mu.Unlock()

	return &domain.IssuedAccessToken{RawToken: rawToken, ExpiresAt: token.ExpiresAt}, nil
}

// ConsumeAccessToken redeems a token at most once. The whole check-and-stamp
// runs under the write lock, so concurrent redemptions of the same raw value
// see exactly one success.
func (s *Store) ConsumeAccessToken(rawToken string) (string, error) {
	hash := storage.HashAccessToken(strings.TrimSpace(rawToken))
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[hash]
	if !ok || token.UsedAt != nil || token.ExpiresAt.Before(now) {
		return "", nil
	}

	used := now
	token.UsedAt = &used
	return token.Email, nil
}

// Cleanup drops inquiries past retention and stale tokens.
func (s *Store) Cleanup(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanupLocked(now), nil
}

func (s *Store) cleanupLocked(now time.Time) int {
	removed := 0

	inquiryCutoff := now.Add(-s.retention.InquiryRetention)
	kept := s.inquiries[:0]
	for _, inquiry := range s.inquiries {
		if inquiry.CreatedAt.Before(inquiryCutoff) {
			removed++
			continue
		}
		kept = append(kept, inquiry)
	}
	s.inquiries = kept

	usedCutoff := now.Add(-s.retention.UsedTokenRetention)
	for hash, token := range s.tokens {
		expired := token.ExpiresAt.Before(now)
		stale := token.UsedAt != nil && token.UsedAt.Before(usedCutoff)
		if expired || stale {
			delete(s.tokens, hash)
			removed++
		}
	}

	return removed
}

// ListProducts reports that this backend carries no catalog.
func (s *Store) ListProducts() ([]domain.Product, error) {
	return nil, storage.ErrProductsUnavailable
}

// GetProductBySlug reports that this backend carries no catalog.
func (s *Store) GetProductBySlug(slug string) (*domain.Product, error) {
	return nil, storage.ErrProductsUnavailable
}

// Health always succeeds for the in-memory backend.
func (s *Store) Health() error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

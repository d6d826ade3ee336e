package filesystem

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"nikotrade/backend/internal/domain"
	"nikotrade/backend/internal/storage"
)

const storeFileName = "inquiries-store.json"

// document is the persisted JSON layout: two top-level collections.
type document struct {
	Inquiries    []domain.Inquiry            `json:"inquiries"`
	AccessTokens []domain.InquiryAccessToken `json:"accessTokens"`
}

// Store persists inquiries and access tokens in a single JSON document under
// the store directory. Every mutation runs under one mutex and replaces the
// file in full via a temp-file rename, so readers always observe either the
// pre-write or the post-write document, never a torn one.
type Store struct {
	mu        sync.Mutex
	path      string
	retention storage.RetentionPolicy
}

// NewStore creates the store directory and the document if missing.
func NewStore(dir string, retention storage.RetentionPolicy) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	s := &Store{
		path:      filepath.Join(dir, storeFileName),
		retention: retention,
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		if err := s.write(&document{
			Inquiries:    []domain.Inquiry{},
			AccessTokens: []domain.InquiryAccessToken{},
		}); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// read loads and sanitizes the document. A missing, corrupt, or partially
// shaped file degrades to the empty schema instead of failing the request.
func (s *Store) read() *document {
	doc := &document{}

	raw, err := os.ReadFile(s.path)
	if err == nil {
		_ = json.Unmarshal(raw, doc)
	}

	if doc.Inquiries == nil {
		doc.Inquiries = []domain.Inquiry{}
	}
	if doc.AccessTokens == nil {
		doc.AccessTokens = []domain.InquiryAccessToken{}
	}
	return doc
}

// write replaces the document atomically: marshal to a temp file in the same
// directory, then rename over the live path.
func (s *Store) write(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), storeFileName+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write store document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp store file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace store document: %w", err)
	}
	return nil
}

// CreateInquiry appends an inquiry and persists the document.
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

	doc := s.read()
	s.cleanupDoc(doc, now)
	doc.Inquiries = append(doc.Inquiries, inquiry)

	if err := s.write(doc); err != nil {
		return nil, err
	}
	return &inquiry, nil
}

// ListInquiriesByEmail returns the email's inquiries, newest first.
func (s *Store) ListInquiriesByEmail(email string) ([]domain.Inquiry, error) {
	normalized := domain.NormalizeEmail(email)

	s.mu.Lock()
	doc := s.read()
	changed := s.cleanupDoc(doc, time.Now().UTC()) > 0
	if changed {
		// Best effort; a failed sweep write must not break the listing.
		_ = s.write(doc)
	}
	s.mu.Unlock()

	result := make([]domain.Inquiry, 0)
	for _, inquiry := range doc.Inquiries {
		if domain.NormalizeEmail(inquiry.ReplyEmail) == normalized {
			result = append(result, inquiry)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// IssueAccessToken mints a one-time token; only the hash touches disk.
func (s *Store) IssueAccessToken(email string) (*domain.IssuedAccessToken, error) {
	raw := make([]byte, domain.RawTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	rawToken := hex.EncodeToString(raw)

	now := time.Now().UTC()
	token := domain.InquiryAccessToken{
		ID:        uuid.NewString(),
		Email:     domain.NormalizeEmail(email),
		TokenHash: storage.HashAccessToken(rawToken),
		CreatedAt: now,
		ExpiresAt: now.Add(s.retention.AccessTokenTTL),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	s.cleanupDoc(doc, now)
	doc.AccessTokens = append(doc.AccessTokens, token)

	if err := s.write(doc); err != nil {
		return nil, err
	}
	return &domain.IssuedAccessToken{RawToken: rawToken, ExpiresAt: token.ExpiresAt}, nil
}

// ConsumeAccessToken redeems a token at most once. The read-check-stamp-write
// sequence holds the store mutex throughout, which is what makes the
// conditional update atomic across concurrent redemptions.
func (s *Store) ConsumeAccessToken(rawToken string) (string, error) {
	hash := storage.HashAccessToken(strings.TrimSpace(rawToken))
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	s.cleanupDoc(doc, now)

	for i := range doc.AccessTokens {
		token := &doc.AccessTokens[i]
		if token.TokenHash != hash {
			continue
		}
		if token.UsedAt != nil || token.ExpiresAt.Before(now) {
			return "", nil
		}

		used := now
		token.UsedAt = &used
		if err := s.write(doc); err != nil {
			return "", err
		}
		return domain.NormalizeEmail(token.Email), nil
	}

	return "", nil
}

// Cleanup sweeps retention-expired records and persists the result.
func (s *Store) Cleanup(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	removed := s.cleanupDoc(doc, now)
	if removed == 0 {
		return 0, nil
	}
	if err := s.write(doc); err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *Store) cleanupDoc(doc *document, now time.Time) int {
	removed := 0

	inquiryCutoff := now.Add(-s.retention.InquiryRetention)
	inquiries := doc.Inquiries[:0]
	for _, inquiry := range doc.Inquiries {
		if inquiry.CreatedAt.Before(inquiryCutoff) {
			removed++
			continue
		}
		inquiries = append(inquiries, inquiry)
	}
	doc.Inquiries = inquiries

	usedCutoff := now.Add(-s.retention.UsedTokenRetention)
	tokens := doc.AccessTokens[:0]
	for _, token := range doc.AccessTokens {
		expired := token.ExpiresAt.Before(now)
		stale := token.UsedAt != nil && token.UsedAt.Before(usedCutoff)
		if expired || stale {
			removed++
			continue
		}
		tokens = append(tokens, token)
	}
	doc.AccessTokens = tokens

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

// Health verifies the document is still readable.
func (s *Store) Health() error {
	_, err := os.Stat(s.path)
	return err
}

// Close is a no-op; every write already ends with the file closed.
func (s *Store) Close() error { return nil }

package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nikotrade/backend/internal/domain"
	"nikotrade/backend/internal/storage"
)

func validInput() domain.CreateInquiryInput {
	return domain.CreateInquiryInput{
		Title:       "Pitanje o dostavi",
		Description: "Zanima me rok isporuke za automirise.",
		ReplyEmail:  "kupac@example.com",
		Consent:     true,
	}
}

func TestCreateInquiryRequiresConsent(t *testing.T) {
	store := NewStore(storage.DefaultRetentionPolicy())

	input := validInput()
	input.Consent = false

	_, err := store.CreateInquiry(input)
	assert.ErrorIs(t, err, storage.ErrConsentRequired)
}

func TestCreateAndListInquiries(t *testing.T) {
	store := NewStore(storage.DefaultRetentionPolicy())

	first, err := store.CreateInquiry(validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, domain.StatusNew, first.Status)

	second, err := store.CreateInquiry(validInput())
	require.NoError(t, err)

	inquiries, err := store.ListInquiriesByEmail("KUPAC@example.com")
	require.NoError(t, err)
	require.Len(t, inquiries, 2)

	// Newest first.
	assert.Equal(t, second.ID, inquiries[0].ID)
	assert.Equal(t, first.ID, inquiries[1].ID)

	other, err := store.ListInquiriesByEmail("drugi@example.com")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestIssueAccessTokenShape(t *testing.T) {
	store := NewStore(storage.DefaultRetentionPolicy())

	issued, err := store.IssueAccessToken("Kupac@Example.com")
	require.NoError(t, err)

	assert.Len(t, issued.RawToken, domain.MinRawTokenLength)
	assert.True(t, issued.ExpiresAt.After(time.Now()))

	// Two tokens never collide.
	again, err := store.IssueAccessToken("kupac@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, issued.RawToken, again.RawToken)
}

func TestConsumeAccessTokenSingleUse(t *testing.T) {
	store := NewStore(storage.DefaultRetentionPolicy())

	issued, err := store.IssueAccessToken("kupac@example.com")
	require.NoError(t, err)

	email, err := store.ConsumeAccessToken(issued.RawToken)
	require.NoError(t, err)
	assert.Equal(t, "kupac@example.com", email)

	email, err = store.ConsumeAccessToken(issued.RawToken)
	require.NoError(t, err)
	assert.Empty(t, email, "second redemption must fail")
}

func TestConsumeAccessTokenConcurrent(t *testing.T) {
	store := NewStore(storage.DefaultRetentionPolicy())

	issued, err := store.IssueAccessToken("kupac@example.com")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			email, err := store.ConsumeAccessToken(issued.RawToken)
			if err == nil && email != "" {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one concurrent redemption may win")
}

func TestConsumeAccessTokenUnknown(t *testing.T) {
	store := NewStore(storage.DefaultRetentionPolicy())

	email, err := store.ConsumeAccessToken("0000000000000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err)
	assert.Empty(t, email)
}

func TestConsumeAccessTokenExpired(t *testing.T) {
	retention := storage.DefaultRetentionPolicy()
	retention.AccessTokenTTL = -time.Minute
	store := NewStore(retention)

	issued, err := store.IssueAccessToken("kupac@example.com")
	require.NoError(t, err)

	email, err := store.ConsumeAccessToken(issued.RawToken)
	require.NoError(t, err)
	assert.Empty(t, email, "expired token must not redeem")
}

func TestCleanupRemovesStaleRecords(t *testing.T) {
	store := NewStore(storage.DefaultRetentionPolicy())

	_, err := store.CreateInquiry(validInput())
	require.NoError(t, err)

	issued, err := store.IssueAccessToken("kupac@example.com")
	require.NoError(t, err)
	_, err = store.ConsumeAccessToken(issued.RawToken)
	require.NoError(t, err)

	// Far enough in the future that everything is past retention.
	future := time.Now().UTC().Add(731 * 24 * time.Hour)
	removed, err := store.Cleanup(future)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	inquiries, err := store.ListInquiriesByEmail("kupac@example.com")
	require.NoError(t, err)
	assert.Empty(t, inquiries)
}

func TestCleanupKeepsUsedTokenInsideGrace(t *testing.T) {
	store := NewStore(storage.DefaultRetentionPolicy())

	issued, err := store.IssueAccessToken("kupac@example.com")
	require.NoError(t, err)
	_, err = store.ConsumeAccessToken(issued.RawToken)
	require.NoError(t, err)

	// Inside both the token TTL and the used-token grace window.
	removed, err := store.Cleanup(time.Now().UTC().Add(10 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestProductsUnavailable(t *testing.T) {
	store := NewStore(storage.DefaultRetentionPolicy())

	_, err := store.ListProducts()
	assert.ErrorIs(t, err, storage.ErrProductsUnavailable)

	_, err = store.GetProductBySlug("dinamo-plavi-automiris")
	assert.ErrorIs(t, err, storage.ErrProductsUnavailable)
}

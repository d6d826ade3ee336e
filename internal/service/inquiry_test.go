package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nikotrade/backend/internal/domain"
	"nikotrade/backend/internal/mail"
	"nikotrade/backend/internal/ratelimit"
	"nikotrade/backend/internal/storage"
	"nikotrade/backend/internal/storage/memory"
)

type captureMailer struct {
	mu         sync.Mutex
	sent       []mail.Message
	configured bool
	fail       bool
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("relay unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) Configured() bool { return m.configured }

func (m *captureMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

// failingStore wraps the memory store and fails inquiry reads and writes.
type failingStore struct {
	storage.Store
}

func (f *failingStore) CreateInquiry(domain.CreateInquiryInput) (*domain.Inquiry, error) {
	return nil, errors.New("store down")
}

func (f *failingStore) ListInquiriesByEmail(string) ([]domain.Inquiry, error) {
	return nil, errors.New("store down")
}

func newTestService(t *testing.T, store storage.Store, mailer *captureMailer) *InquiryService {
	t.Helper()
	dispatcher := mail.NewDispatcher(mailer, mail.DispatcherOptions{
		Attempts:          1,
		Backoff:           time.Millisecond,
		PerAttemptTimeout: time.Second,
		PerSecond:         1000,
	}, zap.NewNop())

	return NewInquiryService(
		store,
		dispatcher,
		ratelimit.NewMemoryLimiter(),
		nil,
		"https://nikotrade.hr",
		"prodaja@nikotrade.hr",
		zap.NewNop(),
	)
}

func validContact() ContactInput {
	return ContactInput{
		Title:       "Pitanje o dostavi",
		Description: "Zanima me rok isporuke za automirise.",
		ReplyEmail:  "kupac@example.com",
		Consent:     true,
	}
}

func TestSubmitContactStoresAndMails(t *testing.T) {
	store := memory.NewStore(storage.DefaultRetentionPolicy())
	mailer := &captureMailer{configured: true}
	svc := newTestService(t, store, mailer)

	result, err := svc.SubmitContact(context.Background(), validContact())
	require.NoError(t, err)
	assert.True(t, result.InquiryStored)
	assert.True(t, result.MailSent)
	assert.NotEmpty(t, result.InquiryID)

	messages := mailer.messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "prodaja@nikotrade.hr", messages[0].To)
	assert.Contains(t, messages[0].Subject, "[NikoTrade upit]")
	assert.Contains(t, messages[0].Text, "kupac@example.com")
}

func TestSubmitContactSucceedsWhenOnlyStoreWorks(t *testing.T) {
	store := memory.NewStore(storage.DefaultRetentionPolicy())
	mailer := &captureMailer{configured: true, fail: true}
	svc := newTestService(t, store, mailer)

	result, err := svc.SubmitContact(context.Background(), validContact())
	require.NoError(t, err)
	assert.True(t, result.InquiryStored)
	assert.False(t, result.MailSent)
}

func TestSubmitContactSucceedsWhenOnlyMailWorks(t *testing.T) {
	store := &failingStore{Store: memory.NewStore(storage.DefaultRetentionPolicy())}
	mailer := &captureMailer{configured: true}
	svc := newTestService(t, store, mailer)

	result, err := svc.SubmitContact(context.Background(), validContact())
	require.NoError(t, err)
	assert.False(t, result.InquiryStored)
	assert.True(t, result.MailSent)
}

func TestSubmitContactFailsWhenNothingWorks(t *testing.T) {
	store := &failingStore{Store: memory.NewStore(storage.DefaultRetentionPolicy())}
	mailer := &captureMailer{configured: true, fail: true}
	svc := newTestService(t, store, mailer)

	_, err := svc.SubmitContact(context.Background(), validContact())
	assert.ErrorIs(t, err, ErrNothingSucceeded)
}

func TestSubmitContactHoneypotDropsSilently(t *testing.T) {
	store := memory.NewStore(storage.DefaultRetentionPolicy())
	mailer := &captureMailer{configured: true}
	svc := newTestService(t, store, mailer)

	input := validContact()
	input.Honeypot = "http://spam.example"

	result, err := svc.SubmitContact(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, result.InquiryStored)
	assert.False(t, result.MailSent)
	assert.Empty(t, mailer.messages())

	inquiries, err := store.ListInquiriesByEmail("kupac@example.com")
	require.NoError(t, err)
	assert.Empty(t, inquiries)
}

func TestSubmitContactProductNameOverridesTitle(t *testing.T) {
	store := memory.NewStore(storage.DefaultRetentionPolicy())
	mailer := &captureMailer{configured: true}
	svc := newTestService(t, store, mailer)

	input := validContact()
	input.Title = ""
	input.ProductName = "Dinamo Plavi Automiris"
	input.ProductSlug = "dinamo-plavi-automiris"

	result, err := svc.SubmitContact(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, result.InquiryStored)

	inquiries, err := store.ListInquiriesByEmail("kupac@example.com")
	require.NoError(t, err)
	require.Len(t, inquiries, 1)
	assert.Equal(t, "Upit za proizvod: Dinamo Plavi Automiris", inquiries[0].Title)
}

func TestSubmitContactValidation(t *testing.T) {
	store := memory.NewStore(storage.DefaultRetentionPolicy())
	svc := newTestService(t, store, &captureMailer{configured: true})

	short := validContact()
	short.Title = "ab"
	_, err := svc.SubmitContact(context.Background(), short)
	assert.ErrorIs(t, err, domain.ErrTitleLength)

	long := validContact()
	long.Description = strings.Repeat("x", 5001)
	_, err = svc.SubmitContact(context.Background(), long)
	assert.ErrorIs(t, err, domain.ErrDescriptionLength)

	badMail := validContact()
	badMail.ReplyEmail = "nije-email"
	_, err = svc.SubmitContact(context.Background(), badMail)
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	noConsent := validContact()
	noConsent.Consent = false
	_, err = svc.SubmitContact(context.Background(), noConsent)
	assert.ErrorIs(t, err, domain.ErrConsentRequired)
}

func TestSubmitContactEmailRateLimit(t *testing.T) {
	store := memory.NewStore(storage.DefaultRetentionPolicy())
	svc := newTestService(t, store, &captureMailer{configured: true})

	for i := 0; i < 6; i++ {
		_, err := svc.SubmitContact(context.Background(), validContact())
		require.NoError(t, err, "submission %d should pass", i+1)
	}

	_, err := svc.SubmitContact(context.Background(), validContact())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmailRateLimited)

	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.GreaterOrEqual(t, rl.RetryAfterSeconds, 1)

	// A different email is unaffected.
	other := validContact()
	other.ReplyEmail = "drugi@example.com"
	_, err = svc.SubmitContact(context.Background(), other)
	assert.NoError(t, err)
}

func TestRequestAccessLinkSendsForKnownEmail(t *testing.T) {
	store := memory.NewStore(storage.DefaultRetentionPolicy())
	mailer := &captureMailer{configured: true}
	svc := newTestService(t, store, mailer)

	_, err := svc.SubmitContact(context.Background(), validContact())
	require.NoError(t, err)
	mailer.mu.Lock()
	mailer.sent = nil
	mailer.mu.Unlock()

	outcome, err := svc.RequestAccessLink(context.Background(), "Kupac@Example.COM", "")
	require.NoError(t, err)
	assert.False(t, outcome.StoreDegraded)

	messages := mailer.messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "kupac@example.com", messages[0].To)
	assert.Contains(t, messages[0].Text, "https://nikotrade.hr/moji-upiti?token=")
}

func TestRequestAccessLinkUnknownEmailSendsNothing(t *testing.T) {
	store := memory.NewStore(storage.DefaultRetentionPolicy())
	mailer := &captureMailer{configured: true}
	svc := newTestService(t, store, mailer)

	outcome, err := svc.RequestAccessLink(context.Background(), "nepoznat@example.com", "")
	require.NoError(t, err)
	assert.False(t, outcome.StoreDegraded)
	assert.Empty(t, mailer.messages())
}

func TestRequestAccessLinkHoneypot(t *testing.T) {
	store := memory.NewStore(storage.DefaultRetentionPolicy())
	mailer := &captureMailer{configured: true}
	svc := newTestService(t, store, mailer)

	_, err := svc.SubmitContact(context.Background(), validContact())
	require.NoError(t, err)

	outcome, err := svc.RequestAccessLink(context.Background(), "kupac@example.com", "filled-in")
	require.NoError(t, err)
	assert.False(t, outcome.StoreDegraded)
}

func TestRequestAccessLinkInvalidEmail(t *testing.T) {
	store := memory.NewStore(storage.DefaultRetentionPolicy())
	svc := newTestService(t, store, &captureMailer{configured: true})

	_, err := svc.RequestAccessLink(context.Background(), "nije email", "")
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestRequestAccessLinkDegradedStore(t *testing.T) {
	store := &failingStore{Store: memory.NewStore(storage.DefaultRetentionPolicy())}
	svc := newTestService(t, store, &captureMailer{configured: true})

	outcome, err := svc.RequestAccessLink(context.Background(), "kupac@example.com", "")
	require.NoError(t, err)
	assert.True(t, outcome.StoreDegraded)
}

func TestExchangeTokenRoundTrip(t *testing.T) {
	store := memory.NewStore(storage.DefaultRetentionPolicy())
	svc := newTestService(t, store, &captureMailer{configured: true})

	issued, err := store.IssueAccessToken("kupac@example.com")
	require.NoError(t, err)

	email, err := svc.ExchangeToken(issued.RawToken)
	require.NoError(t, err)
	assert.Equal(t, "kupac@example.com", email)

	// Second redemption of the same token fails.
	email, err = svc.ExchangeToken(issued.RawToken)
	require.NoError(t, err)
	assert.Empty(t, email)
}

func TestExchangeTokenShortInputSkipsStore(t *testing.T) {
	store := memory.NewStore(storage.DefaultRetentionPolicy())
	svc := newTestService(t, store, &captureMailer{configured: true})

	email, err := svc.ExchangeToken("kratko")
	require.NoError(t, err)
	assert.Empty(t, email)
}

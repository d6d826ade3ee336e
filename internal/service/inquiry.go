package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"nikotrade/backend/internal/domain"
	"nikotrade/backend/internal/mail"
	"nikotrade/backend/internal/monitoring"
	"nikotrade/backend/internal/ratelimit"
	"nikotrade/backend/internal/storage"
	"nikotrade/backend/internal/websocket"
)

var (
	// ErrEmailRateLimited carries the retry hint for a per-email window.
	ErrEmailRateLimited = errors.New("email rate limited")
	// ErrNothingSucceeded means neither persistence nor mail worked for a
	// contact submission.
	ErrNothingSucceeded = errors.New("inquiry could not be stored or sent")
)

// RateLimitedError wraps ErrEmailRateLimited with the window reset hint.
type RateLimitedError struct {
	RetryAfterSeconds int
}

func (e *RateLimitedError) Error() string { return ErrEmailRateLimited.Error() }
func (e *RateLimitedError) Unwrap() error { return ErrEmailRateLimited }

// Per-email fixed windows. IP windows live in the HTTP middleware.
var (
	contactEmailRule     = ratelimit.Rule{Limit: 6, Window: 10 * time.Minute}
	requestLinkEmailRule = ratelimit.Rule{Limit: 5, Window: 10 * time.Minute}
)

// ContactInput is a contact form submission.
type ContactInput struct {
	Title       string
	Description string
	ReplyEmail  string
	Consent     bool
	ProductSlug string
	ProductName string
	// Honeypot is the hidden form field. Humans leave it empty.
	Honeypot string
}

// ContactResult reports what the submission achieved.
type ContactResult struct {
	InquiryID     string
	InquiryStored bool
	MailSent      bool
}

// LinkRequestOutcome is deliberately thin. Every non-error path looks the
// same to the caller so responses cannot leak whether an email is known.
type LinkRequestOutcome struct {
	// StoreDegraded is set when the inquiry lookup itself failed; the HTTP
	// layer words that case differently without confirming anything about
	// the email.
	StoreDegraded bool
}

// InquiryService implements the contact and magic-link flows on top of a
// storage backend, an outbound mailer, and a per-email rate limiter.
type InquiryService struct {
	store        storage.Store
	mailer       *mail.Dispatcher
	limiter      ratelimit.Limiter
	hub          *websocket.Hub
	log          *zap.Logger
	baseURL      string
	contactEmail string
}

// NewInquiryService wires the service. hub may be nil when the event feed is
// disabled. contactEmail is where contact submissions are forwarded.
func NewInquiryService(
	store storage.Store,
	mailer *mail.Dispatcher,
	limiter ratelimit.Limiter,
	hub *websocket.Hub,
	baseURL string,
	contactEmail string,
	log *zap.Logger,
) *InquiryService {
	return &InquiryService{
		store:        store,
		mailer:       mailer,
		limiter:      limiter,
		hub:          hub,
		log:          log,
		baseURL:      strings.TrimRight(baseURL, "/"),
		contactEmail: contactEmail,
	}
}

// SubmitContact validates and processes one contact form submission.
//
// A filled honeypot is silently accepted and dropped. Validation failures
// return domain sentinel errors. After validation, persistence and the
// notification mail each get a try; the submission succeeds when at least one
// of them does.
func (s *InquiryService) SubmitContact(ctx context.Context, input ContactInput) (*ContactResult, error) {
	if strings.TrimSpace(input.Honeypot) != "" {
		s.log.Info("honeypot triggered, dropping submission")
		return &ContactResult{}, nil
	}

	title := strings.TrimSpace(input.Title)
	productName := strings.TrimSpace(input.ProductName)
	if productName != "" {
		title = "Upit za proizvod: " + productName
	}

	email := domain.NormalizeEmail(input.ReplyEmail)
	if err := domain.ValidateInquiryInput(domain.CreateInquiryInput{
		Title:       title,
		Description: input.Description,
		ReplyEmail:  email,
		Consent:     input.Consent,
	}); err != nil {
		return nil, err
	}

	if rlErr := s.allowEmail(ctx, "contact", email, contactEmailRule); rlErr != nil {
		return nil, rlErr
	}

	createInput := domain.CreateInquiryInput{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		ReplyEmail:  email,
		Consent:     input.Consent,
		ProductSlug: strings.TrimSpace(input.ProductSlug),
		ProductName: productName,
	}

	result := &ContactResult{}

	inquiry, err := s.store.CreateInquiry(createInput)
	if err != nil {
		s.log.Error("failed to persist inquiry", zap.Error(err))
	} else {
		result.InquiryID = inquiry.ID
		result.InquiryStored = true
	}

	if s.mailer.Configured() {
		if err := s.mailer.Send(ctx, s.contactNotification(createInput)); err != nil {
			monitoring.MailAttempts.WithLabelValues("failure").Inc()
			s.log.Error("failed to send contact notification", zap.Error(err))
		} else {
			monitoring.MailAttempts.WithLabelValues("success").Inc()
			result.MailSent = true
		}
	}

	if !result.InquiryStored && !result.MailSent {
		return nil, ErrNothingSucceeded
	}

	if result.InquiryStored && s.hub != nil {
		s.hub.NotifyInquiryCreated(inquiry)
	}

	return result, nil
}

// RequestAccessLink handles a magic-link request. Outside of validation and
// rate-limit errors the outcome is always "maybe sent": an unknown email, a
// missing mailer, a token failure, and a successful send are indistinguishable
// to the caller.
func (s *InquiryService) RequestAccessLink(ctx context.Context, email, honeypot string) (*LinkRequestOutcome, error) {
	if strings.TrimSpace(honeypot) != "" {
		s.log.Info("honeypot triggered on link request")
		return &LinkRequestOutcome{}, nil
	}

	normalized := domain.NormalizeEmail(email)
	if !domain.ValidEmail(normalized) {
		return nil, domain.ErrInvalidEmail
	}

	if rlErr := s.allowEmail(ctx, "request-link", normalized, requestLinkEmailRule); rlErr != nil {
		return nil, rlErr
	}

	inquiries, err := s.store.ListInquiriesByEmail(normalized)
	if err != nil {
		s.log.Error("inquiry lookup failed during link request", zap.Error(err))
		return &LinkRequestOutcome{StoreDegraded: true}, nil
	}
	if len(inquiries) == 0 {
		return &LinkRequestOutcome{}, nil
	}

	if !s.mailer.Configured() {
		return &LinkRequestOutcome{}, nil
	}

	issued, err := s.store.IssueAccessToken(normalized)
	if err != nil {
		s.log.Error("failed to issue access token", zap.Error(err))
		return &LinkRequestOutcome{StoreDegraded: true}, nil
	}
	monitoring.AccessTokensIssued.Inc()

	if err := s.mailer.Send(ctx, s.accessLinkMail(normalized, issued)); err != nil {
		monitoring.MailAttempts.WithLabelValues("failure").Inc()
		s.log.Error("failed to send access link", zap.Error(err))
	} else {
		monitoring.MailAttempts.WithLabelValues("success").Inc()
	}
	return &LinkRequestOutcome{}, nil
}

// ExchangeToken redeems a raw magic-link token for the email it belongs to.
// Returns "" when the token is unknown, expired, or already used. Tokens
// shorter than the minted length cannot exist, so those skip the store.
func (s *InquiryService) ExchangeToken(rawToken string) (string, error) {
	trimmed := strings.TrimSpace(rawToken)
	if len(trimmed) < domain.MinRawTokenLength {
		return "", nil
	}
	return s.store.ConsumeAccessToken(trimmed)
}

// ListMine returns the inquiries attached to the session email.
func (s *InquiryService) ListMine(email string) ([]domain.Inquiry, error) {
	return s.store.ListInquiriesByEmail(email)
}

// Cleanup sweeps expired records from the active backend.
func (s *InquiryService) Cleanup(now time.Time) (int, error) {
	return s.store.Cleanup(now)
}

func (s *InquiryService) allowEmail(ctx context.Context, scope, email string, rule ratelimit.Rule) error {
	result, err := s.limiter.Allow(ctx, scope+":email:"+email, rule)
	if err != nil {
		s.log.Warn("rate limit check failed", zap.String("scope", scope), zap.Error(err))
		return nil
	}
	if !result.Allowed {
		return &RateLimitedError{RetryAfterSeconds: result.RetryAfterSeconds}
	}
	return nil
}

func (s *InquiryService) contactNotification(input domain.CreateInquiryInput) mail.Message {
	subject := "[NikoTrade upit] " + input.Title
	if input.ProductName != "" {
		subject = "[NikoTrade upit] " + input.ProductName + " | " + input.Title
	}

	lines := []string{
		"Novi upit sa kontakt forme",
		"",
		"Naslov: " + input.Title,
	}
	if input.ProductName != "" {
		lines = append(lines, "Proizvod: "+input.ProductName)
	}
	if input.ProductSlug != "" {
		lines = append(lines, "Slug proizvoda: "+input.ProductSlug)
	}
	lines = append(lines,
		"Email za odgovor: "+input.ReplyEmail,
		"Privola: DA",
		"",
		"Opis:",
		input.Description,
	)

	return mail.Message{
		To:      s.contactEmail,
		Subject: subject,
		Text:    strings.Join(lines, "\n"),
	}
}

func (s *InquiryService) accessLinkMail(email string, issued *domain.IssuedAccessToken) mail.Message {
	link := fmt.Sprintf("%s/moji-upiti?token=%s", s.baseURL, url.QueryEscape(issued.RawToken))
	validUntil := issued.ExpiresAt.Format("02.01.2006. 15:04")

	text := strings.Join([]string{
		"Pozdrav,",
		"",
		"zatrazili ste siguran pristup stranici \"Moji upiti\".",
		"Otvorite ovaj link:",
		link,
		"",
		"Link vrijedi do: " + validUntil,
		"Ako vi niste zatrazili pristup, slobodno ignorirajte ovu poruku.",
	}, "\n")

	html := fmt.Sprintf(`<h2>Pregled vasih upita</h2>
<p>Zatrazili ste siguran pristup stranici <strong>Moji upiti</strong>.</p>
<p><a href=%q target="_blank" rel="noopener noreferrer">Otvori siguran pregled upita</a></p>
<p>Link vrijedi do: <strong>%s</strong>.</p>
<p>Ako vi niste zatrazili pristup, slobodno ignorirajte ovu poruku.</p>`, link, validUntil)

	return mail.Message{
		To:      email,
		Subject: "Siguran pristup: pregled vasih upita",
		Text:    text,
		HTML:    html,
	}
}

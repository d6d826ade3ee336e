package httptransport

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nikotrade/backend/internal/domain"
	"nikotrade/backend/internal/monitoring"
	"nikotrade/backend/internal/service"
	"nikotrade/backend/internal/session"
)

// InquiryHandler exposes the contact form and the magic-link flow.
type InquiryHandler struct {
	inquiries  *service.InquiryService
	sessions   *session.Manager
	production bool
	log        *zap.Logger
}

// NewInquiryHandler wires the handler. production controls the Secure flag on
// the session cookie.
func NewInquiryHandler(inquiries *service.InquiryService, sessions *session.Manager, production bool, log *zap.Logger) *InquiryHandler {
	return &InquiryHandler{
		inquiries:  inquiries,
		sessions:   sessions,
		production: production,
		log:        log,
	}
}

type contactRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ReplyEmail  string `json:"replyEmail"`
	Consent     bool   `json:"consent"`
	ProductSlug string `json:"productSlug"`
	ProductName string `json:"productName"`
	// Website is the honeypot field. The form hides it; bots fill it.
	Website string `json:"website"`
}

// SubmitContact handles POST /v1/contact.
func (h *InquiryHandler) SubmitContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	result, err := h.inquiries.SubmitContact(c.Request.Context(), service.ContactInput{
		Title:       req.Title,
		Description: req.Description,
		ReplyEmail:  req.ReplyEmail,
		Consent:     req.Consent,
		ProductSlug: req.ProductSlug,
		ProductName: req.ProductName,
		Honeypot:    req.Website,
	})
	if err != nil {
		h.writeContactError(c, err)
		return
	}

	if result.InquiryStored {
		monitoring.InquiriesCreated.Inc()
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":            true,
		"inquiryId":     result.InquiryID,
		"inquiryStored": result.InquiryStored,
		"mailSent":      result.MailSent,
	})
}

func (h *InquiryHandler) writeContactError(c *gin.Context, err error) {
	var rl *service.RateLimitedError
	switch {
	case errors.As(err, &rl):
		monitoring.RateLimitBlocked.WithLabelValues("contact-email").Inc()
		tooManyRequests(c, msgTooManyForEmail, rl.RetryAfterSeconds)
	case errors.Is(err, domain.ErrTitleLength):
		fail(c, http.StatusBadRequest, msgTitleLength)
	case errors.Is(err, domain.ErrDescriptionLength):
		fail(c, http.StatusBadRequest, msgDescriptionLength)
	case errors.Is(err, domain.ErrInvalidEmail):
		fail(c, http.StatusBadRequest, msgInvalidReplyEmail)
	case errors.Is(err, domain.ErrConsentRequired):
		fail(c, http.StatusBadRequest, msgConsentRequired)
	default:
		h.log.Error("contact submission failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, msgContactFailed)
	}
}

type requestLinkRequest struct {
	Email   string `json:"email"`
	Website string `json:"website"`
}

// RequestLink handles POST /v1/inquiries/request-link. All non-error outcomes
// share one response body.
func (h *InquiryHandler) RequestLink(c *gin.Context) {
	var req requestLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	_, err := h.inquiries.RequestAccessLink(c.Request.Context(), req.Email, req.Website)
	if err != nil {
		var rl *service.RateLimitedError
		switch {
		case errors.As(err, &rl):
			monitoring.RateLimitBlocked.WithLabelValues("request-link-email").Inc()
			tooManyRequests(c, msgTooManyForEmail, rl.RetryAfterSeconds)
		case errors.Is(err, domain.ErrInvalidEmail):
			fail(c, http.StatusBadRequest, msgInvalidEmail)
		default:
			h.log.Error("link request failed", zap.Error(err))
			fail(c, http.StatusInternalServerError, msgLinkRequestFailed)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": msgLinkMaybeSent,
	})
}

// ExchangeToken handles GET /v1/inquiries/session?token=...
// A valid token becomes an HTTP-only session cookie.
func (h *InquiryHandler) ExchangeToken(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		fail(c, http.StatusBadRequest, msgMissingToken)
		return
	}

	email, err := h.inquiries.ExchangeToken(token)
	if err != nil {
		h.log.Error("token exchange failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, msgSessionCreateError)
		return
	}
	if email == "" {
		fail(c, http.StatusBadRequest, msgInvalidOrUsedToken)
		return
	}

	sessionToken, err := h.sessions.Issue(email)
	if err != nil {
		h.log.Error("session issue failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, msgSessionCreateError)
		return
	}

	monitoring.AccessTokensConsumed.Inc()
	h.setSessionCookie(c, sessionToken, int(h.sessions.TTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListMine handles GET /v1/inquiries/mine behind the session cookie.
func (h *InquiryHandler) ListMine(c *gin.Context) {
	cookie, err := c.Cookie(session.CookieName)
	if err != nil || cookie == "" {
		fail(c, http.StatusUnauthorized, msgNotLoggedIn)
		return
	}

	email, err := h.sessions.Verify(cookie)
	if err != nil {
		fail(c, http.StatusUnauthorized, msgSessionExpired)
		return
	}

	inquiries, err := h.inquiries.ListMine(email)
	if err != nil {
		h.log.Error("inquiry listing failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, msgListInquiriesFailed)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"email":     email,
		"inquiries": inquiries,
	})
}

// Logout handles POST /v1/inquiries/logout by clearing the cookie. The token
// itself stays valid until expiry; there is no server-side session state.
func (h *InquiryHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *InquiryHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, value, maxAge, "/", "", h.production, true)
}

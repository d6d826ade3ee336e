package domain

import "time"

// InquiryStatus tracks how far an inquiry has been handled. It is set once at
// creation; later transitions happen out-of-band, never through this service.
type InquiryStatus string

const (
	StatusNew        InquiryStatus = "novo"
	StatusInProgress InquiryStatus = "u-obradi"
	StatusAnswered   InquiryStatus = "odgovoreno"
	StatusClosed     InquiryStatus = "zatvoreno"
)

// Inquiry is a customer-submitted message from the contact form or a product
// page. ReplyEmail is always stored trimmed and lowercased.
type Inquiry struct {
	ID          string        `json:"id" gorm:"primaryKey;size:36"`
	Title       string        `json:"title" gorm:"size:120;not null"`
	Description string        `json:"description" gorm:"type:text;not null"`
	ReplyEmail  string        `json:"replyEmail" gorm:"size:254;index;not null"`
	ProductSlug string        `json:"productSlug,omitempty" gorm:"size:120"`
	ProductName string        `json:"productName,omitempty" gorm:"size:160"`
	Status      InquiryStatus `json:"status" gorm:"size:20;not null"`
	ConsentAt   time.Time     `json:"consentAt" gorm:"not null"`
	CreatedAt   time.Time     `json:"createdAt" gorm:"index;not null"`
}

// CreateInquiryInput carries the validated contact-form fields into the store.
type CreateInquiryInput struct {
	Title       string
	Description string
	ReplyEmail  string
	Consent     bool
	ProductSlug string
	ProductName string
}

// InquiryAccessToken is the persisted half of a magic link. Only the SHA-256
// hash of the bearer secret is stored; the raw value exists exactly once, in
// the link mailed to the customer. UsedAt flips from nil to a timestamp at
// most once.
type InquiryAccessToken struct {
	ID        string     `json:"id" gorm:"primaryKey;size:36"`
	Email     string     `json:"email" gorm:"size:254;index;not null"`
	TokenHash string     `json:"tokenHash" gorm:"size:64;uniqueIndex;not null"`
	CreatedAt time.Time  `json:"createdAt" gorm:"not null"`
	ExpiresAt time.Time  `json:"expiresAt" gorm:"index;not null"`
	UsedAt    *time.Time `json:"usedAt"`
}

// IssuedAccessToken is returned to the caller when a token is minted. RawToken
// is never persisted.
type IssuedAccessToken struct {
	RawToken  string
	ExpiresAt time.Time
}

// RawTokenBytes is the entropy of a magic-link secret. Hex encoding doubles it
// on the wire, so valid raw tokens are exactly 2*RawTokenBytes characters.
const RawTokenBytes = 32

// MinRawTokenLength is the cheap prefilter bound for ConsumeAccessToken input.
const MinRawTokenLength = 2 * RawTokenBytes

// Retention defaults, overridable through configuration.
const (
	DefaultInquiryRetentionDays  = 730
	DefaultAccessTokenTTLMinutes = 30
	UsedTokenRetentionHours      = 24
)

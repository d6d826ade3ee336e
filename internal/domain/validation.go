package domain

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrTitleLength       = errors.New("title length out of range")
	ErrDescriptionLength = errors.New("description length out of range")
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrConsentRequired   = errors.New("consent required")
)

// Field bounds for the contact form.
const (
	TitleMinLength       = 3
	TitleMaxLength       = 120
	DescriptionMinLength = 10
	DescriptionMaxLength = 5000
)

// emailPattern matches the original storefront's permissive shape check:
// something@something.something, no whitespace.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lowercases an address. Every email that enters the
// store or a rate-limit key goes through this first.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether the address has a plausible shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// ValidateInquiryInput checks the contact-form field constraints. Title and
// description are validated after trimming, matching what gets stored.
func ValidateInquiryInput(input CreateInquiryInput) error {
	title := strings.TrimSpace(input.Title)
	if len([]rune(title)) < TitleMinLength || len([]rune(title)) > TitleMaxLength {
		return ErrTitleLength
	}

	description := strings.TrimSpace(input.Description)
	if len([]rune(description)) < DescriptionMinLength || len([]rune(description)) > DescriptionMaxLength {
		return ErrDescriptionLength
	}

	if !ValidEmail(input.ReplyEmail) {
		return ErrInvalidEmail
	}

	if !input.Consent {
		return ErrConsentRequired
	}

	return nil
}

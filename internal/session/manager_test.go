package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	manager := NewManager("test-secret", "nikotrade", time.Hour)

	token, err := manager.Issue("Kupac@Example.COM")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	email, err := manager.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "kupac@example.com", email, "email should be normalized inside the token")
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	manager := NewManager("test-secret", "nikotrade", time.Hour)

	token, err := manager.Issue("kupac@example.com")
	require.NoError(t, err)

	// Flip one character in the payload segment.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = manager.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewManager("secret-one", "nikotrade", time.Hour)
	verifier := NewManager("secret-two", "nikotrade", time.Hour)

	token, err := issuer.Issue("kupac@example.com")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	manager := NewManager("test-secret", "nikotrade", -time.Minute)

	token, err := manager.Issue("kupac@example.com")
	require.NoError(t, err)

	_, err = manager.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	manager := NewManager("test-secret", "nikotrade", time.Hour)

	for _, input := range []string{"", "abc", "a.b.c", "not-a-token-at-all"} {
		_, err := manager.Verify(input)
		assert.Error(t, err, "input %q should not verify", input)
	}
}

func TestZeroTTLFallsBackToDefault(t *testing.T) {
	manager := NewManager("test-secret", "nikotrade", 0)
	assert.Equal(t, DefaultTTL, manager.TTL())
}

package security

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-key", 24*time.Hour)

	token, err := issuer.Issue("visitor-1", "project-1")
	require.NoError(t, err)

	claims := issuer.Verify(token)
	require.NotNil(t, claims)
	assert.Equal(t, "visitor-1", claims.VisitorID)
	assert.Equal(t, "project-1", claims.ProjectID)
}

func TestIssueWithoutSecret(t *testing.T) {
	issuer := NewTokenIssuer("", 24*time.Hour)

	_, err := issuer.Issue("v", "p")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-key", time.Millisecond)

	token, err := issuer.Issue("v", "p")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	assert.Nil(t, issuer.Verify(token))
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-key", 24*time.Hour)

	token, err := issuer.Issue("v", "p")
	require.NoError(t, err)

	// Flip one hex digit of the signature segment.
	last := token[len(token)-1]
	flipped := byte('0')
	if last == '0' {
		flipped = '1'
	}
	tampered := token[:len(token)-1] + string(flipped)

	assert.Nil(t, issuer.Verify(tampered))
}

func TestVerifyRejectsMalformed(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-key", 24*time.Hour)

	valid, err := issuer.Issue("v", "p")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"too few segments", "a|b|c"},
		{"too many segments", valid + "|extra"},
		{"bad timestamp", "v|p|notanumber|" + strings.Repeat("ab", 32)},
		{"non-hex signature", fmt.Sprintf("v|p|%d|zzzz", time.Now().Add(time.Hour).UnixMilli())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, issuer.Verify(tt.token))
		})
	}
}

func TestVerifyWithoutSecret(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-key", 24*time.Hour)
	token, err := issuer.Issue("v", "p")
	require.NoError(t, err)

	unsecured := NewTokenIssuer("", 24*time.Hour)
	assert.Nil(t, unsecured.Verify(token))
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", 24*time.Hour)
	token, err := issuer.Issue("v", "p")
	require.NoError(t, err)

	other := NewTokenIssuer("secret-b", 24*time.Hour)
	assert.Nil(t, other.Verify(token))
}

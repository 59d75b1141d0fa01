package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrNoSecret is returned when token issuance is attempted without a
// configured signing secret.
var ErrNoSecret = errors.New("visitor token secret is not configured")

// TokenClaims is the verified binding carried by a visitor token
type TokenClaims struct {
	VisitorID string
	ProjectID string
}

// TokenIssuer issues and verifies signed visitor ownership tokens.
// A token binds a visitor to a project for a fixed TTL and has the shape
// visitorID|projectID|expiresMillis|hex(signature).
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a token issuer. An empty secret disables issuance
// and makes every verification fail.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token for the visitor/project pair
func (t *TokenIssuer) Issue(visitorID, projectID string) (string, error) {
	if len(t.secret) == 0 {
		return "", ErrNoSecret
	}

	expiresAt := time.Now().Add(t.ttl).UnixMilli()
	payload := fmt.Sprintf("%s|%s|%d", visitorID, projectID, expiresAt)
	return payload + "|" + hex.EncodeToString(t.sign(payload)), nil
}

// Verify checks a token and returns its claims, or nil for any defect:
// missing token, missing secret, wrong segment count, unparseable or expired
// timestamp, or signature mismatch. Invalid input is never an error, the
// nil result is the failure signal.
func (t *TokenIssuer) Verify(token string) *TokenClaims {
	if token == "" || len(t.secret) == 0 {
		return nil
	}

	parts := strings.Split(token, "|")
	if len(parts) != 4 {
		return nil
	}

	expiresAt, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil
	}
	if time.Now().UnixMilli() > expiresAt {
		return nil
	}

	got, err := hex.DecodeString(parts[3])
	if err != nil {
		return nil
	}

	payload := strings.Join(parts[:3], "|")
	if !hmac.Equal(got, t.sign(payload)) {
		return nil
	}

	return &TokenClaims{VisitorID: parts[0], ProjectID: parts[1]}
}

func (t *TokenIssuer) sign(payload string) []byte {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}

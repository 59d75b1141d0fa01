package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/askpage/askpage/internal/security"
)

type contextKey string

const visitorClaimsKey contextKey = "visitorClaims"

// VisitorTokenMiddleware extracts and verifies the visitor ownership token.
// A missing or invalid token is not an error here: claims are simply absent
// and each handler decides whether it needs them.
type VisitorTokenMiddleware struct {
	issuer *security.TokenIssuer
}

// NewVisitorTokenMiddleware creates a new visitor token middleware
func NewVisitorTokenMiddleware(issuer *security.TokenIssuer) *VisitorTokenMiddleware {
	return &VisitorTokenMiddleware{issuer: issuer}
}

// Extract reads the token from the X-Visitor-Token header, falling back to
// the visitor_token query parameter for EventSource clients that cannot set
// headers.
func (m *VisitorTokenMiddleware) Extract(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Visitor-Token")
		if token == "" {
			token = r.URL.Query().Get("visitor_token")
		}

		if claims := m.issuer.Verify(token); claims != nil {
			ctx := context.WithValue(r.Context(), visitorClaimsKey, claims)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// GetVisitorClaims returns the verified token claims, or nil when the request
// carried no valid token.
func GetVisitorClaims(ctx context.Context) *security.TokenClaims {
	claims, _ := ctx.Value(visitorClaimsKey).(*security.TokenClaims)
	return claims
}

// ClientIP resolves the caller address, preferring the Cloudflare header the
// widget traffic arrives with, then the address chi's RealIP resolved.
func ClientIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

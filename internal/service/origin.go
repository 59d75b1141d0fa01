package service

import (
	"net/url"
	"strings"
)

// OriginAllowed reports whether the request Origin header matches one of the
// project's allow-listed hosts. Comparison is host-only, case-insensitive,
// with a leading "www." normalized away on both sides. Only the Origin
// header is ever consulted; Referer is attacker-influenceable for
// cross-origin POSTs and must not be used as a fallback.
func OriginAllowed(origin string, allowed []string) bool {
	host := normalizeHost(origin)
	if host == "" {
		return false
	}
	for _, a := range allowed {
		if normalizeHost(a) == host {
			return true
		}
	}
	return false
}

func normalizeHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	host := raw
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return ""
		}
		host = u.Host
	}

	// Drop any port segment.
	if i := strings.LastIndex(host, ":"); i != -1 && !strings.Contains(host, "]") {
		host = host[:i]
	}

	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	return host
}

// Package identity derives a best-effort anonymous identifier for inbound
// requests and hashes it into stable opaque keys.
//
// Identity here is a fairness mechanism, not a security boundary: clients on
// the office network are unauthenticated, so the resolver accepts proxy
// headers and even a self-declared client id. The worst a spoofing client
// gains is a fresh rate-limit window.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// Fallback is returned when no identity source yields a usable value.
const Fallback = "unknown"

// Resolve returns the client identity for a request. Precedence, first
// match wins:
//
//  1. First comma-separated entry of X-Forwarded-For, unless loopback.
//  2. X-Real-IP.
//  3. X-Client-ID (client self-declaration, useful behind shared NAT and
//     in tests).
//  4. The transport-level peer address (host part of RemoteAddr).
//  5. The literal "unknown".
//
// Resolve never fails and has no side effects.
func Resolve(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if ip != "" && ip != "127.0.0.1" && ip != "::1" {
			return ip
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	if clientID := strings.TrimSpace(r.Header.Get("X-Client-ID")); clientID != "" {
		return clientID
	}

	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}

	return Fallback
}

// Key maps an identity to the stable opaque key used by the rate limiter.
// The raw identity is never retained; only this fixed-length digest is.
func Key(id string) string {
	return digest(id, 16)
}

// ShortKey is the truncated digest exposed publicly as QueueItem.AddedBy.
// It is shorter than Key so queue listings leak even less about submitters.
func ShortKey(id string) string {
	return digest(id, 8)
}

func digest(id string, n int) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])[:n]
}

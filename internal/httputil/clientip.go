package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the address request logs attribute a query to. By
// default that is the connection's remote address. With trustProxy set,
// forwarding headers added by a reverse proxy in front of the API take
// precedence: the leftmost X-Forwarded-For entry, then X-Real-IP. Only
// enable trustProxy behind a proxy that strips client-supplied copies of
// those headers.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := forwardedClient(r.Header); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// forwardedClient extracts the original client from proxy headers, or ""
// when none are set.
func forwardedClient(h http.Header) string {
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		// The leftmost entry is the original client; later entries are
		// intermediate proxies.
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return strings.TrimSpace(h.Get("X-Real-IP"))
}

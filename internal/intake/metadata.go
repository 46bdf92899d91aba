package intake

import (
	"net/http"
	"strings"
)

// RequestMetadata is what the request itself says about the submitter.
// Every field is optional.
type RequestMetadata struct {
	UserAgent string
	IP        string
	Referer   string
}

// MetadataFromRequest reads user agent, client IP and referer from r.
func MetadataFromRequest(r *http.Request) RequestMetadata {
	return RequestMetadata{
		UserAgent: strings.TrimSpace(r.UserAgent()),
		IP:        ClientIP(r.Header),
		Referer:   strings.TrimSpace(r.Referer()),
	}
}

// ClientIP returns the first X-Forwarded-For hop, falling back to X-Real-IP.
func ClientIP(h http.Header) string {
	if forwarded := h.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return strings.TrimSpace(h.Get("X-Real-IP"))
}

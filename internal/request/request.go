package request

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// HeaderRequestID carries the correlation id for a request.
const HeaderRequestID = "X-Request-ID"

const maxRequestIDLength = 64

// ClientIP extracts the client IP from the request, respecting X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// ID returns the caller supplied request id when it is usable, otherwise a fresh one.
func ID(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
	if id == "" || len(id) > maxRequestIDLength || !printable(id) {
		return uuid.NewString()
	}
	return id
}

func printable(s string) bool {
	for _, c := range s {
		if c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}

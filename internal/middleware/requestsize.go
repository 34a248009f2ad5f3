package middleware

import (
	"net/http"
	"strings"
)

const (
	// DefaultMaxRequestSize is the default maximum request body size (1MB)
	DefaultMaxRequestSize int64 = 1 << 20
)

// SizeOverride raises or lowers the body limit for every path under Prefix
type SizeOverride struct {
	Prefix   string
	MaxBytes int64
}

// MaxRequestSize limits the size of request bodies.
// The longest matching override wins over maxBytes.
func MaxRequestSize(maxBytes int64, overrides ...SizeOverride) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := limitFor(r.URL.Path, maxBytes, overrides)

			if r.ContentLength > limit {
				respondErrorJSON(w, r, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
					"Request body exceeds the allowed size", nil)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			defer r.Body.Close()

			next.ServeHTTP(w, r)
		})
	}
}

func limitFor(path string, fallback int64, overrides []SizeOverride) int64 {
	limit := fallback
	matched := 0
	for _, o := range overrides {
		if o.MaxBytes <= 0 || !strings.HasPrefix(path, o.Prefix) {
			continue
		}
		if len(o.Prefix) > matched {
			limit = o.MaxBytes
			matched = len(o.Prefix)
		}
	}
	return limit
}

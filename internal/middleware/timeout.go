package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultRequestTimeout is the default request timeout (30 seconds)
	DefaultRequestTimeout = 30 * time.Second
)

const timeoutBody = `{"success":false,"error":"Request Timeout","message":"The request took too long to complete"}`

// Timeout creates a middleware that enforces a timeout on request handlers.
// Paths whose prefix is listed in skip run without the deadline.
func Timeout(timeout time.Duration, skip ...string) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		handler := http.TimeoutHandler(next, timeout, timeoutBody)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range skip {
				if prefix != "" && strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			w.Header().Set("Content-Type", "application/json")
			handler.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

// DefaultFrontendOrigin is always allowed so the local web client works out of the box
const DefaultFrontendOrigin = "http://localhost:3000"

// CORS creates CORS middleware for the given comma-separated list of origins.
// DefaultFrontendOrigin is always included.
func CORS(frontendURL string, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := ParseOrigins(frontendURL)
	logger.Info("cors_initialized", zap.Strings("allowed_origins", origins))

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Location", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           86400,
	})
	return c.Handler
}

// ParseOrigins splits a comma-separated origin list, trimming blanks and duplicates
func ParseOrigins(frontendURL string) []string {
	origins := []string{DefaultFrontendOrigin}
	for _, origin := range strings.Split(frontendURL, ",") {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		exists := false
		for _, existing := range origins {
			if existing == trimmed {
				exists = true
				break
			}
		}
		if !exists {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

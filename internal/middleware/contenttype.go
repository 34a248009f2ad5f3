package middleware

import (
	"mime"
	"net/http"
	"strings"
)

// ContentType validates Content-Type headers for requests with bodies.
// JSON is accepted everywhere; multipart forms and raw images are accepted for scan uploads.
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !hasBody(r) {
			next.ServeHTTP(w, r)
			return
		}

		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			respondErrorJSON(w, r, http.StatusBadRequest, "Bad Request", "Content-Type header is required", nil)
			return
		}

		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || !allowedMediaType(mediaType) {
			respondErrorJSON(w, r, http.StatusUnsupportedMediaType, "Unsupported Media Type",
				"Content-Type must be application/json, multipart/form-data or an image type", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPatch, http.MethodPut:
	default:
		return false
	}
	return r.ContentLength != 0 && r.Body != nil && r.Body != http.NoBody
}

func allowedMediaType(mediaType string) bool {
	mediaType = strings.ToLower(mediaType)
	switch {
	case mediaType == "application/json":
		return true
	case mediaType == "multipart/form-data":
		return true
	case strings.HasPrefix(mediaType, "image/"):
		return true
	}
	return false
}

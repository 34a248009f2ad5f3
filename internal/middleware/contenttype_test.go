package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		contentType string
		body        string
		wantStatus  int
	}{
		{"json", http.MethodPost, "application/json", `{}`, http.StatusOK},
		{"json with charset", http.MethodPatch, "application/json; charset=utf-8", `{}`, http.StatusOK},
		{"multipart", http.MethodPost, "multipart/form-data; boundary=x", "--x--", http.StatusOK},
		{"raw image", http.MethodPost, "image/png", "png", http.StatusOK},
		{"text rejected", http.MethodPost, "text/plain", "hi", http.StatusUnsupportedMediaType},
		{"missing header", http.MethodPut, "", `{}`, http.StatusBadRequest},
		{"empty body skipped", http.MethodPost, "", "", http.StatusOK},
		{"get skipped", http.MethodGet, "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := ContentType(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			var req *http.Request
			if tt.body == "" {
				req = httptest.NewRequest(tt.method, "/api/v1/scans", nil)
			} else {
				req = httptest.NewRequest(tt.method, "/api/v1/scans", strings.NewReader(tt.body))
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTimeout(t *testing.T) {
	t.Parallel()

	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(100 * time.Millisecond):
		}
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"times out", "/api/v1/budget", http.StatusServiceUnavailable},
		{"skipped prefix", "/api/v1/scans", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := Timeout(20*time.Millisecond, "/api/v1/scans")(slow)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest("GET", tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus == http.StatusServiceUnavailable && !strings.Contains(w.Body.String(), "Request Timeout") {
				t.Errorf("Expected JSON timeout body, got %q", w.Body.String())
			}
		})
	}
}

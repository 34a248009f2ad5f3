package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/benvon/handbook/internal/request"
	"github.com/benvon/handbook/internal/services/ai"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		method        string
		path          string
		handlerStatus int
		validate      func(*testing.T, *http.Response)
	}{
		{
			name:          "GET request",
			method:        "GET",
			path:          "/test",
			handlerStatus: http.StatusOK,
			validate: func(t *testing.T, resp *http.Response) {
				if resp.StatusCode != http.StatusOK {
					t.Errorf("Expected status 200, got %d", resp.StatusCode)
				}
			},
		},
		{
			name:          "POST request",
			method:        "POST",
			path:          "/api/v1/reminders",
			handlerStatus: http.StatusCreated,
			validate: func(t *testing.T, resp *http.Response) {
				if resp.StatusCode != http.StatusCreated {
					t.Errorf("Expected status 201, got %d", resp.StatusCode)
				}
			},
		},
		{
			name:          "404 request",
			method:        "GET",
			path:          "/notfound",
			handlerStatus: http.StatusNotFound,
			validate: func(t *testing.T, resp *http.Response) {
				if resp.StatusCode != http.StatusNotFound {
					t.Errorf("Expected status 404, got %d", resp.StatusCode)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
			})

			middleware := Logging(zap.NewNop())(handler)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			middleware.ServeHTTP(w, req)

			resp := w.Result()
			defer func() {
				_ = resp.Body.Close() // Ignore error in test
			}()

			if tt.validate != nil {
				tt.validate(t, resp)
			}
		})
	}
}

func TestLoggingResponseWriter(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("test")) // Ignore error in test
	})

	middleware := Logging(zap.NewNop())(handler)

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()

	middleware.ServeHTTP(w, req)

	resp := w.Result()
	defer func() {
		_ = resp.Body.Close() // Ignore error in test
	}()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", resp.StatusCode)
	}
}

func TestLogging_RequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		supplied string
	}{
		{name: "supplied id is echoed", supplied: "req-42"},
		{name: "missing id is generated", supplied: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.InfoLevel)
			var seen string
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = ai.ExtractRequestID(r.Context())
				w.WriteHeader(http.StatusTeapot)
			})

			req := httptest.NewRequest("GET", "/api/v1/budget", nil)
			if tt.supplied != "" {
				req.Header.Set(request.HeaderRequestID, tt.supplied)
			}
			w := httptest.NewRecorder()
			Logging(zap.New(core))(handler).ServeHTTP(w, req)

			echoed := w.Header().Get(request.HeaderRequestID)
			if echoed == "" {
				t.Fatal("Expected X-Request-ID response header")
			}
			if tt.supplied != "" && echoed != tt.supplied {
				t.Errorf("Expected request id %q, got %q", tt.supplied, echoed)
			}
			if seen != echoed {
				t.Errorf("Expected handler context id %q, got %q", echoed, seen)
			}

			entries := logs.FilterMessage("http_request").All()
			if len(entries) != 1 {
				t.Fatalf("Expected 1 http_request log, got %d", len(entries))
			}
			fields := entries[0].ContextMap()
			if fields["request_id"] != echoed {
				t.Errorf("Expected logged request_id %q, got %v", echoed, fields["request_id"])
			}
			if fields["status_code"] != int64(http.StatusTeapot) {
				t.Errorf("Expected logged status 418, got %v", fields["status_code"])
			}
		})
	}
}

package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestGeminiProvider_Extract(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var gotPath, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotPath = r.URL.Path
		gotBody = string(b)
		mu.Unlock()
		resp, _ := json.Marshal(map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"role":  "model",
						"parts": []map[string]any{{"text": `{"title":"Design review","dateTime":"2024-05-02T14:00:00Z"}`}},
					},
				},
			},
		})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(resp)
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(context.Background(), "test-key", server.URL, "", nil, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	raw, err := provider.Extract(context.Background(), Request{
		Schema:   InviteSchema,
		Prompt:   "Extract meeting details",
		Image:    []byte("fake-image"),
		MIMEType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if !strings.Contains(string(raw), "Design review") {
		t.Errorf("Unexpected raw response %s", raw)
	}
	if !strings.Contains(gotPath, DefaultGeminiModel+":generateContent") {
		t.Errorf("Unexpected request path %s", gotPath)
	}
	if !strings.Contains(gotBody, "application/json") {
		t.Error("Expected JSON response MIME type in request")
	}
	if !strings.Contains(gotBody, "inlineData") {
		t.Error("Expected image to be sent inline")
	}
}

func TestNewGeminiProvider_MissingKey(t *testing.T) {
	t.Parallel()

	if _, err := NewGeminiProvider(context.Background(), "", "", "", nil, false); err != ErrMissingAPIKey {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}

func TestToGenaiSchema(t *testing.T) {
	t.Parallel()

	schema := toGenaiSchema(ReceiptSchema)
	if len(schema.Required) != 2 {
		t.Errorf("Expected 2 required fields, got %v", schema.Required)
	}
	category, ok := schema.Properties["category"]
	if !ok {
		t.Fatal("Expected category property")
	}
	if len(category.Enum) != 5 {
		t.Errorf("Expected category enum of 5 values, got %v", category.Enum)
	}
	health := toGenaiSchema(HealthSchema)
	if health.Properties["trends"].Items == nil {
		t.Error("Expected trends to be an array of strings")
	}
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/benvon/handbook/internal/handbook"
	"github.com/benvon/handbook/internal/models"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestSettingsHandler_Profile(t *testing.T) {
	t.Parallel()
	_, router := newTestRouter(t, nil)

	var profile models.Profile
	decodeData(t, doJSON(t, router, "GET", "/api/v1/settings/profile", nil), &profile)
	if profile.DisplayName != handbook.DefaultDisplayName || profile.Theme != models.ThemeSystem {
		t.Errorf("Expected default profile, got %+v", profile)
	}

	w := doJSON(t, router, "PATCH", "/api/v1/settings/profile", handbook.ProfileUpdate{DisplayName: strPtr("Sam"), Theme: strPtr("dark")})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	decodeData(t, w, &profile)
	want := models.Profile{DisplayName: "Sam", Theme: models.ThemeDark}
	if diff := cmp.Diff(want, profile); diff != "" {
		t.Errorf("Profile mismatch (-want +got):\n%s", diff)
	}

	if w := doJSON(t, router, "PATCH", "/api/v1/settings/profile", handbook.ProfileUpdate{Theme: strPtr("neon")}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown theme, got %d", w.Code)
	}
}

func TestSettingsHandler_Preferences(t *testing.T) {
	t.Parallel()
	_, router := newTestRouter(t, nil)

	var prefs models.Preferences
	decodeData(t, doJSON(t, router, "GET", "/api/v1/settings/preferences", nil), &prefs)
	if diff := cmp.Diff(models.DefaultPreferences(), prefs); diff != "" {
		t.Errorf("Default preferences mismatch (-want +got):\n%s", diff)
	}

	decodeData(t, doJSON(t, router, "PATCH", "/api/v1/settings/preferences", handbook.PreferencesUpdate{AIEnabled: boolPtr(false)}), &prefs)
	want := models.DefaultPreferences()
	want.AIEnabled = false
	if diff := cmp.Diff(want, prefs); diff != "" {
		t.Errorf("Updated preferences mismatch (-want +got):\n%s", diff)
	}
}

func TestSettingsHandler_ClearData(t *testing.T) {
	t.Parallel()
	_, router := newTestRouter(t, nil)

	doJSON(t, router, "POST", "/api/v1/todos", handbook.TodoInput{Text: "Temporary"})
	doJSON(t, router, "PATCH", "/api/v1/settings/profile", handbook.ProfileUpdate{DisplayName: strPtr("Sam")})

	if w := doJSON(t, router, "DELETE", "/api/v1/settings/data", nil); w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", w.Code)
	}

	var todos []models.Todo
	decodeData(t, doJSON(t, router, "GET", "/api/v1/todos", nil), &todos)
	if len(todos) != 1 || todos[0].ID != "seed-mindfulness" {
		t.Errorf("Expected todos reseeded after clear, got %+v", todos)
	}
	var profile models.Profile
	decodeData(t, doJSON(t, router, "GET", "/api/v1/settings/profile", nil), &profile)
	if profile.DisplayName != handbook.DefaultDisplayName {
		t.Errorf("Expected default display name after clear, got %q", profile.DisplayName)
	}
}

func TestSettingsHandler_HealthInsights(t *testing.T) {
	t.Parallel()

	day := models.HealthData{Steps: 8000, Calories: 2100, HeartRate: 64, SleepHours: 7.5, ActivityMinutes: 45}

	tests := []struct {
		name       string
		provider   *mockProvider
		body       any
		wantStatus int
	}{
		{
			name: "insight returned",
			provider: &mockProvider{healthFunc: func(context.Context, models.HealthData) (*models.HealthInsight, error) {
				return &models.HealthInsight{Summary: "Solid day", Trends: []string{"steady"}, Recommendations: []string{"hydrate"}}, nil
			}},
			body:       day,
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid data",
			provider:   &mockProvider{},
			body:       models.HealthData{SleepHours: 30},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "provider failure",
			provider: &mockProvider{healthFunc: func(context.Context, models.HealthData) (*models.HealthInsight, error) {
				return nil, errors.New("upstream 500")
			}},
			body:       day,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "no provider",
			provider:   nil,
			body:       day,
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var router http.Handler
			if tt.provider != nil {
				_, router = newTestRouter(t, tt.provider)
			} else {
				_, router = newTestRouter(t, nil)
			}

			w := doJSON(t, router, "POST", "/api/v1/health/insights", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var insight models.HealthInsight
			decodeData(t, w, &insight)
			if insight.Summary != "Solid day" {
				t.Errorf("Expected summary 'Solid day', got %q", insight.Summary)
			}
		})
	}
}

package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/handbook/internal/handbook"
	"github.com/benvon/handbook/internal/models"
)

// SettingsHandler handles profile, preference and data-reset requests
type SettingsHandler struct {
	settings *handbook.Settings
	health   *handbook.Health
	logger   *zap.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings *handbook.Settings, health *handbook.Health, logger *zap.Logger) *SettingsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsHandler{settings: settings, health: health, logger: logger}
}

// RegisterRoutes registers settings routes on the given router
// The router should already have the /settings prefix
func (h *SettingsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/profile", h.GetProfile).Methods("GET")
	r.HandleFunc("/profile", h.UpdateProfile).Methods("PATCH")
	r.HandleFunc("/preferences", h.GetPreferences).Methods("GET")
	r.HandleFunc("/preferences", h.UpdatePreferences).Methods("PATCH")
	r.HandleFunc("/data", h.ClearData).Methods("DELETE")
}

// RegisterHealthRoutes registers health insight routes on the given router
// The router should already have the /health prefix
func (h *SettingsHandler) RegisterHealthRoutes(r *mux.Router) {
	r.HandleFunc("/insights", h.AnalyzeHealth).Methods("POST")
}

// GetProfile returns the profile with defaults applied
func (h *SettingsHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.settings.Profile(r.Context())
	respondResult(w, http.StatusOK, profile, err, "profile")
}

// UpdateProfile changes the fields present in the body
func (h *SettingsHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req handbook.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, err := h.settings.UpdateProfile(r.Context(), req)
	respondResult(w, http.StatusOK, profile, err, "profile")
}

// GetPreferences returns the preference toggles
func (h *SettingsHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.settings.Preferences(r.Context())
	respondResult(w, http.StatusOK, prefs, err, "preferences")
}

// UpdatePreferences changes the toggles present in the body
func (h *SettingsHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req handbook.PreferencesUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	prefs, err := h.settings.UpdatePreferences(r.Context(), req)
	respondResult(w, http.StatusOK, prefs, err, "preferences")
}

// ClearData deletes every Handbook key
func (h *SettingsHandler) ClearData(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.ClearAll(r.Context()); err != nil {
		h.logger.Error("clear_data_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to clear all data")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AnalyzeHealth returns AI insights for one day of activity data
func (h *SettingsHandler) AnalyzeHealth(w http.ResponseWriter, r *http.Request) {
	var req models.HealthData
	if !decodeJSON(w, r, &req) {
		return
	}
	insight, err := h.health.Analyze(r.Context(), req)
	if err != nil {
		respondError(w, err, "health insight")
		return
	}
	respondJSON(w, http.StatusOK, insight)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/benvon/handbook/internal/clipboard"
)

// ClipboardHandler exposes the pending clipboard suggestion. Clients push clipboard text with
// Offer; a server-side reader may also feed the same watcher.
type ClipboardHandler struct {
	watcher *clipboard.Watcher
}

// NewClipboardHandler creates a new clipboard handler
func NewClipboardHandler(watcher *clipboard.Watcher) *ClipboardHandler {
	return &ClipboardHandler{watcher: watcher}
}

// RegisterRoutes registers clipboard routes on the given router
// The router should already have the /clipboard prefix
func (h *ClipboardHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetSuggestion).Methods("GET")
	r.HandleFunc("", h.Offer).Methods("POST")
	r.HandleFunc("", h.Dismiss).Methods("DELETE")
	r.HandleFunc("/confirm", h.Confirm).Methods("POST")
}

// OfferRequest is clipboard text pushed by a client
type OfferRequest struct {
	Text string `json:"text"`
}

// SuggestionResponse is the pending suggestion, or null
type SuggestionResponse struct {
	Suggestion *clipboard.Suggestion `json:"suggestion"`
}

// GetSuggestion returns the pending suggestion
func (h *ClipboardHandler) GetSuggestion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.current())
}

// Offer considers pushed clipboard text and returns the resulting suggestion
func (h *ClipboardHandler) Offer(w http.ResponseWriter, r *http.Request) {
	var req OfferRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.watcher.Offer(req.Text)
	respondJSON(w, http.StatusOK, h.current())
}

// Dismiss clears the suggestion with no other effect
func (h *ClipboardHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.watcher.Dismiss()
	w.WriteHeader(http.StatusNoContent)
}

// Confirm runs text extraction on the suggestion
func (h *ClipboardHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	result, err := h.watcher.Confirm(r.Context())
	if errors.Is(err, clipboard.ErrNoSuggestion) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "No clipboard suggestion pending")
		return
	}
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to confirm suggestion")
		return
	}
	respondIngestResult(w, result)
}

func (h *ClipboardHandler) current() SuggestionResponse {
	if s, ok := h.watcher.Suggestion(); ok {
		return SuggestionResponse{Suggestion: &s}
	}
	return SuggestionResponse{}
}

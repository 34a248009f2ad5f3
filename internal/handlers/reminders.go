package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/handbook/internal/handbook"
	"github.com/benvon/handbook/internal/logger"
)

// ReminderHandler handles reminder requests and the bulk-delete selection
type ReminderHandler struct {
	assistant *handbook.Assistant
	logger    *zap.Logger
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(assistant *handbook.Assistant, logger *zap.Logger) *ReminderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderHandler{assistant: assistant, logger: logger}
}

// RegisterRoutes registers reminder routes on the given router
// The router should already have the /reminders prefix
func (h *ReminderHandler) RegisterRoutes(r *mux.Router) {
	// Selection routes first so "/selection" is never taken for an id
	r.HandleFunc("/selection", h.GetSelection).Methods("GET")
	r.HandleFunc("/selection", h.SetSelection).Methods("PUT")
	r.HandleFunc("/selection", h.ClearSelection).Methods("DELETE")
	r.HandleFunc("/selection/delete", h.DeleteSelected).Methods("POST")
	r.HandleFunc("/selection/{id}/toggle", h.ToggleSelection).Methods("POST")

	r.HandleFunc("", h.ListReminders).Methods("GET")
	r.HandleFunc("", h.CreateReminder).Methods("POST")
	r.HandleFunc("/{id}", h.DeleteReminder).Methods("DELETE")
}

// SelectionRequest replaces the selection
type SelectionRequest struct {
	IDs []string `json:"ids"`
}

// SelectionResponse is the current selection
type SelectionResponse struct {
	IDs []string `json:"ids"`
}

// BulkDeleteResponse reports a bulk delete
type BulkDeleteResponse struct {
	Removed int `json:"removed"`
}

// ListReminders lists reminders ordered by time (?order=asc|desc)
func (h *ReminderHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	dir, err := handbook.ParseSortDirection(r.URL.Query().Get("order"))
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	reminders, err := h.assistant.List(r.Context(), dir)
	respondResult(w, http.StatusOK, reminders, err, "reminders")
}

// CreateReminder adds a manual reminder from separate date and time fields
func (h *ReminderHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var req handbook.ManualReminderInput
	if !decodeJSON(w, r, &req) {
		return
	}

	reminder, err := h.assistant.AddManual(r.Context(), req)
	respondResult(w, http.StatusCreated, reminder, err, "reminder")
}

// DeleteReminder removes one reminder
func (h *ReminderHandler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.assistant.Delete(r.Context(), id)
	if err == nil {
		h.logger.Info("reminder_deleted", zap.String("reminder_id", logger.SanitizeID(id)))
	}
	respondNoContent(w, err, "reminder")
}

// GetSelection returns the selected reminder ids
func (h *ReminderHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, SelectionResponse{IDs: nonNil(h.assistant.Selection().IDs())})
}

// SetSelection replaces the selected reminder ids
func (h *ReminderHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	selection := h.assistant.Selection()
	selection.Set(req.IDs)
	respondJSON(w, http.StatusOK, SelectionResponse{IDs: nonNil(selection.IDs())})
}

// ToggleSelection selects or deselects one reminder
func (h *ReminderHandler) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	selection := h.assistant.Selection()
	selection.Toggle(mux.Vars(r)["id"])
	respondJSON(w, http.StatusOK, SelectionResponse{IDs: nonNil(selection.IDs())})
}

// ClearSelection empties the selection
func (h *ReminderHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.assistant.Selection().Clear()
	w.WriteHeader(http.StatusNoContent)
}

// DeleteSelected removes every selected reminder and clears the selection
func (h *ReminderHandler) DeleteSelected(w http.ResponseWriter, r *http.Request) {
	removed, err := h.assistant.DeleteSelected(r.Context())
	respondResult(w, http.StatusOK, BulkDeleteResponse{Removed: removed}, err, "reminders")
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

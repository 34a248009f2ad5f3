package handlers

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/benvon/handbook/internal/handbook"
	"github.com/benvon/handbook/internal/models"
)

func TestReminderHandler_List(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"default order", "", http.StatusOK},
		{"descending", "?order=desc", http.StatusOK},
		{"invalid order", "?order=sideways", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, router := newTestRouter(t, nil)

			w := doJSON(t, router, "GET", "/api/v1/reminders"+tt.query, nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var reminders []models.Reminder
			decodeData(t, w, &reminders)
			if len(reminders) != 1 || reminders[0].ID != "seed-onboarding" {
				t.Errorf("Expected the onboarding seed, got %+v", reminders)
			}
		})
	}
}

func TestReminderHandler_Create(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		body         any
		wantStatus   int
		wantLocation string
	}{
		{
			name:         "valid with default location",
			body:         handbook.ManualReminderInput{Title: "Dentist", Date: "2024-03-20", Time: "09:30"},
			wantStatus:   http.StatusCreated,
			wantLocation: handbook.DefaultManualLocation,
		},
		{
			name:         "valid with location",
			body:         handbook.ManualReminderInput{Title: "Dinner", Date: "2024-03-21", Time: "19:00", Location: "Luigi's"},
			wantStatus:   http.StatusCreated,
			wantLocation: "Luigi's",
		},
		{
			name:       "missing time",
			body:       handbook.ManualReminderInput{Title: "Dentist", Date: "2024-03-20"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{"title":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, router := newTestRouter(t, nil)

			w := doJSON(t, router, "POST", "/api/v1/reminders", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}
			var reminder models.Reminder
			decodeData(t, w, &reminder)
			if reminder.Location != tt.wantLocation {
				t.Errorf("Expected location %q, got %q", tt.wantLocation, reminder.Location)
			}
			if reminder.SourceType != models.SourceTypeManual {
				t.Errorf("Expected manual source, got %q", reminder.SourceType)
			}
		})
	}
}

func TestReminderHandler_Delete(t *testing.T) {
	t.Parallel()
	_, router := newTestRouter(t, nil)

	if w := doJSON(t, router, "DELETE", "/api/v1/reminders/seed-onboarding", nil); w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", w.Code)
	}
	if w := doJSON(t, router, "DELETE", "/api/v1/reminders/seed-onboarding", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 on second delete, got %d", w.Code)
	}
}

func TestReminderHandler_Selection(t *testing.T) {
	t.Parallel()
	svc, router := newTestRouter(t, nil)

	for _, title := range []string{"a", "b", "c"} {
		w := doJSON(t, router, "POST", "/api/v1/reminders",
			handbook.ManualReminderInput{Title: title, Date: "2024-03-20", Time: "09:30"})
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d", w.Code)
		}
	}
	var all []models.Reminder
	decodeData(t, doJSON(t, router, "GET", "/api/v1/reminders", nil), &all)
	if len(all) != 4 {
		t.Fatalf("Expected 4 reminders, got %d", len(all))
	}

	var sel SelectionResponse
	decodeData(t, doJSON(t, router, "PUT", "/api/v1/reminders/selection",
		SelectionRequest{IDs: []string{all[1].ID, all[2].ID}}), &sel)
	if len(sel.IDs) != 2 {
		t.Fatalf("Expected 2 selected, got %v", sel.IDs)
	}

	decodeData(t, doJSON(t, router, "POST", "/api/v1/reminders/selection/"+all[2].ID+"/toggle", nil), &sel)
	if diff := cmp.Diff([]string{all[1].ID}, sel.IDs); diff != "" {
		t.Errorf("Selection after toggle mismatch (-want +got):\n%s", diff)
	}

	var bulk BulkDeleteResponse
	decodeData(t, doJSON(t, router, "POST", "/api/v1/reminders/selection/delete", nil), &bulk)
	if bulk.Removed != 1 {
		t.Errorf("Expected 1 removed, got %d", bulk.Removed)
	}

	decodeData(t, doJSON(t, router, "GET", "/api/v1/reminders/selection", nil), &sel)
	if len(sel.IDs) != 0 {
		t.Errorf("Expected selection cleared after bulk delete, got %v", sel.IDs)
	}

	remaining, err := svc.Assistant.List(t.Context(), handbook.SortAscending)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(remaining) != 3 {
		t.Errorf("Expected 3 reminders left, got %d", len(remaining))
	}

	if w := doJSON(t, router, "DELETE", "/api/v1/reminders/selection", nil); w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204 clearing selection, got %d", w.Code)
	}
}

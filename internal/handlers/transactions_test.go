package handlers

import (
	"net/http"
	"testing"

	"github.com/benvon/handbook/internal/handbook"
	"github.com/benvon/handbook/internal/models"
)

func TestBudgetHandler_ListIncludesSummary(t *testing.T) {
	t.Parallel()
	_, router := newTestRouter(t, nil)

	var resp ListTransactionsResponse
	decodeData(t, doJSON(t, router, "GET", "/api/v1/transactions", nil), &resp)

	if len(resp.Transactions) != 2 {
		t.Fatalf("Expected 2 seed transactions, got %d", len(resp.Transactions))
	}
	if resp.Summary.TotalSpent != 29.5 {
		t.Errorf("Expected total 29.5, got %v", resp.Summary.TotalSpent)
	}
	if resp.Summary.MonthlyTarget != handbook.DefaultMonthlyTarget {
		t.Errorf("Expected target %v, got %v", handbook.DefaultMonthlyTarget, resp.Summary.MonthlyTarget)
	}
	if resp.Summary.Count != 2 {
		t.Errorf("Expected count 2, got %d", resp.Summary.Count)
	}
}

func TestBudgetHandler_Create(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		body         any
		wantStatus   int
		wantCategory models.Category
	}{
		{"with category", handbook.TransactionInput{Title: "Groceries", Amount: 42.5, Category: "Food"}, http.StatusCreated, models.CategoryFood},
		{"defaults to general", handbook.TransactionInput{Title: "Misc", Amount: 3}, http.StatusCreated, models.CategoryGeneral},
		{"zero amount allowed", handbook.TransactionInput{Title: "Free sample", Amount: 0}, http.StatusCreated, models.CategoryGeneral},
		{"negative amount", handbook.TransactionInput{Title: "Refund", Amount: -5}, http.StatusBadRequest, ""},
		{"unknown category", handbook.TransactionInput{Title: "Gadget", Amount: 5, Category: "Electronics"}, http.StatusBadRequest, ""},
		{"missing title", handbook.TransactionInput{Amount: 5}, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, router := newTestRouter(t, nil)

			w := doJSON(t, router, "POST", "/api/v1/transactions", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}
			var txn models.Transaction
			decodeData(t, w, &txn)
			if txn.Category != tt.wantCategory {
				t.Errorf("Expected category %q, got %q", tt.wantCategory, txn.Category)
			}
			if txn.IsAIProcessed {
				t.Error("Expected manual transaction not to be AI processed")
			}
		})
	}
}

func TestBudgetHandler_Delete(t *testing.T) {
	t.Parallel()
	_, router := newTestRouter(t, nil)

	if w := doJSON(t, router, "DELETE", "/api/v1/transactions/seed-coffee", nil); w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", w.Code)
	}

	var resp ListTransactionsResponse
	decodeData(t, doJSON(t, router, "GET", "/api/v1/transactions", nil), &resp)
	if resp.Summary.TotalSpent != 24 {
		t.Errorf("Expected total 24 after delete, got %v", resp.Summary.TotalSpent)
	}
	if w := doJSON(t, router, "DELETE", "/api/v1/transactions/seed-coffee", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

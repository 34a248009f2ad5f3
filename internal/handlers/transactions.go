package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/benvon/handbook/internal/handbook"
	"github.com/benvon/handbook/internal/models"
	"github.com/benvon/handbook/internal/store"
)

// BudgetHandler handles transaction requests
type BudgetHandler struct {
	budget *handbook.Budget
}

// NewBudgetHandler creates a new budget handler
func NewBudgetHandler(budget *handbook.Budget) *BudgetHandler {
	return &BudgetHandler{budget: budget}
}

// RegisterRoutes registers transaction routes on the given router
// The router should already have the /transactions prefix
func (h *BudgetHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTransactions).Methods("GET")
	r.HandleFunc("", h.CreateTransaction).Methods("POST")
	r.HandleFunc("/{id}", h.DeleteTransaction).Methods("DELETE")
}

// ListTransactionsResponse is the ledger with its totals
type ListTransactionsResponse struct {
	Transactions []models.Transaction `json:"transactions"`
	Summary      handbook.Summary     `json:"summary"`
}

// ListTransactions lists transactions newest first with the budget summary
func (h *BudgetHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.budget.List(r.Context())
	if err != nil && !store.IsRecoverable(err) {
		respondError(w, err, "transactions")
		return
	}
	if txns == nil {
		txns = []models.Transaction{}
	}
	response := ListTransactionsResponse{
		Transactions: txns,
		Summary:      handbook.Summarize(txns, h.budget.Target()),
	}
	respondResult(w, http.StatusOK, response, err, "transactions")
}

// CreateTransaction records a manual expense
func (h *BudgetHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req handbook.TransactionInput
	if !decodeJSON(w, r, &req) {
		return
	}
	txn, err := h.budget.Add(r.Context(), req)
	respondResult(w, http.StatusCreated, txn, err, "transaction")
}

// DeleteTransaction removes one transaction
func (h *BudgetHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	err := h.budget.Delete(r.Context(), mux.Vars(r)["id"])
	respondNoContent(w, err, "transaction")
}

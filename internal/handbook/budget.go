package handbook

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/handbook/internal/models"
	"github.com/benvon/handbook/internal/store"
	"github.com/benvon/handbook/internal/validation"
)

// DefaultMonthlyTarget is the monthly spending target when none is configured
const DefaultMonthlyTarget = 2500.0

// TransactionInput is the manual expense form
type TransactionInput struct {
	Title    string  `json:"title" validate:"required,max=200"`
	Amount   float64 `json:"amount" validate:"gte=0"`
	Category string  `json:"category" validate:"omitempty,category"`
}

// Summary is the budget header: total spent and progress toward the monthly target
type Summary struct {
	TotalSpent    float64 `json:"totalSpent"`
	MonthlyTarget float64 `json:"monthlyTarget"`
	Remaining     float64 `json:"remaining"`
	// Progress is the percentage of the target spent, capped at 100
	Progress float64 `json:"progress"`
	Count    int     `json:"count"`
}

// Summarize totals transactions against target
func Summarize(txns []models.Transaction, target float64) Summary {
	var total float64
	for _, t := range txns {
		if !math.IsNaN(t.Amount) && !math.IsInf(t.Amount, 0) {
			total += t.Amount
		}
	}
	total = math.Round(total*100) / 100

	s := Summary{TotalSpent: total, MonthlyTarget: target, Count: len(txns)}
	if target > 0 {
		s.Progress = math.Min(total/target*100, 100)
		s.Remaining = math.Max(target-total, 0)
	}
	return s
}

// Budget is the transactions surface
type Budget struct {
	transactions *store.Collection[models.Transaction]
	target       float64
	now          func() time.Time
	logger       *zap.Logger
}

// NewBudget creates the transactions surface
func NewBudget(transactions *store.Collection[models.Transaction], target float64, now func() time.Time, logger *zap.Logger) *Budget {
	if target <= 0 {
		target = DefaultMonthlyTarget
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Budget{transactions: transactions, target: target, now: now, logger: logger}
}

// List returns transactions newest first
func (b *Budget) List(ctx context.Context) ([]models.Transaction, error) {
	return loadRecoverable(ctx, b.transactions)
}

// Target is the monthly spending target
func (b *Budget) Target() float64 {
	return b.target
}

// Summary totals the ledger
func (b *Budget) Summary(ctx context.Context) (Summary, error) {
	items, err := b.List(ctx)
	if err != nil && !store.IsRecoverable(err) {
		return Summary{}, err
	}
	return Summarize(items, b.target), nil
}

// Add records a manual expense
func (b *Budget) Add(ctx context.Context, in TransactionInput) (models.Transaction, error) {
	in.Title = validation.SanitizeText(in.Title)
	if err := validation.Validate.Struct(in); err != nil {
		return models.Transaction{}, &ValidationError{Err: err}
	}
	category := models.Category(in.Category)
	if category == "" {
		category = models.CategoryGeneral
	}

	txn := models.Transaction{
		ID:       store.NewID(store.OriginManual),
		Title:    in.Title,
		Amount:   in.Amount,
		Category: category,
		Date:     b.now().UTC(),
	}
	created, err := appendRecoverable(ctx, b.transactions, txn)
	if created.ID != "" {
		b.logger.Info("transaction_created", zap.String("transaction_id", txn.ID), zap.String("category", string(category)))
	}
	return created, err
}

// Delete removes one transaction
func (b *Budget) Delete(ctx context.Context, id string) error {
	return removeByID(ctx, b.transactions, id)
}

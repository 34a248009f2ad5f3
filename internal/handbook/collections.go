package handbook

import (
	"time"

	"go.uber.org/zap"

	"github.com/benvon/handbook/internal/database"
	"github.com/benvon/handbook/internal/models"
	"github.com/benvon/handbook/internal/store"
)

// Collections are the four durable lists behind the Handbook surfaces
type Collections struct {
	Reminders    *store.Collection[models.Reminder]
	Transactions *store.Collection[models.Transaction]
	Todos        *store.Collection[models.Todo]
	Recurring    *store.Collection[models.RecurringTask]
}

// NewCollections binds every collection to kv. now stamps the first-run seeds.
func NewCollections(kv database.KV, now func() time.Time, logger *zap.Logger) *Collections {
	return &Collections{
		Reminders: store.NewCollection(kv, store.KeyReminders, store.InsertionOrder,
			func() []models.Reminder { return store.SeedReminders(now()) }, logger),
		Transactions: store.NewCollection(kv, store.KeyTransactions, store.NewestFirst,
			func() []models.Transaction { return store.SeedTransactions(now()) }, logger),
		Todos: store.NewCollection(kv, store.KeyTodos, store.NewestFirst,
			func() []models.Todo { return store.SeedTodos(now()) }, logger),
		Recurring: store.NewCollection[models.RecurringTask](kv, store.KeyRecurring, store.NewestFirst, nil, logger),
	}
}

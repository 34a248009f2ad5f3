package store

import (
	"time"

	"github.com/benvon/handbook/internal/models"
)

// Storage keys. The persona_ prefix keeps data written by earlier Handbook builds readable.
const (
	KeyReminders    = "persona_reminders"
	KeyTransactions = "persona_budget"
	KeyTodos        = "persona_todos"
	KeyRecurring    = "persona_recurring"
	KeyUserName     = "persona_user_name"
	KeyUserAvatar   = "persona_user_avatar"
	KeyTheme        = "persona_theme"
	KeyPreferences  = "persona_preferences"
)

// AllKeys lists every key cleared by a full data reset
var AllKeys = []string{
	KeyReminders,
	KeyTransactions,
	KeyTodos,
	KeyRecurring,
	KeyUserName,
	KeyUserAvatar,
	KeyTheme,
	KeyPreferences,
}

// SeedReminders is shown on first run
func SeedReminders(now time.Time) []models.Reminder {
	return []models.Reminder{
		{
			ID:         "seed-onboarding",
			Title:      "Onboarding Session",
			DateTime:   now.UTC().Format(time.RFC3339),
			Location:   "Handbook Dashboard",
			SourceType: models.SourceTypeManual,
		},
	}
}

// SeedTransactions is shown on first run
func SeedTransactions(now time.Time) []models.Transaction {
	now = now.UTC()
	return []models.Transaction{
		{ID: "seed-coffee", Title: "Starbucks Coffee", Amount: 5.50, Category: models.CategoryFood, Date: now},
		{ID: "seed-ride", Title: "Uber Ride", Amount: 24.00, Category: models.CategoryTravel, Date: now},
	}
}

// SeedTodos is shown on first run
func SeedTodos(now time.Time) []models.Todo {
	return []models.Todo{
		{ID: "seed-mindfulness", Text: "Morning mindfulness session", Priority: models.PriorityMedium, CreatedAt: now.UTC()},
	}
}

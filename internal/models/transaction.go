package models

import "time"

// Category is a budget category
type Category string

const (
	CategoryFood     Category = "Food"
	CategoryShopping Category = "Shopping"
	CategoryTravel   Category = "Travel"
	CategoryHome     Category = "Home"
	CategoryGeneral  Category = "General"
)

// Categories lists every valid category in display order
var Categories = []Category{CategoryFood, CategoryShopping, CategoryTravel, CategoryHome, CategoryGeneral}

// IsValid reports whether c is one of the fixed categories
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Transaction is one expense in the budget ledger
type Transaction struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Amount        float64   `json:"amount"`
	Category      Category  `json:"category"`
	Date          time.Time `json:"date"`
	IsAIProcessed bool      `json:"isAiProcessed,omitempty"`
}

// GetID returns the transaction id
func (t Transaction) GetID() string { return t.ID }

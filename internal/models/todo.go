package models

import "time"

// Priority represents how urgent a todo is
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Todo represents a todo item
type Todo struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	Priority  Priority  `json:"priority"`
	CreatedAt time.Time `json:"createdAt"`
}

// GetID returns the todo id
func (t Todo) GetID() string { return t.ID }

// RecurringTask is a habit that can be switched on and off
type RecurringTask struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	IsActive bool   `json:"isActive"`
}

// GetID returns the recurring task id
func (r RecurringTask) GetID() string { return r.ID }

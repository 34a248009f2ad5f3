package handbook

import (
	"context"
	"time"

	"github.com/benvon/handbook/internal/models"
	"github.com/benvon/handbook/internal/store"
	"github.com/benvon/handbook/internal/validation"
)

// TodoInput is the new-todo form
type TodoInput struct {
	Text     string `json:"text" validate:"required,max=500"`
	Priority string `json:"priority" validate:"omitempty,priority"`
}

// RecurringInput is the new-habit form
type RecurringInput struct {
	Text string `json:"text" validate:"required,max=500"`
}

// Todos is the to-do and recurring task surface
type Todos struct {
	todos     *store.Collection[models.Todo]
	recurring *store.Collection[models.RecurringTask]
	now       func() time.Time
}

// NewTodos creates the to-do surface
func NewTodos(todos *store.Collection[models.Todo], recurring *store.Collection[models.RecurringTask], now func() time.Time) *Todos {
	if now == nil {
		now = time.Now
	}
	return &Todos{todos: todos, recurring: recurring, now: now}
}

// List returns todos newest first
func (t *Todos) List(ctx context.Context) ([]models.Todo, error) {
	return loadRecoverable(ctx, t.todos)
}

// Add creates a todo; priority defaults to Medium
func (t *Todos) Add(ctx context.Context, in TodoInput) (models.Todo, error) {
	in.Text = validation.SanitizeText(in.Text)
	if err := validation.Validate.Struct(in); err != nil {
		return models.Todo{}, &ValidationError{Err: err}
	}
	priority := models.Priority(in.Priority)
	if priority == "" {
		priority = models.PriorityMedium
	}

	todo := models.Todo{
		ID:        store.NewID(store.OriginManual),
		Text:      in.Text,
		Priority:  priority,
		CreatedAt: t.now().UTC(),
	}
	return appendRecoverable(ctx, t.todos, todo)
}

// Toggle flips completed
func (t *Todos) Toggle(ctx context.Context, id string) (models.Todo, error) {
	return updateRecoverable(ctx, t.todos, id, func(td *models.Todo) { td.Completed = !td.Completed })
}

// Delete removes one todo
func (t *Todos) Delete(ctx context.Context, id string) error {
	return removeByID(ctx, t.todos, id)
}

// ListRecurring returns recurring tasks newest first
func (t *Todos) ListRecurring(ctx context.Context) ([]models.RecurringTask, error) {
	return loadRecoverable(ctx, t.recurring)
}

// AddRecurring creates an active recurring task
func (t *Todos) AddRecurring(ctx context.Context, in RecurringInput) (models.RecurringTask, error) {
	in.Text = validation.SanitizeText(in.Text)
	if err := validation.Validate.Struct(in); err != nil {
		return models.RecurringTask{}, &ValidationError{Err: err}
	}
	task := models.RecurringTask{
		ID:       store.NewID(store.OriginManual),
		Text:     in.Text,
		IsActive: true,
	}
	return appendRecoverable(ctx, t.recurring, task)
}

// ToggleRecurring flips isActive
func (t *Todos) ToggleRecurring(ctx context.Context, id string) (models.RecurringTask, error) {
	return updateRecoverable(ctx, t.recurring, id, func(r *models.RecurringTask) { r.IsActive = !r.IsActive })
}

// DeleteRecurring removes one recurring task
func (t *Todos) DeleteRecurring(ctx context.Context, id string) error {
	return removeByID(ctx, t.recurring, id)
}

func loadRecoverable[T store.Entity](ctx context.Context, c *store.Collection[T]) ([]T, error) {
	items, err := c.Load(ctx)
	if err != nil && !store.IsRecoverable(err) {
		return nil, err
	}
	return items, err
}

// appendRecoverable returns item alongside any store warning; hard failures return the zero value
func appendRecoverable[T store.Entity](ctx context.Context, c *store.Collection[T], item T) (T, error) {
	if err := c.Append(ctx, item); err != nil {
		if !store.IsRecoverable(err) {
			var zero T
			return zero, err
		}
		return item, err
	}
	return item, nil
}

func updateRecoverable[T store.Entity](ctx context.Context, c *store.Collection[T], id string, mutator func(*T)) (T, error) {
	updated, err := c.Update(ctx, id, mutator)
	if err != nil && !store.IsRecoverable(err) {
		var zero T
		return zero, err
	}
	return updated, err
}

func removeByID[T store.Entity](ctx context.Context, c *store.Collection[T], id string) error {
	removed, err := c.Remove(ctx, func(item T) bool { return item.GetID() == id })
	if err != nil && !store.IsRecoverable(err) {
		return err
	}
	if removed == 0 {
		return store.ErrNotFound
	}
	return err
}

package handbook

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/handbook/internal/ingest"
	"github.com/benvon/handbook/internal/models"
	"github.com/benvon/handbook/internal/store"
	"github.com/benvon/handbook/internal/validation"
)

// SortDirection orders reminders by time
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// ParseSortDirection accepts asc/desc (and the long forms); empty means ascending
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return SortAscending, nil
	case "desc", "descending":
		return SortDescending, nil
	default:
		return "", fmt.Errorf("invalid order: %q (must be 'asc' or 'desc')", s)
	}
}

// SortReminders returns a stably sorted copy ordered by dateTime.
// Unparsable times are the lowest key: first ascending, last descending.
func SortReminders(reminders []models.Reminder, dir SortDirection) []models.Reminder {
	type keyed struct {
		reminder models.Reminder
		when     time.Time
		ok       bool
	}
	items := make([]keyed, len(reminders))
	for i, r := range reminders {
		when, ok := r.When()
		items[i] = keyed{reminder: r, when: when, ok: ok}
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		var c int
		switch {
		case !a.ok && !b.ok:
			return 0
		case !a.ok:
			c = -1
		case !b.ok:
			c = 1
		default:
			c = a.when.Compare(b.when)
		}
		if dir == SortDescending {
			return -c
		}
		return c
	})

	out := make([]models.Reminder, len(items))
	for i, item := range items {
		out[i] = item.reminder
	}
	return out
}

// DefaultManualLocation is used when the manual form leaves location blank
const DefaultManualLocation = "Meeting"

// ManualReminderInput is the manual reminder form. Date and time arrive as separate fields.
type ManualReminderInput struct {
	Title    string `json:"title" validate:"required,max=200"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"required,datetime=15:04"`
	Location string `json:"location" validate:"max=200"`
}

// Assistant is the reminders surface
type Assistant struct {
	reminders   *store.Collection[models.Reminder]
	coordinator *ingest.Coordinator
	selection   *Selection
	logger      *zap.Logger
}

// NewAssistant creates the reminders surface
func NewAssistant(reminders *store.Collection[models.Reminder], coordinator *ingest.Coordinator, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		reminders:   reminders,
		coordinator: coordinator,
		selection:   NewSelection(),
		logger:      logger,
	}
}

// List returns reminders in display order
func (a *Assistant) List(ctx context.Context, dir SortDirection) ([]models.Reminder, error) {
	items, err := loadRecoverable(ctx, a.reminders)
	if err != nil && !store.IsRecoverable(err) {
		return nil, err
	}
	return SortReminders(items, dir), err
}

// AddManual validates the form and appends a manual reminder
func (a *Assistant) AddManual(ctx context.Context, in ManualReminderInput) (models.Reminder, error) {
	in.Title = validation.SanitizeText(in.Title)
	in.Location = validation.SanitizeText(in.Location)
	if err := validation.Validate.Struct(in); err != nil {
		return models.Reminder{}, &ValidationError{Err: err}
	}
	if in.Location == "" {
		in.Location = DefaultManualLocation
	}

	reminder := models.Reminder{
		ID:         store.NewID(store.OriginManual),
		Title:      in.Title,
		DateTime:   in.Date + "T" + in.Time,
		Location:   in.Location,
		SourceType: models.SourceTypeManual,
	}
	created, err := appendRecoverable(ctx, a.reminders, reminder)
	if created.ID != "" {
		a.logger.Info("reminder_created", zap.String("reminder_id", reminder.ID))
	}
	return created, err
}

// Delete removes one reminder
func (a *Assistant) Delete(ctx context.Context, id string) error {
	err := removeByID(ctx, a.reminders, id)
	if err == nil || store.IsRecoverable(err) {
		a.selection.Deselect(id)
	}
	return err
}

// Scan runs image extraction. A receipt lands in the budget ledger, not in reminders.
func (a *Assistant) Scan(ctx context.Context, intent ingest.Intent, image []byte, mimeType string) ingest.Result {
	return a.coordinator.IngestImage(ctx, intent, image, mimeType)
}

// Selection returns the bulk-delete selection
func (a *Assistant) Selection() *Selection {
	return a.selection
}

// DeleteSelected removes every selected reminder and clears the selection
func (a *Assistant) DeleteSelected(ctx context.Context) (int, error) {
	ids := a.selection.IDs()
	if len(ids) == 0 {
		return 0, nil
	}
	selected := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		selected[id] = struct{}{}
	}

	removed, err := a.reminders.Remove(ctx, func(r models.Reminder) bool {
		_, ok := selected[r.ID]
		return ok
	})
	if err != nil && !store.IsRecoverable(err) {
		return 0, err
	}
	a.selection.Clear()
	a.logger.Info("reminders_bulk_deleted", zap.Int("selected", len(ids)), zap.Int("removed", removed))
	return removed, err
}

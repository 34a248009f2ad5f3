package ingest

import "github.com/benvon/handbook/internal/models"

// RecordKind tells which field of a Result is set
type RecordKind string

const (
	KindReminder    RecordKind = "reminder"
	KindTransaction RecordKind = "transaction"
	KindFailed      RecordKind = "failed"
)

// Result is the outcome of one ingestion. Exactly one of Reminder, Transaction or Err is set.
type Result struct {
	Intent      Intent              `json:"intent"`
	Kind        RecordKind          `json:"kind"`
	Reminder    *models.Reminder    `json:"reminder,omitempty"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
	// Err is an *ExtractionError when Kind is KindFailed
	Err *ExtractionError `json:"-"`
	// Warning is a store warning: the record exists in memory but was not persisted
	Warning error `json:"-"`
}

// OK reports whether a record was created
func (r Result) OK() bool {
	return r.Err == nil
}

// RecordID returns the id of the created record, or "" on failure
func (r Result) RecordID() string {
	switch {
	case r.Reminder != nil:
		return r.Reminder.ID
	case r.Transaction != nil:
		return r.Transaction.ID
	default:
		return ""
	}
}

// AsError returns the failure as an error value, or nil
func (r Result) AsError() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}

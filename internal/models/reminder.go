package models

import (
	"fmt"
	"strings"
	"time"
)

// SourceType records where a reminder came from
type SourceType string

const (
	SourceTypeManual SourceType = "manual"
	SourceTypeImage  SourceType = "image"
)

// Reminder is an entry on the Assistant schedule
type Reminder struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	DateTime   string     `json:"dateTime"`
	Location   string     `json:"location,omitempty"`
	SourceType SourceType `json:"sourceType"`
}

// GetID returns the reminder id
func (r Reminder) GetID() string { return r.ID }

// dateTimeLayouts are tried in order when parsing reminder timestamps.
// The last two cover the manual form, which joins a date input and a time input.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.DateOnly,
}

// ParseDateTime parses an ISO-8601 timestamp in any of the shapes Handbook accepts.
// Timestamps without a zone are interpreted as UTC.
func ParseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date time")
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date time: %q", value)
}

// When returns the parsed reminder time and whether it could be parsed
func (r Reminder) When() (time.Time, bool) {
	t, err := ParseDateTime(r.DateTime)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

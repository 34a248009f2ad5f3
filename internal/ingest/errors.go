package ingest

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is against an *ExtractionError
var (
	ErrExtractionUnavailable = errors.New("extraction unavailable")
	ErrExtractionIncomplete  = errors.New("extraction incomplete")
	ErrExtractionMalformed   = errors.New("extraction malformed")
)

// ErrorKind classifies an extraction failure
type ErrorKind string

const (
	// KindUnavailable: not configured, disabled, unreachable or timed out
	KindUnavailable ErrorKind = "unavailable"
	// KindIncomplete: the response parsed but a required field was missing or invalid
	KindIncomplete ErrorKind = "incomplete"
	// KindMalformed: the response was not a JSON object
	KindMalformed ErrorKind = "malformed"
)

// ExtractionError is the failure half of a Result. Nothing was persisted.
type ExtractionError struct {
	Kind   ErrorKind
	Intent Intent
	Detail string
	Err    error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("extraction %s (%s)", e.Kind, e.Intent)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error kind
func (e *ExtractionError) Is(target error) bool {
	switch e.Kind {
	case KindUnavailable:
		return target == ErrExtractionUnavailable
	case KindIncomplete:
		return target == ErrExtractionIncomplete
	case KindMalformed:
		return target == ErrExtractionMalformed
	}
	return false
}

func unavailable(intent Intent, detail string, err error) *ExtractionError {
	return &ExtractionError{Kind: KindUnavailable, Intent: intent, Detail: detail, Err: err}
}

func incomplete(intent Intent, detail string) *ExtractionError {
	return &ExtractionError{Kind: KindIncomplete, Intent: intent, Detail: detail}
}

func malformed(intent Intent, err error) *ExtractionError {
	return &ExtractionError{Kind: KindMalformed, Intent: intent, Detail: "response is not a JSON object", Err: err}
}

// KindOf returns the error kind of err, or "" when err is not an extraction failure
func KindOf(err error) ErrorKind {
	var extractionErr *ExtractionError
	if errors.As(err, &extractionErr) {
		return extractionErr.Kind
	}
	return ""
}

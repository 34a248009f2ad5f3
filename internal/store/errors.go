package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Update and Get when no record has the requested id
var ErrNotFound = errors.New("record not found")

// CorruptStateError reports persisted data that could not be decoded.
// The collection is treated as empty; the bad value stays in storage until the next save.
type CorruptStateError struct {
	Key string
	Err error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt state under %q: %v", e.Key, e.Err)
}

func (e *CorruptStateError) Unwrap() error {
	return e.Err
}

// StorageWriteError reports a failed persist. The in-memory collection already
// reflects the change and remains authoritative until a later save succeeds.
type StorageWriteError struct {
	Key string
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("failed to persist %q: %v", e.Key, e.Err)
}

func (e *StorageWriteError) Unwrap() error {
	return e.Err
}

// IsRecoverable reports whether err is a store warning that leaves the operation applied
func IsRecoverable(err error) bool {
	var corrupt *CorruptStateError
	var write *StorageWriteError
	return errors.As(err, &corrupt) || errors.As(err, &write)
}

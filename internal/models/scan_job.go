package models

import "time"

// ScanStatus is the state of an asynchronous scan
type ScanStatus string

const (
	ScanStatusQueued    ScanStatus = "queued"
	ScanStatusSucceeded ScanStatus = "succeeded"
	ScanStatusFailed    ScanStatus = "failed"
)

// ScanJob tracks a scan that was handed to the worker
type ScanJob struct {
	ID        string     `json:"id"`
	Intent    string     `json:"intent"`
	Status    ScanStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	ErrorKind string     `json:"errorKind,omitempty"`
	RecordID  string     `json:"recordId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

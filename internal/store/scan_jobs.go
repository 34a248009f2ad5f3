package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/benvon/handbook/internal/database"
	"github.com/benvon/handbook/internal/models"
)

// KeyScanJobPrefix prefixes the storage key of every asynchronous scan status
const KeyScanJobPrefix = "scan_job:"

// ScanJobKey returns the storage key for one scan status
func ScanJobKey(id string) string {
	return KeyScanJobPrefix + id
}

// ScanJobs stores the status of scans handed to the worker, one key per scan
type ScanJobs struct {
	kv database.KV
}

// NewScanJobs creates a scan status store
func NewScanJobs(kv database.KV) *ScanJobs {
	return &ScanJobs{kv: kv}
}

// Get returns the status of scan id, or ErrNotFound
func (s *ScanJobs) Get(ctx context.Context, id string) (models.ScanJob, error) {
	data, err := s.kv.Get(ctx, ScanJobKey(id))
	if errors.Is(err, database.ErrNotFound) {
		return models.ScanJob{}, ErrNotFound
	}
	if err != nil {
		return models.ScanJob{}, fmt.Errorf("failed to load scan job: %w", err)
	}
	var job models.ScanJob
	if err := json.Unmarshal(data, &job); err != nil {
		return models.ScanJob{}, &CorruptStateError{Key: ScanJobKey(id), Err: err}
	}
	return job, nil
}

// Put writes the status of one scan
func (s *ScanJobs) Put(ctx context.Context, job models.ScanJob) error {
	if job.ID == "" {
		return fmt.Errorf("scan job id is required")
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal scan job: %w", err)
	}
	if err := s.kv.Put(ctx, ScanJobKey(job.ID), data); err != nil {
		return &StorageWriteError{Key: ScanJobKey(job.ID), Err: err}
	}
	return nil
}

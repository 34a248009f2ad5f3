package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/benvon/handbook/internal/ingest"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeScanInvite extracts a reminder from an invitation image
	JobTypeScanInvite JobType = "scan_invite"
	// JobTypeScanReceipt extracts a transaction from a receipt image
	JobTypeScanReceipt JobType = "scan_receipt"
	// JobTypeIngestText extracts a transaction from copied text
	JobTypeIngestText JobType = "ingest_text"
)

const (
	// DefaultMaxRetries bounds redelivery of transiently failing jobs
	DefaultMaxRetries = 3
	// DefaultJobTTL is how long a queued scan stays worth processing
	DefaultJobTTL = time.Hour
)

// Job represents a job in the queue. Image bytes travel base64-encoded in the JSON body.
type Job struct {
	ID         uuid.UUID  `json:"id"`
	Type       JobType    `json:"type"`
	ScanID     string     `json:"scan_id"`
	Image      []byte     `json:"image,omitempty"`
	MIMEType   string     `json:"mime_type,omitempty"`
	Text       string     `json:"text,omitempty"`
	NotAfter   *time.Time `json:"not_after,omitempty"` // Latest time to process job (nil = no expiration)
	CreatedAt  time.Time  `json:"created_at"`
	RetryCount int        `json:"retry_count"`
	MaxRetries int        `json:"max_retries"`
}

// JobTypeFor maps an ingestion intent to its job type
func JobTypeFor(intent ingest.Intent) (JobType, error) {
	switch intent {
	case ingest.IntentInvite:
		return JobTypeScanInvite, nil
	case ingest.IntentReceipt:
		return JobTypeScanReceipt, nil
	case ingest.IntentText:
		return JobTypeIngestText, nil
	default:
		return "", fmt.Errorf("no job type for intent %q", intent)
	}
}

// NewScanJob creates an image scan job tracked under scanID
func NewScanJob(scanID string, intent ingest.Intent, image []byte, mimeType string) (*Job, error) {
	jobType, err := JobTypeFor(intent)
	if err != nil {
		return nil, err
	}
	if jobType == JobTypeIngestText {
		return nil, fmt.Errorf("text intent cannot carry an image")
	}
	job := newJob(jobType, scanID)
	job.Image = image
	job.MIMEType = mimeType
	return job, nil
}

// NewTextJob creates a text ingestion job tracked under scanID
func NewTextJob(scanID, text string) *Job {
	job := newJob(JobTypeIngestText, scanID)
	job.Text = text
	return job
}

func newJob(jobType JobType, scanID string) *Job {
	now := time.Now()
	notAfter := now.Add(DefaultJobTTL)
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		ScanID:     scanID,
		NotAfter:   &notAfter,
		CreatedAt:  now,
		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,
	}
}

// Intent returns the ingestion intent the job carries
func (j *Job) Intent() ingest.Intent {
	switch j.Type {
	case JobTypeScanInvite:
		return ingest.IntentInvite
	case JobTypeScanReceipt:
		return ingest.IntentReceipt
	case JobTypeIngestText:
		return ingest.IntentText
	default:
		return ""
	}
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}

	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}

// Retry returns a copy of the job with the retry count incremented
func (j *Job) Retry() *Job {
	next := *j
	next.IncrementRetry()
	return &next
}

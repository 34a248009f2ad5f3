package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/benvon/handbook/internal/ingest"
)

func TestNewScanJob(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		intent   ingest.Intent
		wantType JobType
		wantErr  bool
	}{
		{"invite", ingest.IntentInvite, JobTypeScanInvite, false},
		{"receipt", ingest.IntentReceipt, JobTypeScanReceipt, false},
		{"text intent rejected", ingest.IntentText, "", true},
		{"unknown intent", ingest.Intent("selfie"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			job, err := NewScanJob("scan-1", tt.intent, []byte{0xff, 0xd8}, "image/jpeg")
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if job.ID == uuid.Nil {
				t.Error("Expected job ID to be set")
			}
			if job.Type != tt.wantType {
				t.Errorf("Expected job type to be %s, got %s", tt.wantType, job.Type)
			}
			if job.Intent() != tt.intent {
				t.Errorf("Expected intent %s, got %s", tt.intent, job.Intent())
			}
			if job.MaxRetries != DefaultMaxRetries {
				t.Errorf("Expected max retries to be %d, got %d", DefaultMaxRetries, job.MaxRetries)
			}
			if job.NotAfter == nil || job.IsExpired() {
				t.Error("Expected a future expiry on a new job")
			}
		})
	}
}

func TestNewTextJob(t *testing.T) {
	t.Parallel()

	job := NewTextJob("scan-2", "Paid $12.00 at Deli")
	if job.Type != JobTypeIngestText {
		t.Errorf("Expected job type to be %s, got %s", JobTypeIngestText, job.Type)
	}
	if job.Intent() != ingest.IntentText {
		t.Errorf("Expected text intent, got %s", job.Intent())
	}
	if job.Text != "Paid $12.00 at Deli" {
		t.Errorf("Expected text to be carried, got %q", job.Text)
	}
}

func TestJob_JSONCarriesImage(t *testing.T) {
	t.Parallel()

	job, err := NewScanJob("scan-3", ingest.IntentReceipt, []byte("\x89PNG\r\n"), "image/png")
	if err != nil {
		t.Fatal(err)
	}
	body, err := json.Marshal(job)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["image"].(string); !ok {
		t.Errorf("Expected image encoded as a base64 string, got %T", raw["image"])
	}

	var decoded Job
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(job.Image, decoded.Image); diff != "" {
		t.Errorf("Image mismatch (-want +got):\n%s", diff)
	}
}

func TestJob_IsExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()

	tests := []struct {
		name string
		job  *Job
		want bool
	}{
		{name: "no expiration", job: &Job{ID: uuid.New(), Type: JobTypeScanInvite}, want: false},
		{name: "expired", job: &Job{ID: uuid.New(), Type: JobTypeScanInvite, NotAfter: timePtr(now.Add(-1 * time.Hour))}, want: true},
		{name: "not expired", job: &Job{ID: uuid.New(), Type: JobTypeScanInvite, NotAfter: timePtr(now.Add(1 * time.Hour))}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.job.IsExpired()
			if got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJob_CanRetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		retryCount int
		maxRetries int
		want       bool
	}{
		{"can retry - no retries yet", 0, 3, true},
		{"can retry - max retries minus one", 2, 3, true},
		{"cannot retry - at max retries", 3, 3, false},
		{"cannot retry - exceeded max retries", 4, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			job := &Job{
				ID:         uuid.New(),
				Type:       JobTypeScanReceipt,
				RetryCount: tt.retryCount,
				MaxRetries: tt.maxRetries,
			}
			got := job.CanRetry()
			if got != tt.want {
				t.Errorf("CanRetry() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJob_Retry(t *testing.T) {
	t.Parallel()

	job := NewTextJob("scan-4", "spent $5")
	next := job.Retry()
	if next.RetryCount != 1 {
		t.Errorf("Expected retry count to be 1, got %d", next.RetryCount)
	}
	if job.RetryCount != 0 {
		t.Errorf("Expected original retry count unchanged, got %d", job.RetryCount)
	}
	if next.ID != job.ID || next.ScanID != job.ScanID {
		t.Error("Expected retry to keep job and scan ids")
	}
}

// Helper function to create time pointers
func timePtr(t time.Time) *time.Time {
	return &t
}

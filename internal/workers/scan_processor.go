package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/benvon/handbook/internal/ingest"
	"github.com/benvon/handbook/internal/models"
	"github.com/benvon/handbook/internal/queue"
	"github.com/benvon/handbook/internal/services/ai"
	"github.com/benvon/handbook/internal/telemetry"
)

// ScanIngester runs one ingestion
type ScanIngester interface {
	IngestImage(ctx context.Context, intent ingest.Intent, image []byte, mimeType string) ingest.Result
	IngestText(ctx context.Context, text string) ingest.Result
}

// StatusStore persists scan job status
type StatusStore interface {
	Get(ctx context.Context, id string) (models.ScanJob, error)
	Put(ctx context.Context, job models.ScanJob) error
}

// Enqueuer re-publishes jobs for retry
type Enqueuer interface {
	Enqueue(ctx context.Context, job *queue.Job) error
}

// ScanProcessor executes queued scans and records their outcome
type ScanProcessor struct {
	ingester ScanIngester
	statuses StatusStore
	jobQueue Enqueuer // For re-enqueueing transient failures
	now      func() time.Time
	logger   *zap.Logger
}

// NewScanProcessor creates a new scan processor. jobQueue may be nil, which disables retries.
func NewScanProcessor(ingester ScanIngester, statuses StatusStore, jobQueue Enqueuer, logger *zap.Logger) *ScanProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanProcessor{
		ingester: ingester,
		statuses: statuses,
		jobQueue: jobQueue,
		now:      time.Now,
		logger:   logger,
	}
}

// ProcessJob processes a job based on its type
func (p *ScanProcessor) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	ctx, span := telemetry.StartSpan(ctx, "process_scan_job",
		attribute.String("job.id", job.ID.String()),
		attribute.String("job.type", string(job.Type)),
		attribute.Int("job.retry_count", job.RetryCount),
	)
	defer span.End()

	var result ingest.Result
	switch job.Type {
	case queue.JobTypeScanInvite, queue.JobTypeScanReceipt:
		result = p.ingester.IngestImage(ctx, job.Intent(), job.Image, job.MIMEType)
	case queue.JobTypeIngestText:
		result = p.ingester.IngestText(ctx, job.Text)
	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			p.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		err := fmt.Errorf("unknown job type: %s", job.Type)
		p.recordFailure(ctx, job, string(ingest.KindMalformed), err)
		return err
	}

	if result.OK() {
		p.recordSuccess(ctx, job, result)
		if result.Warning != nil {
			p.logger.Warn("scan_record_not_persisted", zap.String("scan_id", job.ScanID), zap.Error(result.Warning))
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil
	}

	return p.handleJobError(ctx, msg, job, result.Err)
}

// handleJobError retries transient failures and records everything else as failed
func (p *ScanProcessor) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, extractErr *ingest.ExtractionError) error {
	if isTransient(extractErr) && job.CanRetry() && p.jobQueue != nil {
		retry := job.Retry()
		enqueueErr := p.jobQueue.Enqueue(ctx, retry)
		if enqueueErr == nil {
			if ackErr := msg.Ack(); ackErr != nil {
				p.logger.Warn("job_ack_failed", zap.String("job_id", job.ID.String()), zap.Error(ackErr))
			}
			p.logger.Info("scan_retry_enqueued",
				zap.String("scan_id", job.ScanID),
				zap.Int("attempt", retry.RetryCount),
				zap.Int("max_retries", retry.MaxRetries),
			)
			return nil
		}
		p.logger.Warn("scan_retry_enqueue_failed", zap.String("scan_id", job.ScanID), zap.Error(enqueueErr))
	}

	p.recordFailure(ctx, job, string(extractErr.Kind), extractErr)

	// Content failures are final; only exhausted transient failures are dead-lettered
	if isTransient(extractErr) {
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("scan %s failed after %d retries: %w", job.ScanID, job.RetryCount, extractErr)
	}
	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}

func (p *ScanProcessor) recordSuccess(ctx context.Context, job *queue.Job, result ingest.Result) {
	status := p.baseStatus(ctx, job)
	status.Status = models.ScanStatusSucceeded
	status.RecordID = result.RecordID()
	status.Error = ""
	status.ErrorKind = ""
	p.putStatus(ctx, status)
}

func (p *ScanProcessor) recordFailure(ctx context.Context, job *queue.Job, kind string, err error) {
	status := p.baseStatus(ctx, job)
	status.Status = models.ScanStatusFailed
	status.Error = err.Error()
	status.ErrorKind = kind
	p.putStatus(ctx, status)
}

// baseStatus loads the queued status written at submission, or rebuilds it from the job
func (p *ScanProcessor) baseStatus(ctx context.Context, job *queue.Job) models.ScanJob {
	status, err := p.statuses.Get(ctx, job.ScanID)
	if err != nil {
		status = models.ScanJob{
			ID:        job.ScanID,
			Intent:    string(job.Intent()),
			CreatedAt: job.CreatedAt.UTC(),
		}
	}
	status.UpdatedAt = p.now().UTC()
	return status
}

func (p *ScanProcessor) putStatus(ctx context.Context, status models.ScanJob) {
	if status.ID == "" {
		return
	}
	if err := p.statuses.Put(ctx, status); err != nil {
		p.logger.Warn("scan_status_write_failed", zap.String("scan_id", status.ID), zap.Error(err))
		return
	}
	p.logger.Info("scan_status_recorded",
		zap.String("scan_id", status.ID),
		zap.String("status", string(status.Status)),
		zap.String("record_id", status.RecordID),
	)
}

// isTransient reports failures worth retrying: timeouts and rate limits, never quota exhaustion
func isTransient(err *ingest.ExtractionError) bool {
	if err == nil || err.Kind != ingest.KindUnavailable || err.Err == nil {
		return false
	}
	if ai.IsQuotaError(err.Err) {
		return false
	}
	return errors.Is(err.Err, context.DeadlineExceeded) || ai.IsRateLimitError(err.Err)
}

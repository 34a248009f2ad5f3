package workers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/benvon/handbook/internal/queue"
)

// JobProcessor handles one delivered message
type JobProcessor interface {
	ProcessJob(ctx context.Context, msg queue.MessageInterface) error
}

// Run consumes jobQueue until ctx is cancelled or the delivery channel closes
func Run(ctx context.Context, jobQueue queue.JobQueue, prefetch int, processor JobProcessor, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	msgChan, errChan, err := jobQueue.Consume(ctx, prefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}
	logger.Info("worker_consuming", zap.Int("prefetch", prefetch))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			logger.Error("queue_error", zap.Error(err))
		case msg, ok := <-msgChan:
			if !ok {
				logger.Info("message_channel_closed")
				return fmt.Errorf("message channel closed")
			}
			if err := processor.ProcessJob(ctx, msg); err != nil {
				job := msg.GetJob()
				logger.Error("job_processing_failed",
					zap.Error(err),
					zap.String("job_id", job.ID.String()),
					zap.String("job_type", string(job.Type)),
				)
			}
		}
	}
}

package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultConnectAttempts bounds ConnectRabbitMQ
	DefaultConnectAttempts = 10
	initialConnectDelay    = 2 * time.Second
	maxConnectDelay        = 30 * time.Second
)

// ConnectRabbitMQ dials RabbitMQ with exponential backoff, which covers broker startup races
// in compose deployments.
func ConnectRabbitMQ(ctx context.Context, amqpURL string, attempts int, logger *zap.Logger) (*RabbitMQQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if attempts <= 0 {
		attempts = DefaultConnectAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		q, err := NewRabbitMQQueue(amqpURL, logger)
		if err == nil {
			logger.Info("connected_to_rabbitmq", zap.Int("attempt", attempt+1))
			return q, nil
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}

		delay := backoffDelay(attempt)
		logger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", attempts),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, lastErr)
}

func backoffDelay(attempt int) time.Duration {
	delay := initialConnectDelay
	for i := 0; i < attempt && delay < maxConnectDelay; i++ {
		delay *= 2
	}
	return min(delay, maxConnectDelay)
}

package handbook

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/handbook/internal/ingest"
	"github.com/benvon/handbook/internal/models"
	"github.com/benvon/handbook/internal/services/ai"
	"github.com/benvon/handbook/internal/validation"
)

// Health is the activity insight surface. Health data is never persisted.
type Health struct {
	analyzer  ai.HealthAnalyzer
	aiEnabled func(ctx context.Context) bool
	timeout   time.Duration
	logger    *zap.Logger
}

// NewHealth creates the health surface. analyzer may be nil when no provider is configured.
func NewHealth(analyzer ai.HealthAnalyzer, aiEnabled func(ctx context.Context) bool, timeout time.Duration, logger *zap.Logger) *Health {
	if timeout <= 0 {
		timeout = ingest.DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Health{analyzer: analyzer, aiEnabled: aiEnabled, timeout: timeout, logger: logger}
}

// Analyze asks the AI capability for a summary of one day of data
func (h *Health) Analyze(ctx context.Context, data models.HealthData) (*models.HealthInsight, error) {
	if err := validation.Validate.Struct(data); err != nil {
		return nil, &ValidationError{Err: err}
	}
	if h.analyzer == nil {
		return nil, fmt.Errorf("%w: no AI provider configured", ingest.ErrExtractionUnavailable)
	}
	if h.aiEnabled != nil && !h.aiEnabled(ctx) {
		return nil, fmt.Errorf("%w: AI engine is disabled in preferences", ingest.ErrExtractionUnavailable)
	}

	callCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	insight, err := h.analyzer.AnalyzeHealth(callCtx, data)
	if err != nil {
		h.logger.Warn("health_analysis_failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ingest.ErrExtractionUnavailable, err)
	}
	return insight, nil
}

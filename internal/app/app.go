// Package app assembles the Handbook service from configuration. The server, the worker and the
// handbook command all start here.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/handbook/internal/clipboard"
	"github.com/benvon/handbook/internal/config"
	"github.com/benvon/handbook/internal/database"
	"github.com/benvon/handbook/internal/handbook"
	"github.com/benvon/handbook/internal/services/ai"
	"github.com/benvon/handbook/internal/store"
)

// App is an opened Handbook: its storage, AI provider and service surfaces
type App struct {
	Config   *config.Config
	KV       database.KV
	Provider ai.AIProvider
	Service  *handbook.Service
	ScanJobs *store.ScanJobs
	logger   *zap.Logger
}

// Option adjusts how Open builds the service
type Option func(*handbook.Options)

// WithClipboardReader lets the clipboard watcher poll reader
func WithClipboardReader(reader clipboard.Reader) Option {
	return func(o *handbook.Options) {
		o.ClipboardReader = reader
	}
}

// WithClipboardInterval overrides the configured clipboard poll period
func WithClipboardInterval(d time.Duration) Option {
	return func(o *handbook.Options) {
		if d > 0 {
			o.ClipboardInterval = d
		}
	}
}

// Open connects storage, builds the configured AI provider and wires the service.
// A missing or unusable AI key is not fatal: AI features report unavailable instead.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger, debugMode bool, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	kv, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.StorageBackend, err)
	}
	logger.Info("storage_opened", zap.String("backend", cfg.StorageBackend))

	provider, err := NewProvider(ctx, cfg, logger.Named("ai"), debugMode)
	switch {
	case errors.Is(err, ai.ErrMissingAPIKey):
		logger.Warn("ai_provider_not_configured_ai_features_disabled", zap.String("ai_provider", cfg.AIProvider))
	case err != nil:
		logger.Warn("failed_to_create_ai_provider_ai_features_disabled", zap.Error(err))
	default:
		logger.Info("ai_provider_ready", zap.String("ai_provider", provider.Name()), zap.String("ai_model", cfg.AIModel))
	}

	options := handbook.Options{
		MonthlyTarget:     cfg.BudgetMonthlyTarget,
		ExtractionTimeout: cfg.ExtractionTimeout,
		ClipboardInterval: cfg.ClipboardInterval,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &App{
		Config:   cfg,
		KV:       kv,
		Provider: provider,
		Service:  handbook.New(kv, provider, options, logger),
		ScanJobs: store.NewScanJobs(kv),
		logger:   logger,
	}, nil
}

// NewProvider builds the provider named by cfg.AIProvider. It returns ai.ErrMissingAPIKey when
// the provider has no key configured.
func NewProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger, debugMode bool) (ai.AIProvider, error) {
	if cfg.AIKey() == "" {
		return nil, ai.ErrMissingAPIKey
	}
	registry := ai.NewDefaultRegistry(logger, debugMode)
	return registry.GetProvider(ctx, cfg.AIProvider, map[string]string{
		ai.ConfigAPIKey:  cfg.AIKey(),
		ai.ConfigModel:   cfg.AIModel,
		ai.ConfigBaseURL: cfg.AIBaseURL,
	})
}

// Close releases storage
func (a *App) Close() error {
	if err := a.KV.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}

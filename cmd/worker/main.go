package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/handbook/internal/app"
	"github.com/benvon/handbook/internal/config"
	"github.com/benvon/handbook/internal/logger"
	"github.com/benvon/handbook/internal/queue"
	"github.com/benvon/handbook/internal/telemetry"
	"github.com/benvon/handbook/internal/workers"
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.RabbitMQURL == "" {
		log.Fatalf("RABBITMQ_URL is required for the worker")
	}

	// Override debug mode if flag is set
	debugMode := cfg.WorkerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("storage_backend", cfg.StorageBackend),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	// Create context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTELEnabled, telemetry.ServiceName+"-worker", cfg.OTELEndpoint, zapLogger)
	if err != nil {
		zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
			}
		}()
	}

	handbookApp, err := app.Open(ctx, cfg, zapLogger, debugMode)
	if err != nil {
		zapLogger.Fatal("failed_to_open_handbook", zap.Error(err))
	}
	defer func() {
		if err := handbookApp.Close(); err != nil {
			zapLogger.Warn("failed_to_close_storage", zap.Error(err))
		}
	}()
	if handbookApp.Provider == nil {
		zapLogger.Warn("worker_started_without_ai_provider_scans_will_fail")
	}

	jobQueue, err := queue.ConnectRabbitMQ(ctx, cfg.RabbitMQURL, queue.DefaultConnectAttempts, zapLogger.Named("queue"))
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	processor := workers.NewScanProcessor(
		handbookApp.Service.Coordinator,
		handbookApp.ScanJobs,
		jobQueue,
		zapLogger.Named("scan_processor"),
	)

	zapLogger.Info("worker_started")
	if err := workers.Run(ctx, jobQueue, cfg.RabbitMQPrefetch, processor, zapLogger); err != nil && !errors.Is(err, context.Canceled) {
		zapLogger.Error("worker_stopped_with_error", zap.Error(err))
		return
	}

	zapLogger.Info("worker_stopped")
}

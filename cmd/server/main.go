package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/benvon/handbook/internal/app"
	"github.com/benvon/handbook/internal/config"
	"github.com/benvon/handbook/internal/database"
	"github.com/benvon/handbook/internal/handlers"
	"github.com/benvon/handbook/internal/logger"
	"github.com/benvon/handbook/internal/middleware"
	"github.com/benvon/handbook/internal/queue"
	"github.com/benvon/handbook/internal/telemetry"
)

const (
	dlqGCInterval  = 1 * time.Hour
	dlqGCRetention = 24 * time.Hour
	// scanBodyLimit leaves room for multipart framing around a maximum size image
	scanBodyLimit    = handlers.MaxImageBytes + 1<<20
	profileBodyLimit = 4 << 20
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

	// Override debug mode if flag is set
	debugMode := cfg.ServerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("storage_backend", cfg.StorageBackend),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
		zap.Bool("async_scans", cfg.RabbitMQURL != ""),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer startupCancel()

	// Initialize OpenTelemetry if enabled
	shutdownTracing, err := telemetry.Setup(startupCtx, cfg.OTELEnabled, telemetry.ServiceName, cfg.OTELEndpoint, zapLogger)
	if err != nil {
		zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
	}
	if shutdownTracing != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
			}
		}()
	}

	// Open storage and build the service
	handbookApp, err := app.Open(startupCtx, cfg, zapLogger, debugMode)
	if err != nil {
		zapLogger.Fatal("failed_to_open_handbook", zap.Error(err))
	}
	defer func() {
		if err := handbookApp.Close(); err != nil {
			zapLogger.Warn("failed_to_close_storage", zap.Error(err))
		}
	}()

	// Optional RabbitMQ job queue; without it scans run inline
	var jobQueue *queue.RabbitMQQueue
	if cfg.RabbitMQURL != "" {
		jobQueue, err = queue.ConnectRabbitMQ(startupCtx, cfg.RabbitMQURL, queue.DefaultConnectAttempts, zapLogger.Named("queue"))
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
		}
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
	}

	// Rate limit counters are shared through Redis when Redis is the storage backend
	var redisClient *redis.Client
	if rs, ok := handbookApp.KV.(*database.RedisStore); ok {
		redisClient = rs.Client()
	}
	rateLimitMW, err := middleware.RateLimit(cfg.RateLimit, redisClient, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	checks := map[string]handlers.Pinger{
		"storage": handlers.PingerFunc(handbookApp.KV.Ping),
	}
	routerCfg := handlers.RouterConfig{
		ScanStatuses: handbookApp.ScanJobs,
		Logger:       zapLogger,
	}
	if jobQueue != nil {
		checks["queue"] = handlers.PingerFunc(jobQueue.HealthCheck)
		routerCfg.ScanQueue = jobQueue
	}
	routerCfg.Health = handlers.NewHealthChecker(checks)

	r := handlers.NewRouter(handbookApp.Service, routerCfg)

	// Apply middleware (order matters)
	// In gorilla/mux, middleware registered first is the outermost wrapper
	zapLogger.Info("setting_up_middleware")
	if cfg.OTELEnabled && shutdownTracing != nil {
		r.Use(otelmux.Middleware(telemetry.ServiceName))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL, zapLogger))
	r.Use(rateLimitMW)
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize,
		middleware.SizeOverride{Prefix: handlers.APIPrefix + "/scans", MaxBytes: scanBodyLimit},
		middleware.SizeOverride{Prefix: handlers.APIPrefix + "/settings/profile", MaxBytes: profileBodyLimit},
	))
	r.Use(middleware.ContentType)
	// Extraction has its own deadline, so scans and clipboard confirmation skip the request timeout
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout,
		handlers.APIPrefix+"/scans",
		handlers.APIPrefix+"/clipboard/confirm",
		handlers.APIPrefix+"/health/insights",
	))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	// Catch-all OPTIONS handler so preflight requests reach the CORS middleware
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.ExtractionTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// Start DLQ garbage collector when scans are queued
	if jobQueue != nil {
		dlqGC := queue.NewGarbageCollector(jobQueue, dlqGCInterval, dlqGCRetention, zapLogger.Named("dlq_gc"))
		go func() {
			if err := dlqGC.Start(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("started_dlq_garbage_collector",
			zap.Duration("interval", dlqGCInterval),
			zap.Duration("retention", dlqGCRetention),
		)
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	bgCancel()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

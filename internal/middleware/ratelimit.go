package middleware

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"

	"github.com/benvon/handbook/internal/request"
)

// DefaultRate is used when no rate is configured
const DefaultRate = "20-S"

const rateLimitKeyPrefix = "handbook_ratelimit"

// RateLimit returns per-client-IP rate limiting middleware for a formatted rate such as "20-S".
// Counters live in Redis when redisClient is set, otherwise in process memory.
func RateLimit(rate string, redisClient *redis.Client, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rate == "" {
		rate = DefaultRate
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rate limit %q: %w", rate, err)
	}

	var store limiter.Store
	backend := "memory"
	if redisClient != nil {
		store, err = redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: rateLimitKeyPrefix})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
		}
		backend = "redis"
	} else {
		store = memorystore.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          rateLimitKeyPrefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		})
	}

	instance := limiter.New(store, parsed)
	mw := stdlibmw.NewMiddleware(instance,
		stdlibmw.WithKeyGetter(request.ClientIP),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("rate_limit_exceeded",
				zap.String("client_ip", request.ClientIP(r)),
				zap.String("path", r.URL.Path),
			)
			respondErrorJSON(w, r, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded, try again shortly", logger)
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("rate_limit_store_failed", zap.Error(err))
			respondErrorJSON(w, r, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred", logger)
		}),
	)

	logger.Info("rate_limit_initialized",
		zap.String("rate", rate),
		zap.String("backend", backend),
	)
	return mw.Handler, nil
}

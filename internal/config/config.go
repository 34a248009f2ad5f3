package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is loaded when present and HANDBOOK_ENV_FILE is unset
const DefaultEnvFile = ".env"

// Config holds application configuration
type Config struct {
	StorageBackend      string
	DataDir             string
	DatabaseURL         string
	RedisURL            string
	RabbitMQURL         string
	RabbitMQPrefetch    int
	AIProvider          string
	GeminiAPIKey        string
	OpenAIKey           string
	AIModel             string
	AIBaseURL           string
	ExtractionTimeout   time.Duration
	ClipboardInterval   time.Duration
	BudgetMonthlyTarget float64
	ServerPort          string
	FrontendURL         string
	RateLimit           string
	EnableHSTS          bool
	ServerDebugMode     bool
	WorkerDebugMode     bool
	OTELEnabled         bool
	OTELEndpoint        string
}

// Load loads configuration from environment variables, after merging an optional .env file.
// Variables already present in the environment win over the file.
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg := &Config{
		StorageBackend:      getEnv("STORAGE_BACKEND", "sqlite"),
		DataDir:             getEnv("DATA_DIR", defaultDataDir()),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:         getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch:    getEnvInt("RABBITMQ_PREFETCH", 1),
		AIProvider:          getEnv("AI_PROVIDER", "gemini"),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", getEnv("API_KEY", "")),
		OpenAIKey:           getEnv("OPENAI_API_KEY", ""),
		AIModel:             getEnv("AI_MODEL", ""),
		AIBaseURL:           getEnv("AI_BASE_URL", ""),
		ExtractionTimeout:   getEnvDuration("EXTRACTION_TIMEOUT", 30*time.Second),
		ClipboardInterval:   getEnvDuration("CLIPBOARD_INTERVAL", 5*time.Second),
		BudgetMonthlyTarget: getEnvFloat("BUDGET_MONTHLY_TARGET", 2500),
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:3000"),
		RateLimit:           getEnv("RATE_LIMIT", "20-S"),
		EnableHSTS:          getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode:     getEnvBool("SERVER_DEBUG_MODE", false),
		WorkerDebugMode:     getEnvBool("WORKER_DEBUG_MODE", false),
		OTELEnabled:         getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:        getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	switch cfg.StorageBackend {
	case "sqlite", "memory", "redis":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND: %s (must be 'sqlite', 'postgres', 'redis' or 'memory')", cfg.StorageBackend)
	}

	switch cfg.AIProvider {
	case "gemini", "openai":
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER: %s (must be 'gemini' or 'openai')", cfg.AIProvider)
	}

	if cfg.ExtractionTimeout <= 0 {
		return nil, fmt.Errorf("EXTRACTION_TIMEOUT must be positive")
	}
	if cfg.ClipboardInterval <= 0 {
		return nil, fmt.Errorf("CLIPBOARD_INTERVAL must be positive")
	}
	if cfg.BudgetMonthlyTarget <= 0 {
		return nil, fmt.Errorf("BUDGET_MONTHLY_TARGET must be positive")
	}

	return cfg, nil
}

// AIKey returns the API key of the configured provider
func (c *Config) AIKey() string {
	if c.AIProvider == "openai" {
		return c.OpenAIKey
	}
	return c.GeminiAPIKey
}

func loadEnvFile() error {
	path := os.Getenv("HANDBOOK_ENV_FILE")
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return fmt.Errorf("env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "handbook")
	}
	return ".handbook"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/benvon/handbook/internal/models"
)

// ErrMissingAPIKey is returned by provider factories when no key is configured
var ErrMissingAPIKey = errors.New("AI API key is not configured")

// ErrEmptyResponse is returned when the provider answered with no content
var ErrEmptyResponse = errors.New("empty response from AI provider")

// Extractor turns an image or text payload into a raw JSON object matching the request schema.
// The returned JSON is untrusted; callers validate it.
type Extractor interface {
	Extract(ctx context.Context, req Request) (json.RawMessage, error)
}

// HealthAnalyzer summarizes a day of health data
type HealthAnalyzer interface {
	AnalyzeHealth(ctx context.Context, data models.HealthData) (*models.HealthInsight, error)
}

// AIProvider is implemented by every registered provider
type AIProvider interface {
	Extractor
	HealthAnalyzer
	Name() string
}

// Provider config keys understood by the built-in factories
const (
	ConfigAPIKey  = "api_key"
	ConfigModel   = "model"
	ConfigBaseURL = "base_url"
)

// ProviderFactory creates an AI provider from its config map
type ProviderFactory func(ctx context.Context, config map[string]string) (AIProvider, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(ctx context.Context, name string, config map[string]string) (AIProvider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	provider, err := factory(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", name, err)
	}
	return provider, nil
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}

// decodeHealthInsight validates a raw health response
func decodeHealthInsight(raw json.RawMessage) (*models.HealthInsight, error) {
	var insight models.HealthInsight
	if err := json.Unmarshal(raw, &insight); err != nil {
		return nil, fmt.Errorf("failed to parse health insight: %w", err)
	}
	if insight.Summary == "" {
		return nil, fmt.Errorf("health insight has no summary")
	}
	if insight.Trends == nil {
		insight.Trends = []string{}
	}
	if insight.Recommendations == nil {
		insight.Recommendations = []string{}
	}
	return &insight, nil
}

// NewDefaultRegistry returns a registry with the gemini and openai providers
func NewDefaultRegistry(logger *zap.Logger, debugMode bool) *ProviderRegistry {
	registry := NewProviderRegistry()
	registry.Register("gemini", func(ctx context.Context, config map[string]string) (AIProvider, error) {
		return NewGeminiProvider(ctx, config[ConfigAPIKey], config[ConfigBaseURL], config[ConfigModel], logger, debugMode)
	})
	registry.Register("openai", func(_ context.Context, config map[string]string) (AIProvider, error) {
		if config[ConfigAPIKey] == "" {
			return nil, ErrMissingAPIKey
		}
		return NewOpenAIProviderWithLogger(config[ConfigAPIKey], config[ConfigBaseURL], config[ConfigModel], logger, debugMode), nil
	})
	return registry
}

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/benvon/handbook/internal/models"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout caps a single HTTP round trip; callers bound the whole call with their context
	DefaultTimeout = 60 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAIProvider implements AIProvider using OpenAI's chat completions with JSON object output.
// The schema is described in the system prompt.
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Extract sends the payload as a multi-part user message
func (p *OpenAIProvider) Extract(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(req.FullPrompt()),
	}
	if len(req.Image) > 0 {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: req.ImageDataURL(),
		}))
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt(req.Schema)),
		openai.UserMessage(parts),
	}
	return p.complete(ctx, "extract_"+req.Schema.Name, messages)
}

// AnalyzeHealth summarizes a day of health data
func (p *OpenAIProvider) AnalyzeHealth(ctx context.Context, data models.HealthData) (*models.HealthInsight, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt(HealthSchema)),
		openai.UserMessage(HealthPrompt(data)),
	}
	raw, err := p.complete(ctx, "analyze_health", messages)
	if err != nil {
		return nil, err
	}
	return decodeHealthInsight(raw)
}

func systemPrompt(schema Schema) string {
	return "You are a data extraction assistant for a personal organizer. Respond with valid JSON only.\n" + schema.Describe()
}

func (p *OpenAIProvider) complete(ctx context.Context, operation string, messages []openai.ChatCompletionMessageParamUnion) (json.RawMessage, error) {
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	requestID := ExtractRequestID(ctx)
	if p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("message_count", len(messages)),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		p.logger.Warn("llm_api_error",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Error(err),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to %s: %w", operation, apiErr)
		}
		return nil, fmt.Errorf("failed to %s: %w", operation, err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content
	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	if content == "" {
		return nil, ErrEmptyResponse
	}
	return json.RawMessage(extractJSONObject(content)), nil
}

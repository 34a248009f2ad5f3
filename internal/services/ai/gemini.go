package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/benvon/handbook/internal/models"
)

// DefaultGeminiModel is the default Gemini model
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements AIProvider with the Gemini API and native JSON response schemas
type GeminiProvider struct {
	client    *genai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewGeminiProvider creates a Gemini provider. baseURL overrides the API endpoint when set.
func NewGeminiProvider(ctx context.Context, apiKey, baseURL, model string, logger *zap.Logger, debugMode bool) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Extract sends the image or text payload with the schema as the response schema
func (p *GeminiProvider) Extract(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var parts []*genai.Part
	if len(req.Image) > 0 {
		parts = append(parts, genai.NewPartFromBytes(req.Image, req.ImageMIMEType()))
	}
	parts = append(parts, genai.NewPartFromText(req.FullPrompt()))

	return p.generate(ctx, "extract_"+req.Schema.Name, parts, req.Schema)
}

// AnalyzeHealth summarizes a day of health data
func (p *GeminiProvider) AnalyzeHealth(ctx context.Context, data models.HealthData) (*models.HealthInsight, error) {
	raw, err := p.generate(ctx, "analyze_health", []*genai.Part{genai.NewPartFromText(HealthPrompt(data))}, HealthSchema)
	if err != nil {
		return nil, err
	}
	return decodeHealthInsight(raw)
}

func (p *GeminiProvider) generate(ctx context.Context, operation string, parts []*genai.Part, schema Schema) (json.RawMessage, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   toGenaiSchema(schema),
	}

	requestID := ExtractRequestID(ctx)
	if p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("part_count", len(parts)),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
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

	content := resp.Text()
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

func toGenaiSchema(s Schema) *genai.Schema {
	out := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(s.Fields)),
		Required:   s.RequiredFields(),
	}
	for _, f := range s.Fields {
		prop := &genai.Schema{Description: f.Description}
		switch f.Type {
		case FieldNumber:
			prop.Type = genai.TypeNumber
		case FieldStringList:
			prop.Type = genai.TypeArray
			prop.Items = &genai.Schema{Type: genai.TypeString}
		default:
			prop.Type = genai.TypeString
			prop.Enum = f.Enum
		}
		out.Properties[f.Name] = prop
	}
	return out
}

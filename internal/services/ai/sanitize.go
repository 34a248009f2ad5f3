package ai

import (
	"context"

	"github.com/benvon/handbook/internal/logger"
)

type contextKey string

const requestIDContextKey contextKey = "request_id"

// RedactedValue replaces sensitive data in logs
const RedactedValue = "[REDACTED]"

// MaxPreviewLength is the maximum length for prompt and response previews outside debug mode
const MaxPreviewLength = 200

// WithRequestID returns a context carrying the request id used in provider logs
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// ExtractRequestID extracts a request ID from context if available
func ExtractRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDContextKey).(string); ok {
		return id
	}
	return ""
}

// SanitizeAPIKey sanitizes an API key for logging
func SanitizeAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return RedactedValue
	}
	return apiKey[:4] + RedactedValue + apiKey[len(apiKey)-4:]
}

// SanitizePrompt creates a safe preview of a prompt for logging
func SanitizePrompt(prompt string, fullLog bool) string {
	if fullLog {
		return logger.SanitizeDebugContent(prompt)
	}
	return logger.SanitizeString(prompt, MaxPreviewLength)
}

// SanitizeResponse creates a safe preview of a response for logging
func SanitizeResponse(response string, fullLog bool) string {
	return SanitizePrompt(response, fullLog)
}

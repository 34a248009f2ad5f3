package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength is the maximum length for URL paths in logs
	MaxPathLength = 500
	// MaxIDLength is the maximum length for record and job ids in logs
	MaxIDLength = 128
	// MaxErrorMessageLength is the maximum length for error messages in logs
	MaxErrorMessageLength = 1000
	// MaxGeneralStringLength is the maximum length for general strings in logs
	MaxGeneralStringLength = 2000
	// MaxDebugContentLength is the maximum length for debug content (prompts/responses)
	MaxDebugContentLength = 10000
	// MaxPreviewLength bounds user content (clipboard text, extracted titles) in logs
	MaxPreviewLength = 40
)

// SanitizePath sanitizes a URL path for safe logging
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeString removes control characters, repairs UTF-8 and truncates to maxLength
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	s = filterRunes(s)
	if len(s) > maxLength {
		s = truncateRunes(s, maxLength) + "..."
	}
	return s
}

func filterRunes(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// truncateRunes cuts s to at most n bytes without splitting a rune
func truncateRunes(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// SanitizeError sanitizes an error message for safe logging
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// SanitizeID sanitizes a record or job id for safe logging
func SanitizeID(id string) string {
	return SanitizeString(id, MaxIDLength)
}

// SanitizePreview returns a short single-line preview of user content.
// Clipboard text can hold card numbers or balances, so only the head is logged.
func SanitizePreview(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	return SanitizeString(content, MaxPreviewLength)
}

// SanitizeDebugContent sanitizes debug content (prompts/responses) for safe logging
func SanitizeDebugContent(content string) string {
	return SanitizeString(content, MaxDebugContentLength)
}

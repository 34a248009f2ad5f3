package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/benvon/handbook/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	for tag, fn := range map[string]validator.Func{
		"category":    validateCategory,
		"priority":    validatePriority,
		"theme":       validateTheme,
		"source_type": validateSourceType,
		"date_time":   validateDateTime,
	} {
		if err := Validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register %s validator: %v", tag, err))
		}
	}
}

func validateCategory(fl validator.FieldLevel) bool {
	return models.Category(fl.Field().String()).IsValid()
}

func validatePriority(fl validator.FieldLevel) bool {
	return ValidatePriority(fl.Field().String()) == nil
}

func validateTheme(fl validator.FieldLevel) bool {
	return ValidateTheme(fl.Field().String()) == nil
}

func validateSourceType(fl validator.FieldLevel) bool {
	switch models.SourceType(fl.Field().String()) {
	case models.SourceTypeManual, models.SourceTypeImage:
		return true
	default:
		return false
	}
}

func validateDateTime(fl validator.FieldLevel) bool {
	_, err := models.ParseDateTime(fl.Field().String())
	return err == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidatePriority validates a Priority string value
func ValidatePriority(value string) error {
	switch models.Priority(value) {
	case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
		return nil
	default:
		return fmt.Errorf("invalid priority: %s (must be 'High', 'Medium', or 'Low')", value)
	}
}

// ValidateTheme validates a Theme string value
func ValidateTheme(value string) error {
	switch models.Theme(value) {
	case models.ThemeLight, models.ThemeDark, models.ThemeSystem:
		return nil
	default:
		return fmt.Errorf("invalid theme: %s (must be 'light', 'dark', or 'system')", value)
	}
}

// ValidateCategory validates a Category string value
func ValidateCategory(value string) error {
	if models.Category(value).IsValid() {
		return nil
	}
	return fmt.Errorf("invalid category: %s (must be one of %v)", value, models.Categories)
}

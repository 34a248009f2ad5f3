package clipboard

import (
	"errors"
	"regexp"
	"unicode/utf8"
)

// Length bounds, exclusive, measured in characters
const (
	MinSuggestionLength = 10
	MaxSuggestionLength = 300
)

var expensePattern = regexp.MustCompile(`(?i)[$£€]|paid|spent|transaction|debited|amount`)

// LooksLikeExpense reports whether text resembles a payment notification
func LooksLikeExpense(text string) bool {
	n := utf8.RuneCountInString(text)
	if n <= MinSuggestionLength || n >= MaxSuggestionLength {
		return false
	}
	return expensePattern.MatchString(text)
}

// ErrUnsupported is returned when the platform has no clipboard access
var ErrUnsupported = errors.New("clipboard access is not supported on this platform")

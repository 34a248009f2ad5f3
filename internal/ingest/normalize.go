package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/benvon/handbook/internal/models"
	"github.com/benvon/handbook/internal/validation"
)

// maxCategoryDistance is the largest edit distance accepted when matching an AI category.
// Names of shortCategoryLen runes or fewer accept only one edit.
const (
	maxCategoryDistance = 2
	shortCategoryLen    = 5
)

// NormalizeCategory maps a free-form category to the enum. Case is ignored and small typos
// that keep the first letter are corrected. Anything else becomes General.
func NormalizeCategory(raw string) models.Category {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.CategoryGeneral
	}

	// Casers are stateful and must not be shared between goroutines
	titled := models.Category(cases.Title(language.English).String(strings.ToLower(raw)))
	if titled.IsValid() {
		return titled
	}

	best := models.CategoryGeneral
	bestDistance := maxCategoryDistance + 1
	for _, c := range models.Categories {
		if titled[0] != c[0] {
			continue
		}
		d := levenshtein.ComputeDistance(string(titled), string(c))
		if d > allowedCategoryDistance(c) {
			continue
		}
		if d < bestDistance {
			best, bestDistance = c, d
		}
	}
	return best
}

func allowedCategoryDistance(c models.Category) int {
	if utf8.RuneCountInString(string(c)) <= shortCategoryLen {
		return 1
	}
	return maxCategoryDistance
}

// parseAmount accepts a JSON number or a numeric string such as "$42.10" or "1,250.00"
func parseAmount(raw json.RawMessage) (float64, error) {
	var amount float64
	if err := json.Unmarshal(raw, &amount); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, fmt.Errorf("amount is not a number")
		}
		s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "$£€"))
		s = strings.ReplaceAll(s, ",", "")
		amount, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("amount %q is not a number", s)
		}
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("amount is not finite")
	}
	if amount < 0 {
		return 0, fmt.Errorf("amount %v is negative", amount)
	}
	return amount, nil
}

// stringField returns a trimmed string field. ok is false when the field is absent,
// not a string, or blank.
func stringField(obj map[string]json.RawMessage, name string) (string, bool) {
	raw, present := obj[name]
	if !present {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	// Control characters are stripped before the blank check so they cannot stand in for a value
	s = strings.TrimSpace(validation.SanitizeText(s))
	return s, s != ""
}

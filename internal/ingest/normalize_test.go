package ingest

import (
	"encoding/json"
	"testing"

	"github.com/benvon/handbook/internal/models"
)

func TestNormalizeCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  models.Category
	}{
		{"Food", models.CategoryFood},
		{"food", models.CategoryFood},
		{"  TRAVEL ", models.CategoryTravel},
		{"Shoping", models.CategoryShopping},
		{"Hom", models.CategoryHome},
		{"Travle", models.CategoryTravel},
		{"Fod", models.CategoryFood},
		{"Groceries", models.CategoryGeneral},
		{"Hotel", models.CategoryGeneral},
		{"Hood", models.CategoryGeneral},
		{"Mood", models.CategoryGeneral},
		{"", models.CategoryGeneral},
		{"general", models.CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeCategory(tt.input); got != tt.want {
				t.Errorf("NormalizeCategory(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{`42.1`, 42.1, false},
		{`0`, 0, false},
		{`"$42.10"`, 42.10, false},
		{`"1,250.00"`, 1250, false},
		{`"€ 3"`, 3, false},
		{`-1`, 0, true},
		{`"abc"`, 0, true},
		{`true`, 0, true},
		{`{"value":1}`, 0, true},
	}

	for _, tt := range tests {
		got, err := parseAmount(json.RawMessage(tt.raw))
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAmount(%s) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseAmount(%s) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

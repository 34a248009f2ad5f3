package ai

import (
	"fmt"
	"time"

	"github.com/benvon/handbook/internal/models"
)

// InviteSchema is the shape of an extracted meeting invite
var InviteSchema = Schema{
	Name: "invite",
	Fields: []Field{
		{Name: "title", Type: FieldString, Required: true},
		{Name: "dateTime", Type: FieldString, Required: true, Description: "ISO 8601 format date and time"},
		{Name: "location", Type: FieldString},
	},
}

// ReceiptSchema is the shape of an extracted receipt or payment message
var ReceiptSchema = Schema{
	Name: "receipt",
	Fields: []Field{
		{Name: "merchant", Type: FieldString, Required: true},
		{Name: "amount", Type: FieldNumber, Required: true, Description: "total amount spent, non-negative"},
		{Name: "category", Type: FieldString, Enum: categoryNames()},
	},
}

// HealthSchema is the shape of a health insight
var HealthSchema = Schema{
	Name: "health_insight",
	Fields: []Field{
		{Name: "summary", Type: FieldString, Required: true},
		{Name: "trends", Type: FieldStringList, Required: true},
		{Name: "recommendations", Type: FieldStringList, Required: true},
	},
}

func categoryNames() []string {
	names := make([]string, 0, len(models.Categories))
	for _, c := range models.Categories {
		names = append(names, string(c))
	}
	return names
}

// InvitePrompt asks for meeting details from an image. now supplies the default year.
func InvitePrompt(now time.Time) string {
	return fmt.Sprintf("Extract meeting details from this image. Provide the title, date and time, and location if shown. "+
		"If no specific year is mentioned, assume %d. Return only valid JSON.", now.Year())
}

// ReceiptPrompt asks for merchant, total and category from a receipt image
func ReceiptPrompt() string {
	return "Analyze this receipt. Extract the merchant name, total amount spent, and categorize it into: " +
		"Food, Shopping, Travel, or Home. Return only valid JSON."
}

// TextReceiptPrompt asks for the same fields from a copied bank or SMS message
func TextReceiptPrompt() string {
	return "Analyze this payment notification text. Extract the merchant name, the amount spent, and categorize it into: " +
		"Food, Shopping, Travel, or Home. Return only valid JSON."
}

// HealthPrompt asks for a summary of one day of health data
func HealthPrompt(data models.HealthData) string {
	return fmt.Sprintf(`Analyze this user's health data for today:
Steps: %d
Calories: %d
Heart Rate: %d BPM
Sleep: %.1f hours
Activity: %d mins

Provide a concise summary, identify 1-2 trends, and give 2 specific actionable recommendations for exercise timing or sleep quality.`,
		data.Steps, data.Calories, data.HeartRate, data.SleepHours, data.ActivityMinutes)
}

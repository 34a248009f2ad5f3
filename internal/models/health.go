package models

// HealthData is a single day of activity metrics
type HealthData struct {
	Steps           int     `json:"steps" validate:"gte=0"`
	Calories        int     `json:"calories" validate:"gte=0"`
	HeartRate       int     `json:"heartRate" validate:"gte=0,lte=300"`
	SleepHours      float64 `json:"sleepHours" validate:"gte=0,lte=24"`
	ActivityMinutes int     `json:"activityMinutes" validate:"gte=0,lte=1440"`
}

// HealthInsight is the AI summary of a day of HealthData
type HealthInsight struct {
	Summary         string   `json:"summary"`
	Trends          []string `json:"trends"`
	Recommendations []string `json:"recommendations"`
}

package structs

import (
	"time"

	"github.com/google/uuid"
)

// PredictionPeriod is a named forecast horizon. Each period maps to a fixed
// horizon, a minimum required history, and a cache TTL.
type PredictionPeriod string

const (
	PeriodOneWeek      PredictionPeriod = "1_week"
	PeriodTwoWeeks     PredictionPeriod = "2_weeks"
	PeriodOneMonth     PredictionPeriod = "1_month"
	PeriodThreeMonths  PredictionPeriod = "3_months"
	PeriodSixMonths    PredictionPeriod = "6_months"
	PeriodTwelveMonths PredictionPeriod = "12_months"
)

type PeriodConfig struct {
	Days           int
	MinHistoryDays int
	CacheTTL       time.Duration
}

// Config returns the fixed (horizon, min history, TTL) triple for a period.
// The second return is false for unknown periods.
func (p PredictionPeriod) Config() (PeriodConfig, bool) {
	switch p {
	case PeriodOneWeek:
		return PeriodConfig{Days: 7, MinHistoryDays: 60, CacheTTL: 24 * time.Hour}, true
	case PeriodTwoWeeks:
		return PeriodConfig{Days: 14, MinHistoryDays: 90, CacheTTL: 24 * time.Hour}, true
	case PeriodOneMonth:
		return PeriodConfig{Days: 30, MinHistoryDays: 120, CacheTTL: 24 * time.Hour}, true
	case PeriodThreeMonths:
		return PeriodConfig{Days: 90, MinHistoryDays: 180, CacheTTL: 48 * time.Hour}, true
	case PeriodSixMonths:
		return PeriodConfig{Days: 180, MinHistoryDays: 365, CacheTTL: 72 * time.Hour}, true
	case PeriodTwelveMonths:
		return PeriodConfig{Days: 365, MinHistoryDays: 730, CacheTTL: 7 * 24 * time.Hour}, true
	default:
		return PeriodConfig{}, false
	}
}

type ItemForecast struct {
	Date              string    `json:"date"` // YYYY-MM-DD
	MenuItemId        uuid.UUID `json:"menu_item_id"`
	ItemName          string    `json:"item_name"`
	PredictedQuantity int       `json:"predicted_quantity"`
	ConfidenceLower   int       `json:"confidence_lower"`
	ConfidenceUpper   int       `json:"confidence_upper"`
	ConfidenceLevel   float64   `json:"confidence_level"`
}

type PredictionSet struct {
	Period      PredictionPeriod `json:"period"`
	DaysAhead   int              `json:"days_ahead"`
	Predictions []ItemForecast   `json:"predictions"`
	GeneratedAt time.Time        `json:"generated_at"`
	Cached      bool             `json:"cached"`
}

type Recommendation struct {
	MenuItemId uuid.UUID `json:"menu_item_id"`
	ItemName   string    `json:"item_name"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
}

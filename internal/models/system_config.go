package models

import "time"

// Well-known system config keys
const (
	ConfigKeyWindowDays       = "analysis_window_days"
	ConfigKeyBaseRate         = "base_consumption_rate"
	ConfigKeyMinConsumption   = "min_daily_consumption"
	ConfigKeyMaxConsumption   = "max_daily_consumption"
	ConfigKeyMediumMultiplier = "medium_rate_multiplier"
	ConfigKeyTrendMethod      = "trend_method"
)

// Trend computation methods. Edge takes the first/last snapshot in the
// window; extrema takes the max/min quantities instead.
const (
	TrendMethodEdge    = "edge"
	TrendMethodExtrema = "extrema"
)

// SystemConfig holds one string-typed tuning parameter. Values are parsed
// fresh at the start of each analysis run; malformed values fall back to
// documented defaults.
type SystemConfig struct {
	Key       string    `json:"key" gorm:"primaryKey"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

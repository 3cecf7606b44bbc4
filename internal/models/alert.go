package models

import (
	"encoding/json"
	"time"
)

// Alert types
const (
	AlertTypeFastConsumption = "FAST_CONSUMPTION"
)

// Alert lifecycle status
const (
	AlertStatusActive   = "ACTIVE"
	AlertStatusInactive = "INACTIVE"
)

// Alert severity levels, ascending. LevelNone means no alert condition.
const (
	LevelNone   = 0
	LevelLow    = 1
	LevelMedium = 2
	LevelHigh   = 3
)

// ProductAlert is the single live alert record for a (sku, region, type)
// identity. Recomputation updates level/details/timestamps on the existing
// row rather than inserting a duplicate.
type ProductAlert struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SkuID     uint      `json:"sku_id" gorm:"not null;index;uniqueIndex:idx_alert_sku_region_type"`
	RegionID  string    `json:"region_id" gorm:"not null;uniqueIndex:idx_alert_sku_region_type"`
	AlertType string    `json:"alert_type" gorm:"not null;uniqueIndex:idx_alert_sku_region_type"`
	Level     int       `json:"level"`
	Details   string    `json:"details" gorm:"type:text"`
	Status    string    `json:"status" gorm:"default:'ACTIVE';index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FastConsumptionDetails is the structured payload attached to
// FAST_CONSUMPTION alerts. One typed struct per alert type; the schema
// anticipates more types later.
type FastConsumptionDetails struct {
	WindowDays       int     `json:"window_days"`
	SpanDays         float64 `json:"span_days"`
	QuantityChange   float64 `json:"quantity_change"`
	DailyConsumption float64 `json:"daily_consumption"`
	ConsumptionRate  float64 `json:"consumption_rate"`
	StartQuantity    float64 `json:"start_quantity"`
	EndQuantity      float64 `json:"end_quantity"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
}

// SetDetails serializes the typed details payload onto the alert row.
func (a *ProductAlert) SetDetails(d FastConsumptionDetails) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	a.Details = string(data)
	return nil
}

// ParseDetails deserializes the details payload of a FAST_CONSUMPTION alert.
func (a *ProductAlert) ParseDetails() (*FastConsumptionDetails, error) {
	var d FastConsumptionDetails
	if err := json.Unmarshal([]byte(a.Details), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

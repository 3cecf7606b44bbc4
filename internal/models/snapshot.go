package models

import (
	"time"
)

// RegionalInventorySnapshot is one observed (quantity, price) reading for a
// SKU in a delivery region on a calendar date. At most one row exists per
// (sku, date, region); a second fetch on the same day overwrites quantity and
// price in place.
type RegionalInventorySnapshot struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	SkuID        uint      `json:"sku_id" gorm:"not null;uniqueIndex:idx_snapshot_sku_date_region"`
	SnapshotDate time.Time `json:"snapshot_date" gorm:"not null;uniqueIndex:idx_snapshot_sku_date_region"`
	RegionID     string    `json:"region_id" gorm:"not null;uniqueIndex:idx_snapshot_sku_date_region"`
	RegionName   string    `json:"region_name"`
	RegionCode   string    `json:"region_code"`
	Quantity     float64   `json:"quantity"`
	Price        float64   `json:"price"`
	CapturedAt   time.Time `json:"captured_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DateOf truncates a timestamp to its UTC calendar date. Snapshot dates are
// always stored normalized so the (sku, date, region) upsert key matches
// across fetches within the same day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// TrackedSku represents a SKU under inventory tracking.
// A row is created on the first successful ingest of a new SKU code and its
// name/image/upstream identifiers are refreshed on every later fetch.
type TrackedSku struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	SkuCode           string         `json:"sku_code" gorm:"uniqueIndex;not null"`
	Name              string         `json:"name"`
	ImageURL          string         `json:"image_url"`
	UpstreamProductID string         `json:"upstream_product_id"`
	UpstreamSkuID     string         `json:"upstream_sku_id"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relations
	Snapshots []RegionalInventorySnapshot `json:"snapshots,omitempty" gorm:"foreignKey:SkuID;constraint:OnDelete:CASCADE"`
	Alerts    []ProductAlert              `json:"alerts,omitempty" gorm:"foreignKey:SkuID;constraint:OnDelete:CASCADE"`
}

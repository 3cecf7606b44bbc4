package services

import (
	"time"

	"github.com/stocksentry/stocksentry/internal/models"
	"github.com/stocksentry/stocksentry/upstream"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TimeSeriesService persists per-region, per-day inventory snapshots and
// serves windowed history queries for trend analysis.
type TimeSeriesService struct {
	db *gorm.DB
}

// NewTimeSeriesService creates a new time series service
func NewTimeSeriesService(db *gorm.DB) *TimeSeriesService {
	return &TimeSeriesService{db: db}
}

// UpsertSnapshot inserts or overwrites the unique (sku, date, region) row.
// A second write on the same day updates quantity/price in place, keeping
// re-ingestion of the same day idempotent.
func (s *TimeSeriesService) UpsertSnapshot(skuID uint, date time.Time, region upstream.RegionStock, capturedAt time.Time) error {
	snap := models.RegionalInventorySnapshot{
		SkuID:        skuID,
		SnapshotDate: models.DateOf(date),
		RegionID:     region.RegionID,
		RegionName:   region.RegionName,
		RegionCode:   region.RegionCode,
		Quantity:     region.Quantity,
		Price:        region.Price,
		CapturedAt:   capturedAt,
	}

	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sku_id"}, {Name: "snapshot_date"}, {Name: "region_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"region_name", "region_code", "quantity", "price", "captured_at", "updated_at",
		}),
	}).Create(&snap).Error
}

// WindowedHistory returns all snapshots for the SKU with date >= today-days,
// ordered by date ascending. Callers group by region.
func (s *TimeSeriesService) WindowedHistory(skuID uint, days int) ([]models.RegionalInventorySnapshot, error) {
	cutoff := models.DateOf(time.Now()).AddDate(0, 0, -days)

	var snaps []models.RegionalInventorySnapshot
	err := s.db.
		Where("sku_id = ? AND snapshot_date >= ?", skuID, cutoff).
		Order("snapshot_date ASC").
		Find(&snaps).Error
	return snaps, err
}

// LatestPerSku returns the maximum-date snapshot per (sku, region), used for
// dashboard and export views. An empty skuIDs selects all tracked SKUs.
func (s *TimeSeriesService) LatestPerSku(skuIDs ...uint) ([]models.RegionalInventorySnapshot, error) {
	query := s.db.
		Table("regional_inventory_snapshots AS s1").
		Where(`NOT EXISTS (
			SELECT 1 FROM regional_inventory_snapshots s2
			WHERE s2.sku_id = s1.sku_id
			  AND s2.region_id = s1.region_id
			  AND s2.snapshot_date > s1.snapshot_date
		)`)
	if len(skuIDs) > 0 {
		query = query.Where("s1.sku_id IN ?", skuIDs)
	}

	var snaps []models.RegionalInventorySnapshot
	err := query.Order("s1.sku_id ASC, s1.region_id ASC").Find(&snaps).Error
	return snaps, err
}

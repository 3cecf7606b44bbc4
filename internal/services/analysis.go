package services

import (
	"context"
	"errors"

	"github.com/stocksentry/stocksentry/internal/models"
	"github.com/stocksentry/stocksentry/pkg/logger"
	"gorm.io/gorm"
)

// AnalysisResult summarizes one analysis run
type AnalysisResult struct {
	NewAlerts      int `json:"new_alerts"`
	SkusAnalyzed   int `json:"skus_analyzed"`
	RegionsSkipped int `json:"regions_skipped"`
}

// trendStats carries the computed consumption figures for one region window
type trendStats struct {
	first models.RegionalInventorySnapshot
	last  models.RegionalInventorySnapshot

	qtyChange float64
	spanDays  float64
	daily     float64 // units consumed per day
	rate      float64 // fraction of starting stock consumed per day
}

// AnalysisService computes per-region consumption trends over the configured
// lookback window and maintains the deduplicated alert set.
type AnalysisService struct {
	db         *gorm.DB
	timeseries *TimeSeriesService
	settings   *SettingsService
	alerts     *AlertService
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(db *gorm.DB, timeseries *TimeSeriesService, settings *SettingsService) *AnalysisService {
	return &AnalysisService{db: db, timeseries: timeseries, settings: settings}
}

// SetAlertService wires the alert store used for cache invalidation
func (s *AnalysisService) SetAlertService(alerts *AlertService) {
	s.alerts = alerts
}

// Analyze runs the consumption analysis for one SKU, or for every tracked
// SKU when skuID is nil. Per-SKU failures are logged and skipped; they never
// abort the run.
func (s *AnalysisService) Analyze(ctx context.Context, skuID *uint) (*AnalysisResult, error) {
	cfg := s.settings.AnalysisSettings()

	query := s.db.Model(&models.TrackedSku{})
	if skuID != nil {
		query = query.Where("id = ?", *skuID)
	}
	var skus []models.TrackedSku
	if err := query.Find(&skus).Error; err != nil {
		return nil, err
	}
	if skuID != nil && len(skus) == 0 {
		return nil, ErrSkuNotFound
	}

	result := &AnalysisResult{}
	for _, sku := range skus {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}
		if err := s.analyzeSku(sku, cfg, result); err != nil {
			logger.Log.Error().Err(err).Str("sku_code", sku.SkuCode).Msg("sku analysis failed, skipping")
			continue
		}
		result.SkusAnalyzed++
	}

	if s.alerts != nil && result.NewAlerts > 0 {
		s.alerts.InvalidateCache(ctx)
	}

	logger.Log.Info().
		Int("skus_analyzed", result.SkusAnalyzed).
		Int("new_alerts", result.NewAlerts).
		Msg("analysis run finished")
	return result, nil
}

func (s *AnalysisService) analyzeSku(sku models.TrackedSku, cfg AnalysisSettings, result *AnalysisResult) error {
	history, err := s.timeseries.WindowedHistory(sku.ID, cfg.WindowDays)
	if err != nil {
		return err
	}

	for regionID, snaps := range groupByRegion(history) {
		trend := computeTrend(snaps, cfg.TrendMethod)
		if trend == nil {
			result.RegionsSkipped++
			continue
		}

		level := classify(trend, cfg)
		if level == models.LevelNone {
			continue
		}

		details := models.FastConsumptionDetails{
			WindowDays:       cfg.WindowDays,
			SpanDays:         trend.spanDays,
			QuantityChange:   trend.qtyChange,
			DailyConsumption: trend.daily,
			ConsumptionRate:  trend.rate,
			StartQuantity:    trend.first.Quantity,
			EndQuantity:      trend.last.Quantity,
			StartDate:        trend.first.SnapshotDate.Format("2006-01-02"),
			EndDate:          trend.last.SnapshotDate.Format("2006-01-02"),
		}
		if err := s.upsertAlert(sku.ID, regionID, level, details); err != nil {
			logger.Log.Error().Err(err).
				Str("sku_code", sku.SkuCode).
				Str("region_id", regionID).
				Msg("failed to upsert alert, skipping region")
			continue
		}
		result.NewAlerts++
	}
	return nil
}

// groupByRegion splits a date-ordered history into per-region series,
// preserving the ascending date order within each region.
func groupByRegion(snaps []models.RegionalInventorySnapshot) map[string][]models.RegionalInventorySnapshot {
	grouped := make(map[string][]models.RegionalInventorySnapshot)
	for _, snap := range snaps {
		grouped[snap.RegionID] = append(grouped[snap.RegionID], snap)
	}
	return grouped
}

// computeTrend derives the consumption figures for one region. Returns nil
// when the region has insufficient data (fewer than 2 snapshots), a
// zero-length span, or flat/increasing inventory.
func computeTrend(snaps []models.RegionalInventorySnapshot, method string) *trendStats {
	if len(snaps) < 2 {
		return nil
	}

	first := snaps[0]
	last := snaps[len(snaps)-1]
	if method == models.TrendMethodExtrema {
		// Alternative policy: span from the maximum-quantity snapshot to the
		// minimum-quantity one, provided the minimum comes later.
		for _, snap := range snaps {
			if snap.Quantity > first.Quantity {
				first = snap
			}
		}
		last = first
		for _, snap := range snaps {
			if snap.SnapshotDate.After(first.SnapshotDate) && snap.Quantity < last.Quantity {
				last = snap
			}
		}
	}

	qtyChange := first.Quantity - last.Quantity
	spanDays := last.SnapshotDate.Sub(first.SnapshotDate).Hours() / 24
	if spanDays <= 0 || qtyChange <= 0 {
		return nil
	}

	daily := qtyChange / spanDays
	rate := 0.0
	if first.Quantity > 0 {
		rate = (qtyChange / first.Quantity) / spanDays
	}

	return &trendStats{
		first:     first,
		last:      last,
		qtyChange: qtyChange,
		spanDays:  spanDays,
		daily:     daily,
		rate:      rate,
	}
}

// classify maps the consumption figures onto a severity level. Volume above
// MaxDaily alone triggers the highest level regardless of rate.
func classify(t *trendStats, cfg AnalysisSettings) int {
	if t.daily > cfg.MaxDaily {
		return models.LevelHigh
	}
	if t.daily >= cfg.MinDaily {
		mediumRate := cfg.BaseRate * cfg.MediumMultiplier
		if t.rate > mediumRate {
			return models.LevelMedium
		}
		if t.rate > cfg.BaseRate {
			return models.LevelLow
		}
	}
	return models.LevelNone
}

// upsertAlert keeps at most one ACTIVE alert per (sku, region, type):
// recomputation updates level/details/timestamp on the existing row.
func (s *AnalysisService) upsertAlert(skuID uint, regionID string, level int, details models.FastConsumptionDetails) error {
	var alert models.ProductAlert
	err := s.db.
		Where("sku_id = ? AND region_id = ? AND alert_type = ?", skuID, regionID, models.AlertTypeFastConsumption).
		First(&alert).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		alert = models.ProductAlert{
			SkuID:     skuID,
			RegionID:  regionID,
			AlertType: models.AlertTypeFastConsumption,
			Level:     level,
			Status:    models.AlertStatusActive,
		}
		if err := alert.SetDetails(details); err != nil {
			return err
		}
		return s.db.Create(&alert).Error
	}
	if err != nil {
		return err
	}

	alert.Level = level
	alert.Status = models.AlertStatusActive
	if err := alert.SetDetails(details); err != nil {
		return err
	}
	return s.db.Save(&alert).Error
}

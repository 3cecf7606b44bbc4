package services

import (
	"context"
	"testing"
	"time"

	"github.com/stocksentry/stocksentry/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedRegionHistory(t *testing.T, db *gorm.DB, skuID uint, regionID string, daysAgoToQty map[int]float64) {
	t.Helper()
	today := models.DateOf(time.Now())
	for daysAgo, qty := range daysAgoToQty {
		snap := models.RegionalInventorySnapshot{
			SkuID:        skuID,
			SnapshotDate: today.AddDate(0, 0, -daysAgo),
			RegionID:     regionID,
			RegionName:   "Region " + regionID,
			Quantity:     qty,
		}
		require.NoError(t, db.Create(&snap).Error)
	}
}

func newAnalysisFixture(t *testing.T) (*gorm.DB, *AnalysisService, models.TrackedSku) {
	t.Helper()
	db := newTestDB(t)
	svc := NewAnalysisService(db, NewTimeSeriesService(db), NewSettingsService(db))

	sku := models.TrackedSku{SkuCode: "SKU-1", Name: "Widget"}
	require.NoError(t, db.Create(&sku).Error)
	return db, svc, sku
}

func activeAlerts(t *testing.T, db *gorm.DB, skuID uint) []models.ProductAlert {
	t.Helper()
	var alerts []models.ProductAlert
	require.NoError(t, db.Where("sku_id = ? AND status = ?", skuID, models.AlertStatusActive).Find(&alerts).Error)
	return alerts
}

func TestAnalyzeSeverity(t *testing.T) {
	t.Run("slow steady consumption stays below alert thresholds", func(t *testing.T) {
		db, svc, sku := newAnalysisFixture(t)
		// 1000 -> 900 over 7 days: 14.29/day, rate 0.0143/day
		seedRegionHistory(t, db, sku.ID, "r1", map[int]float64{7: 1000, 0: 900})

		result, err := svc.Analyze(context.Background(), &sku.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, result.NewAlerts)
		assert.Empty(t, activeAlerts(t, db, sku.ID))
	})

	t.Run("volume above maximum triggers highest level regardless of rate", func(t *testing.T) {
		db, svc, sku := newAnalysisFixture(t)
		// 1000 -> 700 over 7 days: 42.86/day
		seedRegionHistory(t, db, sku.ID, "r1", map[int]float64{7: 1000, 0: 700})

		result, err := svc.Analyze(context.Background(), &sku.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, result.NewAlerts)

		alerts := activeAlerts(t, db, sku.ID)
		require.Len(t, alerts, 1)
		assert.Equal(t, models.LevelHigh, alerts[0].Level)
		assert.Equal(t, models.AlertTypeFastConsumption, alerts[0].AlertType)

		details, err := alerts[0].ParseDetails()
		require.NoError(t, err)
		assert.InDelta(t, 300.0, details.QuantityChange, 0.001)
		assert.InDelta(t, 42.857, details.DailyConsumption, 0.01)
	})

	t.Run("fast rate on moderate volume yields medium level", func(t *testing.T) {
		db, svc, sku := newAnalysisFixture(t)
		// 100 -> 50 over 5 days: 10/day, rate 0.1/day > 0.045
		seedRegionHistory(t, db, sku.ID, "r1", map[int]float64{5: 100, 0: 50})

		result, err := svc.Analyze(context.Background(), &sku.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, result.NewAlerts)

		alerts := activeAlerts(t, db, sku.ID)
		require.Len(t, alerts, 1)
		assert.Equal(t, models.LevelMedium, alerts[0].Level)
	})

	t.Run("rate above base but below medium yields low level", func(t *testing.T) {
		db, svc, sku := newAnalysisFixture(t)
		// 250 -> 230 over 2 days: 10/day, rate 0.04/day
		seedRegionHistory(t, db, sku.ID, "r1", map[int]float64{2: 250, 0: 230})

		result, err := svc.Analyze(context.Background(), &sku.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, result.NewAlerts)

		alerts := activeAlerts(t, db, sku.ID)
		require.Len(t, alerts, 1)
		assert.Equal(t, models.LevelLow, alerts[0].Level)
	})
}

func TestAnalyzeEdgeCases(t *testing.T) {
	t.Run("no alert on flat or rising stock", func(t *testing.T) {
		db, svc, sku := newAnalysisFixture(t)
		seedRegionHistory(t, db, sku.ID, "r1", map[int]float64{6: 100, 0: 120})

		result, err := svc.Analyze(context.Background(), &sku.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, result.NewAlerts)
		assert.Empty(t, activeAlerts(t, db, sku.ID))
	})

	t.Run("single snapshot is insufficient data", func(t *testing.T) {
		db, svc, sku := newAnalysisFixture(t)
		seedRegionHistory(t, db, sku.ID, "r1", map[int]float64{0: 100})

		result, err := svc.Analyze(context.Background(), &sku.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, result.NewAlerts)
		assert.Equal(t, 1, result.RegionsSkipped)
	})

	t.Run("unknown sku id is rejected", func(t *testing.T) {
		_, svc, _ := newAnalysisFixture(t)
		missing := uint(9999)

		_, err := svc.Analyze(context.Background(), &missing)
		assert.ErrorIs(t, err, ErrSkuNotFound)
	})

	t.Run("regions are analyzed independently", func(t *testing.T) {
		db, svc, sku := newAnalysisFixture(t)
		seedRegionHistory(t, db, sku.ID, "r1", map[int]float64{5: 100, 0: 50})  // medium
		seedRegionHistory(t, db, sku.ID, "r2", map[int]float64{5: 100, 0: 100}) // flat

		result, err := svc.Analyze(context.Background(), &sku.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, result.NewAlerts)

		alerts := activeAlerts(t, db, sku.ID)
		require.Len(t, alerts, 1)
		assert.Equal(t, "r1", alerts[0].RegionID)
	})
}

func TestAlertDeduplication(t *testing.T) {
	db, svc, sku := newAnalysisFixture(t)
	seedRegionHistory(t, db, sku.ID, "r1", map[int]float64{5: 100, 0: 50})

	first, err := svc.Analyze(context.Background(), &sku.ID)
	require.NoError(t, err)
	require.Equal(t, 1, first.NewAlerts)

	alerts := activeAlerts(t, db, sku.ID)
	require.Len(t, alerts, 1)
	firstUpdatedAt := alerts[0].UpdatedAt

	time.Sleep(20 * time.Millisecond)

	second, err := svc.Analyze(context.Background(), &sku.ID)
	require.NoError(t, err)
	require.Equal(t, 1, second.NewAlerts)

	alerts = activeAlerts(t, db, sku.ID)
	require.Len(t, alerts, 1, "recomputation must update in place, not insert")
	assert.True(t, alerts[0].UpdatedAt.After(firstUpdatedAt), "updated_at must advance")
}

func TestAnalyzeReadsSettingsFresh(t *testing.T) {
	db, svc, sku := newAnalysisFixture(t)
	settings := NewSettingsService(db)
	// 100 -> 50 over 5 days is level medium under the defaults
	seedRegionHistory(t, db, sku.ID, "r1", map[int]float64{5: 100, 0: 50})

	require.NoError(t, settings.Set(models.ConfigKeyMaxConsumption, "8"))

	result, err := svc.Analyze(context.Background(), &sku.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.NewAlerts)

	alerts := activeAlerts(t, db, sku.ID)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.LevelHigh, alerts[0].Level, "lowered max threshold must take effect on the next run")
}

func TestExtremaTrendMethod(t *testing.T) {
	db, svc, sku := newAnalysisFixture(t)
	settings := NewSettingsService(db)
	require.NoError(t, settings.Set(models.ConfigKeyTrendMethod, models.TrendMethodExtrema))

	// Edge policy sees 90 -> 85 (flat-ish); extrema sees the 140 spike down to 40.
	seedRegionHistory(t, db, sku.ID, "r1", map[int]float64{6: 90, 5: 140, 2: 40, 0: 85})

	result, err := svc.Analyze(context.Background(), &sku.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.NewAlerts)

	alerts := activeAlerts(t, db, sku.ID)
	require.Len(t, alerts, 1)

	details, err := alerts[0].ParseDetails()
	require.NoError(t, err)
	assert.InDelta(t, 100.0, details.QuantityChange, 0.001)
	assert.InDelta(t, 140.0, details.StartQuantity, 0.001)
	assert.InDelta(t, 40.0, details.EndQuantity, 0.001)
}

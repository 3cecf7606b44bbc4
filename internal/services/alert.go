package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stocksentry/stocksentry/internal/cache"
	"github.com/stocksentry/stocksentry/internal/models"
	"github.com/stocksentry/stocksentry/pkg/logger"
	"gorm.io/gorm"
)

const activeAlertCachePrefix = "alerts:active:"

// cachedAlertPage is the serialized form of one cached listing page
type cachedAlertPage struct {
	Alerts []models.ProductAlert `json:"alerts"`
	Total  int64                 `json:"total"`
}

// AlertService handles alert-related queries and lifecycle operations
type AlertService struct {
	db       *gorm.DB
	cache    cache.Cache
	cacheTTL time.Duration
}

// NewAlertService creates a new alert service
func NewAlertService(db *gorm.DB) *AlertService {
	return &AlertService{db: db}
}

// SetCache enables the read cache for hot listing pages
func (s *AlertService) SetCache(c cache.Cache, ttl time.Duration) {
	s.cache = c
	s.cacheTTL = ttl
}

// GetActiveAlerts retrieves ACTIVE alerts with pagination, newest update first
func (s *AlertService) GetActiveAlerts(ctx context.Context, page, limit int) ([]models.ProductAlert, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	key := fmt.Sprintf("%s%d:%d", activeAlertCachePrefix, page, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var cached cachedAlertPage
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached.Alerts, cached.Total, nil
			}
		}
	}

	var alerts []models.ProductAlert
	var total int64

	query := s.db.Model(&models.ProductAlert{}).Where("status = ?", models.AlertStatusActive)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("updated_at DESC").Find(&alerts).Error; err != nil {
		return nil, 0, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(cachedAlertPage{Alerts: alerts, Total: total}); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
				logger.Log.Debug().Err(err).Msg("failed to cache alert page")
			}
		}
	}
	return alerts, total, nil
}

// GetAlertsBySku retrieves the most recently updated alerts for one SKU
func (s *AlertService) GetAlertsBySku(skuID uint, limit int) ([]models.ProductAlert, error) {
	var alerts []models.ProductAlert
	err := s.db.Where("sku_id = ?", skuID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&alerts).Error
	return alerts, err
}

// Deactivate marks an alert INACTIVE
func (s *AlertService) Deactivate(id uint) error {
	return s.db.Model(&models.ProductAlert{}).
		Where("id = ?", id).
		Update("status", models.AlertStatusInactive).Error
}

// InvalidateCache drops the cached listing pages after recomputation.
// Only the first pages are hot; deeper pages expire on their own TTL.
func (s *AlertService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for page := 1; page <= 5; page++ {
		for _, limit := range []int{10, 20, 50} {
			key := fmt.Sprintf("%s%d:%d", activeAlertCachePrefix, page, limit)
			if err := s.cache.Delete(ctx, key); err != nil {
				logger.Log.Debug().Err(err).Str("key", key).Msg("cache invalidation failed")
			}
		}
	}
}

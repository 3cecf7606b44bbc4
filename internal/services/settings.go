package services

import (
	"strconv"

	"github.com/stocksentry/stocksentry/internal/models"
	"github.com/stocksentry/stocksentry/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnalysisSettings holds the consumption-analysis tuning parameters
type AnalysisSettings struct {
	WindowDays       int
	BaseRate         float64
	MinDaily         float64
	MaxDaily         float64
	MediumMultiplier float64
	TrendMethod      string
}

// DefaultAnalysisSettings returns the documented defaults
func DefaultAnalysisSettings() AnalysisSettings {
	return AnalysisSettings{
		WindowDays:       7,
		BaseRate:         0.03,
		MinDaily:         5,
		MaxDaily:         20,
		MediumMultiplier: 1.5,
		TrendMethod:      models.TrendMethodEdge,
	}
}

// SettingsService reads key/value tuning parameters. Values are read fresh
// at the start of each analysis run; latest write wins.
type SettingsService struct {
	db *gorm.DB
}

// NewSettingsService creates a new settings service
func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// Set upserts one key/value tuning parameter
func (s *SettingsService) Set(key, value string) error {
	row := models.SystemConfig{Key: key, Value: value}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

// AnalysisSettings loads the current tuning parameters, falling back to
// defaults for missing or malformed values.
func (s *SettingsService) AnalysisSettings() AnalysisSettings {
	settings := DefaultAnalysisSettings()

	var rows []models.SystemConfig
	if err := s.db.Find(&rows).Error; err != nil {
		logger.Log.Warn().Err(err).Msg("failed to load system config, using defaults")
		return settings
	}

	for _, row := range rows {
		switch row.Key {
		case models.ConfigKeyWindowDays:
			if v, err := strconv.Atoi(row.Value); err == nil && v > 0 {
				settings.WindowDays = v
			}
		case models.ConfigKeyBaseRate:
			if v, err := strconv.ParseFloat(row.Value, 64); err == nil && v > 0 {
				settings.BaseRate = v
			}
		case models.ConfigKeyMinConsumption:
			if v, err := strconv.ParseFloat(row.Value, 64); err == nil && v >= 0 {
				settings.MinDaily = v
			}
		case models.ConfigKeyMaxConsumption:
			if v, err := strconv.ParseFloat(row.Value, 64); err == nil && v > 0 {
				settings.MaxDaily = v
			}
		case models.ConfigKeyMediumMultiplier:
			if v, err := strconv.ParseFloat(row.Value, 64); err == nil && v > 0 {
				settings.MediumMultiplier = v
			}
		case models.ConfigKeyTrendMethod:
			if row.Value == models.TrendMethodEdge || row.Value == models.TrendMethodExtrema {
				settings.TrendMethod = row.Value
			}
		}
	}
	return settings
}

package handlers

import (
	"github.com/stocksentry/stocksentry/internal/scheduler"
	"github.com/stocksentry/stocksentry/internal/services"
	"gorm.io/gorm"
)

// Global handler instance
var globalHandler *CoreHandler

// CoreHandler exposes the ingest/analysis triggers and the alert and
// schedule query surfaces.
type CoreHandler struct {
	db         *gorm.DB
	ingest     *services.IngestService
	analysis   *services.AnalysisService
	alerts     *services.AlertService
	timeseries *services.TimeSeriesService
	scheduler  *scheduler.Scheduler
}

// NewCoreHandler creates a new core handler
func NewCoreHandler(db *gorm.DB, ingest *services.IngestService, analysis *services.AnalysisService, alerts *services.AlertService, timeseries *services.TimeSeriesService, sched *scheduler.Scheduler) *CoreHandler {
	return &CoreHandler{
		db:         db,
		ingest:     ingest,
		analysis:   analysis,
		alerts:     alerts,
		timeseries: timeseries,
		scheduler:  sched,
	}
}

// SetGlobalHandler sets the global handler instance
func SetGlobalHandler(handler *CoreHandler) {
	globalHandler = handler
}

// GetGlobalHandler returns the global handler instance
func GetGlobalHandler() *CoreHandler {
	return globalHandler
}

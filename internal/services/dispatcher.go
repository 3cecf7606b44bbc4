package services

import (
	"context"
	"fmt"

	"github.com/stocksentry/stocksentry/internal/models"
)

// TaskDispatcher routes task types to their owning services. It satisfies
// the scheduler's TaskRunner interface.
type TaskDispatcher struct {
	ingest   *IngestService
	analysis *AnalysisService
	notify   *NotifyService
}

// NewTaskDispatcher creates a new task dispatcher
func NewTaskDispatcher(ingest *IngestService, analysis *AnalysisService, notify *NotifyService) *TaskDispatcher {
	return &TaskDispatcher{
		ingest:   ingest,
		analysis: analysis,
		notify:   notify,
	}
}

// Run executes the business logic for one task type and returns a
// serializable detail payload for the execution history.
func (d *TaskDispatcher) Run(ctx context.Context, taskType string) (interface{}, error) {
	switch taskType {
	case models.TaskTypeIngest:
		return d.ingest.FetchAll(ctx)
	case models.TaskTypeAnalyze:
		return d.analysis.Analyze(ctx, nil)
	case models.TaskTypeNotify:
		return d.notify.NotifyAlerts(ctx)
	default:
		return nil, fmt.Errorf("unsupported task type: %s", taskType)
	}
}

package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/stocksentry/stocksentry/internal/models"
	"github.com/stocksentry/stocksentry/pkg/logger"
	"gorm.io/gorm"
)

// ErrInvalidCron indicates a malformed cron expression. Rejected eagerly at
// schedule registration, never silently ignored.
var ErrInvalidCron = errors.New("invalid cron expression")

// TaskRunner executes the business logic for one task type
type TaskRunner interface {
	Run(ctx context.Context, taskType string) (interface{}, error)
}

// ValidateCronExpr checks a cron expression without side effects. Schedule
// CRUD and scheduler start share this single validation path.
func ValidateCronExpr(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidCron, expr, err)
	}
	return nil
}

// Scheduler owns the cron-triggered and on-demand executions of named task
// types. At most one active cron registration exists per schedule id; a
// single scheduler instance is assumed per process.
type Scheduler struct {
	db     *gorm.DB
	runner TaskRunner
	cron   *cron.Cron

	mu      sync.Mutex
	entries map[uint]cron.EntryID
}

// New creates a scheduler and starts its cron runtime
func New(db *gorm.DB, runner TaskRunner) *Scheduler {
	s := &Scheduler{
		db:      db,
		runner:  runner,
		cron:    cron.New(),
		entries: make(map[uint]cron.EntryID),
	}
	s.cron.Start()
	return s
}

// Start registers one schedule with the cron runtime. Starting an already
// scheduled id removes the previous registration first.
func (s *Scheduler) Start(sched models.Schedule) error {
	if err := ValidateCronExpr(sched.CronExpr); err != nil {
		logger.Log.Error().Err(err).Uint("schedule_id", sched.ID).Str("name", sched.Name).Msg("schedule rejected")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.entries[sched.ID]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, sched.ID)
	}

	schedCopy := sched
	entryID, err := s.cron.AddFunc(sched.CronExpr, func() {
		s.Execute(context.Background(), schedCopy, models.TriggerCron, "")
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCron, err)
	}
	s.entries[sched.ID] = entryID

	logger.Log.Info().Uint("schedule_id", sched.ID).Str("name", sched.Name).Str("cron", sched.CronExpr).Msg("schedule registered")
	return nil
}

// Stop removes the cron registration for a schedule id, if any
func (s *Scheduler) Stop(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.entries[id]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, id)
		logger.Log.Info().Uint("schedule_id", id).Msg("schedule unregistered")
	}
}

// StartAll loads every active schedule and registers it. Invalid cron
// expressions are logged and leave that schedule unscheduled; they never
// block the rest.
func (s *Scheduler) StartAll() error {
	var schedules []models.Schedule
	if err := s.db.Where("is_active = ?", true).Find(&schedules).Error; err != nil {
		return fmt.Errorf("failed to load schedules: %w", err)
	}

	for _, sched := range schedules {
		if err := s.Start(sched); err != nil {
			continue
		}
	}
	return nil
}

// Shutdown stops the cron runtime. Running tasks finish on their own.
func (s *Scheduler) Shutdown() {
	s.cron.Stop()
}

// IsScheduled reports whether a schedule id has an active registration
func (s *Scheduler) IsScheduled(id uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	return ok
}

// Execute dispatches one task run and always records exactly one execution
// history entry, whether the task completed, failed, or panicked. Failures
// never propagate to the cron runtime.
func (s *Scheduler) Execute(ctx context.Context, sched models.Schedule, trigger, triggeredBy string) (exec *models.TaskExecution) {
	exec = &models.TaskExecution{
		RunID:       uuid.NewString(),
		ScheduleID:  sched.ID,
		TaskType:    sched.TaskType,
		Trigger:     trigger,
		TriggeredBy: triggeredBy,
		StartedAt:   time.Now(),
	}

	defer func() {
		if r := recover(); r != nil {
			exec.Status = models.ExecutionStatusFailed
			exec.Detail = fmt.Sprintf("panic: %v", r)
			logger.Log.Error().Uint("schedule_id", sched.ID).Str("task_type", sched.TaskType).Msgf("task panicked: %v", r)
		}
		exec.FinishedAt = time.Now()
		if err := s.db.Create(exec).Error; err != nil {
			logger.Log.Error().Err(err).Str("run_id", exec.RunID).Msg("failed to record task execution")
		}
	}()

	detail, err := s.runner.Run(ctx, sched.TaskType)
	if err != nil {
		exec.Status = models.ExecutionStatusFailed
		exec.Detail = err.Error()
		logger.Log.Error().Err(err).Uint("schedule_id", sched.ID).Str("task_type", sched.TaskType).Msg("task failed")
		return exec
	}

	payload, err := json.Marshal(detail)
	if err != nil {
		payload = []byte("{}")
	}
	exec.Status = models.ExecutionStatusCompleted
	exec.Detail = string(payload)
	return exec
}

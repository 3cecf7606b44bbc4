package models

import (
	"time"

	"gorm.io/gorm"
)

// Task types dispatched by the scheduler
const (
	TaskTypeIngest  = "ingest"
	TaskTypeAnalyze = "analyze"
	TaskTypeNotify  = "notify"
)

// Execution status values
const (
	ExecutionStatusCompleted = "completed"
	ExecutionStatusFailed    = "failed"
)

// Trigger sources for an execution
const (
	TriggerCron   = "cron"
	TriggerManual = "manual"
)

// Schedule defines a named cron-triggered task. Rows are created and updated
// by the admin surface; the scheduler only reads them.
type Schedule struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"not null"`
	CronExpr  string         `json:"cron_expr" gorm:"not null"`
	TaskType  string         `json:"task_type" gorm:"not null"` // ingest, analyze, notify
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TaskExecution records one run of a scheduled or manually triggered task.
// Exactly one row is written per run, whether it completed or failed.
type TaskExecution struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RunID       string    `json:"run_id" gorm:"uniqueIndex;not null"`
	ScheduleID  uint      `json:"schedule_id" gorm:"index"`
	TaskType    string    `json:"task_type"`
	Status      string    `json:"status"` // completed, failed
	Detail      string    `json:"detail" gorm:"type:text"`
	Trigger     string    `json:"trigger"` // cron, manual
	TriggeredBy string    `json:"triggered_by"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	CreatedAt   time.Time `json:"created_at"`
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stocksentry/stocksentry/internal/database"
	"github.com/stocksentry/stocksentry/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// stubRunner lets each test control the task outcome
type stubRunner struct {
	detail interface{}
	err    error
	panics bool
}

func (r *stubRunner) Run(ctx context.Context, taskType string) (interface{}, error) {
	if r.panics {
		panic("runner blew up")
	}
	return r.detail, r.err
}

func TestValidateCronExpr(t *testing.T) {
	assert.NoError(t, ValidateCronExpr("*/5 * * * *"))
	assert.NoError(t, ValidateCronExpr("0 3 * * 1"))

	err := ValidateCronExpr("not a cron")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCron)

	assert.ErrorIs(t, ValidateCronExpr("61 * * * *"), ErrInvalidCron)
}

func TestStart(t *testing.T) {
	t.Run("rejects invalid expression", func(t *testing.T) {
		db := newTestDB(t)
		s := New(db, &stubRunner{})
		defer s.Shutdown()

		sched := models.Schedule{ID: 1, Name: "bad", CronExpr: "bogus", TaskType: models.TaskTypeIngest}
		err := s.Start(sched)
		require.ErrorIs(t, err, ErrInvalidCron)
		assert.False(t, s.IsScheduled(1))
	})

	t.Run("restart replaces the previous registration", func(t *testing.T) {
		db := newTestDB(t)
		s := New(db, &stubRunner{})
		defer s.Shutdown()

		sched := models.Schedule{ID: 1, Name: "ingest", CronExpr: "0 * * * *", TaskType: models.TaskTypeIngest}
		require.NoError(t, s.Start(sched))
		require.NoError(t, s.Start(sched))

		assert.True(t, s.IsScheduled(1))
		assert.Len(t, s.cron.Entries(), 1, "restarting must not leave a duplicate entry")
	})

	t.Run("stop unregisters", func(t *testing.T) {
		db := newTestDB(t)
		s := New(db, &stubRunner{})
		defer s.Shutdown()

		sched := models.Schedule{ID: 1, Name: "ingest", CronExpr: "0 * * * *", TaskType: models.TaskTypeIngest}
		require.NoError(t, s.Start(sched))

		s.Stop(1)
		assert.False(t, s.IsScheduled(1))
		assert.Empty(t, s.cron.Entries())
	})
}

func TestStartAll(t *testing.T) {
	db := newTestDB(t)

	rows := []models.Schedule{
		{Name: "hourly ingest", CronExpr: "0 * * * *", TaskType: models.TaskTypeIngest, IsActive: true},
		{Name: "broken", CronExpr: "nope", TaskType: models.TaskTypeAnalyze, IsActive: true},
		{Name: "paused", CronExpr: "30 * * * *", TaskType: models.TaskTypeNotify, IsActive: false},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}
	// gorm default:true would resurrect the paused flag on create
	require.NoError(t, db.Model(&models.Schedule{}).Where("name = ?", "paused").Update("is_active", false).Error)

	s := New(db, &stubRunner{})
	defer s.Shutdown()

	require.NoError(t, s.StartAll())
	assert.True(t, s.IsScheduled(rows[0].ID))
	assert.False(t, s.IsScheduled(rows[1].ID), "invalid cron must be skipped, not fatal")
	assert.False(t, s.IsScheduled(rows[2].ID))
}

func TestExecute(t *testing.T) {
	sched := models.Schedule{ID: 1, Name: "ingest", CronExpr: "0 * * * *", TaskType: models.TaskTypeIngest}

	t.Run("completed run records detail payload", func(t *testing.T) {
		db := newTestDB(t)
		s := New(db, &stubRunner{detail: map[string]int{"succeeded": 3}})
		defer s.Shutdown()

		exec := s.Execute(context.Background(), sched, models.TriggerManual, "admin")
		require.NotNil(t, exec)
		assert.Equal(t, models.ExecutionStatusCompleted, exec.Status)
		assert.NotEmpty(t, exec.RunID)
		assert.Contains(t, exec.Detail, `"succeeded":3`)

		var row models.TaskExecution
		require.NoError(t, db.Where("run_id = ?", exec.RunID).First(&row).Error)
		assert.Equal(t, models.TriggerManual, row.Trigger)
		assert.Equal(t, "admin", row.TriggeredBy)
		assert.Equal(t, models.TaskTypeIngest, row.TaskType)
		assert.False(t, row.FinishedAt.Before(row.StartedAt))
	})

	t.Run("runner error records a failed run", func(t *testing.T) {
		db := newTestDB(t)
		s := New(db, &stubRunner{err: errors.New("upstream down")})
		defer s.Shutdown()

		exec := s.Execute(context.Background(), sched, models.TriggerCron, "")
		require.NotNil(t, exec)
		assert.Equal(t, models.ExecutionStatusFailed, exec.Status)
		assert.Equal(t, "upstream down", exec.Detail)

		var count int64
		require.NoError(t, db.Model(&models.TaskExecution{}).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("panicking runner still records exactly one failed run", func(t *testing.T) {
		db := newTestDB(t)
		s := New(db, &stubRunner{panics: true})
		defer s.Shutdown()

		exec := s.Execute(context.Background(), sched, models.TriggerCron, "")
		require.NotNil(t, exec)
		assert.Equal(t, models.ExecutionStatusFailed, exec.Status)
		assert.Contains(t, exec.Detail, "panic")

		var count int64
		require.NoError(t, db.Model(&models.TaskExecution{}).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})
}

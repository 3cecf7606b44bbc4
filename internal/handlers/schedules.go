package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stocksentry/stocksentry/internal/models"
)

// GetSchedules lists all schedules
func (h *CoreHandler) GetSchedules(c *gin.Context) {
	var schedules []models.Schedule
	if err := h.db.Find(&schedules).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve schedules"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedules": schedules})
}

// GetScheduleHistory lists the execution history of one schedule
func (h *CoreHandler) GetScheduleHistory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule ID"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	query := h.db.Model(&models.TaskExecution{}).Where("schedule_id = ?", uint(id))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}

	var executions []models.TaskExecution
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("started_at DESC").Find(&executions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"executions": executions,
		"total":      total,
		"page":       page,
		"limit":      limit,
	})
}

// RunSchedule triggers one stored schedule manually and returns the
// execution record once the run finishes.
func (h *CoreHandler) RunSchedule(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule ID"})
		return
	}

	var sched models.Schedule
	if err := h.db.First(&sched, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Schedule not found"})
		return
	}

	exec := h.scheduler.Execute(c.Request.Context(), sched, models.TriggerManual, c.Query("user"))
	c.JSON(http.StatusOK, exec)
}

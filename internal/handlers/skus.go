package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stocksentry/stocksentry/internal/models"
)

// GetSkus lists all tracked SKUs
func (h *CoreHandler) GetSkus(c *gin.Context) {
	var skus []models.TrackedSku
	if err := h.db.Find(&skus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve skus"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"skus": skus})
}

// GetSkuLatest returns the most recent snapshot per region for one SKU
func (h *CoreHandler) GetSkuLatest(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sku ID"})
		return
	}

	var sku models.TrackedSku
	if err := h.db.First(&sku, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sku not found"})
		return
	}

	latest, err := h.timeseries.LatestPerSku(sku.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve snapshots"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sku":       sku,
		"snapshots": latest,
	})
}

// GetSkuAlerts returns the most recently updated alerts for one SKU
func (h *CoreHandler) GetSkuAlerts(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sku ID"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 {
		limit = 20
	}

	alerts, err := h.alerts.GetAlertsBySku(uint(id), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

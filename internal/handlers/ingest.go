package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stocksentry/stocksentry/internal/services"
)

// RunIngest triggers a synchronous ingest over the full tracked SKU set
func (h *CoreHandler) RunIngest(c *gin.Context) {
	result, err := h.ingest.FetchAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run ingest", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	})
}

// RunIngestForSku fetches and persists a single tracked SKU
func (h *CoreHandler) RunIngestForSku(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sku ID"})
		return
	}

	snapshot, err := h.ingest.FetchOne(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrSkuNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Sku not found"})
			return
		}
		if errors.Is(err, services.ErrFetchFailed) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream fetch failed", "details": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest sku", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// RunAnalysis triggers a consumption analysis run, optionally for one SKU
func (h *CoreHandler) RunAnalysis(c *gin.Context) {
	var skuID *uint
	if raw := c.Query("sku_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sku_id"})
			return
		}
		id := uint(parsed)
		skuID = &id
	}

	result, err := h.analysis.Analyze(c.Request.Context(), skuID)
	if err != nil {
		if errors.Is(err, services.ErrSkuNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Sku not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run analysis", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

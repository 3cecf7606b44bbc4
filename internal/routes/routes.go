package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/stocksentry/stocksentry/internal/handlers"
)

// SetupRoutes configures all the routes for the application
func SetupRoutes(r *gin.Engine) {
	coreHandler := handlers.GetGlobalHandler()

	// API routes
	api := r.Group("/api/v1")
	{
		ingest := api.Group("/ingest")
		{
			ingest.POST("/run", coreHandler.RunIngest)
			ingest.POST("/skus/:id", coreHandler.RunIngestForSku)
		}

		api.POST("/analysis/run", coreHandler.RunAnalysis)

		skus := api.Group("/skus")
		{
			skus.GET("", coreHandler.GetSkus)
			skus.GET("/:id/latest", coreHandler.GetSkuLatest)
			skus.GET("/:id/alerts", coreHandler.GetSkuAlerts)
		}

		alerts := api.Group("/alerts")
		{
			alerts.GET("", coreHandler.GetAlerts)
			alerts.POST("/:id/deactivate", coreHandler.DeactivateAlert)
		}

		schedules := api.Group("/schedules")
		{
			schedules.GET("", coreHandler.GetSchedules)
			schedules.GET("/:id/history", coreHandler.GetScheduleHistory)
			schedules.POST("/:id/run", coreHandler.RunSchedule)
		}
	}

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "stocksentry",
		})
	})

	// Root endpoint
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "StockSentry Inventory Monitor",
			"version": "1.0.0",
			"endpoints": gin.H{
				"ingest":   "/api/v1/ingest/run",
				"analysis": "/api/v1/analysis/run",
				"alerts":   "/api/v1/alerts",
				"health":   "/health",
			},
		})
	})
}

package http

import (
	"github.com/gin-gonic/gin"

	"github.com/parentrebuild/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		rebuild := v1.Group("/rebuild")
		{
			rebuild.POST("/preview", handler.PreviewRebuild)
			rebuild.POST("/run", handler.RunRebuild)
		}

		feeds := v1.Group("/feeds")
		{
			feeds.GET("/:feedId", handler.GetFeedStatus)
			feeds.GET("/:feedId/report", handler.GetFeedReport)
		}

		v1.POST("/inventory/preview", handler.PreviewInventory)
		v1.GET("/runs/:runId", handler.GetRun)
	}

	return router
}

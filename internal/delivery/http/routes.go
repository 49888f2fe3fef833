package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/A-Yoshitsugu/crossborder/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.GET("/demand", handler.GetDemand)
		v1.POST("/match", handler.MatchItems)
		v1.POST("/score", handler.ScoreMatches)
		v1.POST("/opportunities", handler.FindOpportunities)
	}

	return router
}

package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/sendblast/sendblast/api/handlers"
	"github.com/sendblast/sendblast/api/middleware"
	"github.com/sendblast/sendblast/config"
	"github.com/sendblast/sendblast/internal/logger"
	"github.com/sendblast/sendblast/internal/tracing"
	"github.com/sendblast/sendblast/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, cfg *config.Config, s *services.Services, log logger.Logger) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if cfg == nil {
		panic("Config cannot be nil")
	}

	// Add recovery middlewares
	r.Use(gin.Recovery())                                         // Gin's built-in recovery
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer())) // Our custom Jaeger recovery

	// setup handlers
	apiHandlers := handlers.InitHandlers(cfg, s, log)

	// Health check endpoint (no auth needed)
	r.GET("/health", handlers.HealthCheck)

	// API group with version, optional API key auth
	api := r.Group("/v1")
	if cfg.AppConfig.APIKey != "" {
		api.Use(middleware.APIKeyMiddleware(middleware.APIKeyConfig{
			HeaderName:  "X-SENDBLAST-API-KEY",
			ValidAPIKey: cfg.AppConfig.APIKey,
		}))
	}
	{
		api.GET("/config/status", apiHandlers.Status.ConfigStatus())
		api.GET("/cover-letter", apiHandlers.CoverLetter.Preview())

		recipients := api.Group("/recipients")
		{
			recipients.POST("/parse", apiHandlers.Recipients.Parse())
		}

		api.POST("/dispatch", apiHandlers.Dispatch.Dispatch())
	}
}

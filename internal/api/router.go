package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/scoreforge/scoreforge-api/internal/api/handlers"
	apimiddleware "github.com/scoreforge/scoreforge-api/internal/api/middleware"
	"github.com/scoreforge/scoreforge-api/internal/composer"
	"github.com/scoreforge/scoreforge-api/internal/config"
	"github.com/scoreforge/scoreforge-api/internal/llm"
	"github.com/scoreforge/scoreforge-api/internal/metrics"
	"github.com/scoreforge/scoreforge-api/internal/score"
	"github.com/scoreforge/scoreforge-api/internal/store"
)

func SetupRouter(db *gorm.DB, cfg *config.Config, version string, engine score.Engine, cw *metrics.Client) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(cw))

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(db)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	var compositions *store.CompositionStore
	if db != nil {
		compositions = store.NewCompositionStore(db)
	}

	providers := llm.NewProviderFactory(cfg.GeminiAPIKey, cfg.OpenAIAPIKey)
	composerService := composer.NewService(providers, cfg.DefaultModel, cw)

	v1 := router.Group("/api/v1")
	{
		composeHandler := handlers.NewComposeHandler(composerService, compositions)
		v1.POST("/compositions", composeHandler.Compose)

		renderHandler := handlers.NewRenderHandler(engine)
		v1.POST("/compositions/render", renderHandler.Render)

		exportHandler := handlers.NewExportHandler(engine)
		v1.POST("/compositions/export/audio", exportHandler.ExportAudio)
		v1.POST("/compositions/export/vector", exportHandler.ExportVector)

		historyHandler := handlers.NewHistoryHandler(compositions)
		v1.GET("/compositions", historyHandler.List)
		v1.GET("/compositions/:id", historyHandler.Get)
	}

	return router
}

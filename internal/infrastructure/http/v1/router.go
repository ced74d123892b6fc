// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stepform/internal/domain/record"
	"stepform/internal/domain/report"
	"stepform/internal/domain/structure"
	"stepform/internal/infrastructure/http/v1/handlers"
	"stepform/internal/infrastructure/http/v1/middleware"
	"stepform/internal/infrastructure/storage/postgres"
	"stepform/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection (for health checks).
	Pool *postgres.Pool

	// Logger for request logging.
	Logger *logger.Logger

	// Registry stores structure declarations.
	Registry *structure.Registry

	// RecordService persists wizard steps and loads records.
	RecordService *record.Service

	// Synthesizer owns the virtual-property registry for exports.
	Synthesizer *report.Synthesizer
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	baseHandler := handlers.NewBaseHandler()
	wizardHandler := handlers.NewWizardHandler(baseHandler, cfg.Registry, cfg.RecordService)
	recordsHandler := handlers.NewRecordsHandler(baseHandler, cfg.Registry, cfg.RecordService)
	exportHandler := handlers.NewExportHandler(baseHandler, cfg.Registry, cfg.RecordService, cfg.Synthesizer)

	v1 := router.Group("/api/v1")
	{
		structures := v1.Group("/structures")
		structures.GET("", wizardHandler.ListStructures)
		structures.GET("/:name", wizardHandler.GetStructure)

		structures.GET("/:name/wizard/:step", wizardHandler.GetStep)
		structures.POST("/:name/wizard/:step", wizardHandler.SubmitStep)

		structures.GET("/:name/records", recordsHandler.List)
		structures.GET("/:name/records/:id", recordsHandler.Get)
		structures.DELETE("/:name/records/:id", recordsHandler.Delete)

		structures.GET("/:name/properties", exportHandler.Properties)
		structures.GET("/:name/export.csv", exportHandler.ExportCSV)
		structures.GET("/:name/codes.csv", exportHandler.ExportCodesCSV)
	}

	return router
}

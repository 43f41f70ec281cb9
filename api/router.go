package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/vidgrab-go/api/handlers"
	"github.com/yourusername/vidgrab-go/api/middleware"
	"github.com/yourusername/vidgrab-go/internal/app"
	"github.com/yourusername/vidgrab-go/internal/domain"
	"github.com/yourusername/vidgrab-go/pkg/logger"
)

// SetupRouter sets up the HTTP router
func SetupRouter(
	orch *app.Orchestrator,
	reaper *app.Reaper,
	logAdapter *logger.LoggerAdapter,
	serverConfig *domain.ServerConfig,
	logsDir string,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(logAdapter))
	router.Use(middleware.Recovery(logAdapter))
	router.Use(middleware.CORS())

	healthHandler := handlers.NewHealthHandler(reaper, orch.BackendName())
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	acquisitionHandler := handlers.NewAcquisitionHandler(orch, logAdapter.Error())
	api := router.Group("/api")
	{
		limited := api.Group("", middleware.RateLimit(serverConfig.RateLimit, serverConfig.RateBurst))
		limited.POST("/info", acquisitionHandler.Info)
		limited.POST("/download", acquisitionHandler.Download)
		limited.POST("/clean", acquisitionHandler.Clean)

		api.GET("/stats", acquisitionHandler.Stats)
		api.GET("/history", acquisitionHandler.History)

		logHandler := handlers.NewLogHandler(logsDir)
		wsHandler := handlers.NewLogWebSocketHandler(logsDir, logAdapter.General())
		logs := api.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/ws", wsHandler.HandleWebSocket)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
			logs.GET("/:category/export", logHandler.ExportLogs)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}

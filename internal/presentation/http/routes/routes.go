// Package routes wires HTTP endpoints to their handlers.
package routes

import (
	"github.com/FernworksMedia/sitepulse-go/internal/application/container"
	"github.com/FernworksMedia/sitepulse-go/internal/presentation/http/handlers"
	"github.com/FernworksMedia/sitepulse-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRoutes builds the gin engine with all routes and middleware.
func SetupRoutes(c *container.Container) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())

	trackingHandlers := handlers.NewTrackingHandlers(c.TrackingService, c.Logger)
	analyticsHandlers := handlers.NewAnalyticsHandlers(c.SummaryService, c.Logger)
	privacyHandlers := handlers.NewPrivacyHandlers(c.PrivacyService, c.ConsentService, c.Logger)
	healthHandlers := handlers.NewHealthHandlers(c.DB, c.PerfTracker)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthHandlers.GetHealth)
		v1.GET("/metrics", healthHandlers.GetMetrics)

		analytics := v1.Group("/analytics")
		{
			analytics.POST("/visit", trackingHandlers.PostVisit)
			analytics.POST("/event", trackingHandlers.PostEvent)
			analytics.GET("/summary", analyticsHandlers.GetSummary)
			analytics.GET("/daily", analyticsHandlers.GetDailyTraffic)
			analytics.GET("/events", analyticsHandlers.GetRecentEvents)
		}

		v1.POST("/consent", privacyHandlers.PostConsent)

		myData := v1.Group("/my-data")
		{
			myData.GET("/download", privacyHandlers.DownloadMyData)
			myData.POST("/delete", privacyHandlers.DeleteMyData)
		}
	}

	return router
}

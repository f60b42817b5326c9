package handlers

import (
	"net/http"
	"strconv"

	"github.com/FernworksMedia/sitepulse-go/internal/application/services"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/logging"
	"github.com/FernworksMedia/sitepulse-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// AnalyticsHandlers contains the read-path HTTP handlers for the
// dashboard rollups.
type AnalyticsHandlers struct {
	summaryService *services.SummaryService
	logger         *logging.ChanneledLogger
}

// NewAnalyticsHandlers creates analytics handlers with injected dependencies
func NewAnalyticsHandlers(summaryService *services.SummaryService, logger *logging.ChanneledLogger) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		summaryService: summaryService,
		logger:         logger,
	}
}

// GetSummary handles GET /api/v1/analytics/summary?days=N
func (h *AnalyticsHandlers) GetSummary(c *gin.Context) {
	days := parseDays(c)

	report, err := h.summaryService.Summary(c.Request.Context(), days)
	if err != nil {
		h.logger.Analytics().Error("Summary query failed", "error", err.Error(), "days", days)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build summary"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetDailyTraffic handles GET /api/v1/analytics/daily?days=N
func (h *AnalyticsHandlers) GetDailyTraffic(c *gin.Context) {
	days := parseDays(c)

	series, err := h.summaryService.DailyTraffic(c.Request.Context(), days)
	if err != nil {
		h.logger.Analytics().Error("Daily traffic query failed", "error", err.Error(), "days", days)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build daily traffic"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": days, "daily": series})
}

// GetRecentEvents handles GET /api/v1/analytics/events?limit=N
func (h *AnalyticsHandlers) GetRecentEvents(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		limit = 20
	}

	events, err := h.summaryService.RecentEvents(c.Request.Context(), limit)
	if err != nil {
		h.logger.Analytics().Error("Recent events query failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recent events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

func parseDays(c *gin.Context) int {
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(config.DefaultSummaryDays)))
	if err != nil || days <= 0 {
		return config.DefaultSummaryDays
	}
	return days
}

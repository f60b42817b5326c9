package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/performance"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/persistence/database"
	"github.com/FernworksMedia/sitepulse-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// HealthHandlers reports process and database health.
type HealthHandlers struct {
	db          *database.DB
	perfTracker *performance.Tracker
}

// NewHealthHandlers creates health handlers with injected dependencies
func NewHealthHandlers(db *database.DB, perfTracker *performance.Tracker) *HealthHandlers {
	return &HealthHandlers{
		db:          db,
		perfTracker: perfTracker,
	}
}

// GetHealth handles GET /api/v1/health
func (h *HealthHandlers) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.DBOperationTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "degraded",
			"database": "unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "connected",
		"uptime":   h.perfTracker.Uptime().Round(time.Second).String(),
	})
}

// GetMetrics handles GET /api/v1/metrics. It reports per-operation
// timing aggregates from the completed performance markers.
func (h *HealthHandlers) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"uptime":     h.perfTracker.Uptime().Round(time.Second).String(),
		"operations": h.perfTracker.GetStats(),
	})
}

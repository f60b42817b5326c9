// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"errors"
	"net/http"

	"github.com/FernworksMedia/sitepulse-go/internal/application/services"
	"github.com/FernworksMedia/sitepulse-go/internal/domain/analytics"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/logging"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/security"
	"github.com/gin-gonic/gin"
)

// SessionIDHeader carries the session id when the client prefers a
// header over the request body.
const SessionIDHeader = "X-SitePulse-Session-ID"

// TrackingHandlers contains the write-path HTTP handlers: page views
// and interaction events.
type TrackingHandlers struct {
	trackingService *services.TrackingService
	logger          *logging.ChanneledLogger
}

// VisitResponse echoes the resolved session back to the client so it
// can persist the id for subsequent requests.
type VisitResponse struct {
	SessionID   string `json:"sessionId"`
	IsReturning bool   `json:"isReturning"`
	DeviceType  string `json:"deviceType,omitempty"`
	Browser     string `json:"browser,omitempty"`
	OS          string `json:"os,omitempty"`
}

// EventResponse reports the id of a stored interaction event.
type EventResponse struct {
	EventID string `json:"eventId"`
	Status  string `json:"status"`
}

// NewTrackingHandlers creates tracking handlers with injected dependencies
func NewTrackingHandlers(trackingService *services.TrackingService, logger *logging.ChanneledLogger) *TrackingHandlers {
	return &TrackingHandlers{
		trackingService: trackingService,
		logger:          logger,
	}
}

// PostVisit handles POST /api/v1/analytics/visit. Tracking is best
// effort: a malformed body or storage failure still answers 200 so the
// embedding page never sees tracking errors.
func (h *TrackingHandlers) PostVisit(c *gin.Context) {
	var req services.PageViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Analytics().Debug("Unparseable visit payload", "error", err.Error())
		c.JSON(http.StatusOK, VisitResponse{})
		return
	}

	if req.SessionID == "" {
		req.SessionID = c.GetHeader(SessionIDHeader)
	}
	if req.SessionID == "" {
		token, err := security.GenerateSessionToken()
		if err != nil {
			token = security.GenerateULID()
		}
		req.SessionID = token
	}

	meta := requestMeta(c)
	session := h.trackingService.RecordPageView(c.Request.Context(), &req, meta)
	if session == nil {
		c.JSON(http.StatusOK, VisitResponse{SessionID: req.SessionID})
		return
	}

	c.JSON(http.StatusOK, VisitResponse{
		SessionID:   session.SessionID,
		IsReturning: session.IsReturning,
		DeviceType:  session.DeviceType,
		Browser:     session.Browser,
		OS:          session.OS,
	})
}

// PostEvent handles POST /api/v1/analytics/event. Unlike visits, event
// submission reports its outcome: 400 when no session id accompanies
// the event, 500 when storage fails, 201 on success.
func (h *TrackingHandlers) PostEvent(c *gin.Context) {
	var req services.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.SessionID == "" {
		req.SessionID = c.GetHeader(SessionIDHeader)
	}

	eventID, err := h.trackingService.RecordEvent(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, analytics.ErrMissingSessionID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no active session"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record event"})
		return
	}

	c.JSON(http.StatusCreated, EventResponse{EventID: eventID, Status: "recorded"})
}

func requestMeta(c *gin.Context) analytics.RequestMeta {
	return analytics.RequestMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

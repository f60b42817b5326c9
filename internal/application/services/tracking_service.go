package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/FernworksMedia/sitepulse-go/internal/domain/analytics"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/logging"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/performance"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/security"
	"github.com/FernworksMedia/sitepulse-go/pkg/config"
)

// PageViewRequest carries the details of a single page view submission.
type PageViewRequest struct {
	SessionID string `json:"sessionId"`
	Path      string `json:"path"`
	Title     string `json:"title,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
	TimeSpent int    `json:"timeSpent,omitempty"`
	Country   string `json:"country,omitempty"`
	City      string `json:"city,omitempty"`
}

// EventRequest carries the details of a custom interaction event.
type EventRequest struct {
	SessionID string          `json:"sessionId"`
	EventType string          `json:"eventType"`
	EventName string          `json:"eventName,omitempty"`
	PagePath  string          `json:"pagePath,omitempty"`
	ElementID string          `json:"elementId,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// TrackingService is the write path: it turns incoming page views and
// interaction events into stored rows, resolving the session on the way.
type TrackingService struct {
	sessionSvc  *SessionService
	pageViews   analytics.PageViewRepository
	events      analytics.EventRepository
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewTrackingService creates a new tracking service
func NewTrackingService(
	sessionSvc *SessionService,
	pageViews analytics.PageViewRepository,
	events analytics.EventRepository,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *TrackingService {
	return &TrackingService{
		sessionSvc:  sessionSvc,
		pageViews:   pageViews,
		events:      events,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// RecordPageView stores one page view. It never returns an error:
// tracking is best effort and must not surface failures to the visitor.
// The resolved session is returned so the handler can echo the session
// id back to the client.
func (s *TrackingService) RecordPageView(ctx context.Context, req *PageViewRequest, meta analytics.RequestMeta) *analytics.Session {
	marker := s.perfTracker.StartOperation("record_page_view")
	defer marker.Complete()

	if !config.AnalyticsEnabled {
		marker.SetSuccess(true)
		return nil
	}

	session := s.sessionSvc.Resolve(ctx, req.SessionID, meta)

	view := &analytics.PageView{
		ID:         security.GenerateULID(),
		Path:       req.Path,
		Title:      req.Title,
		Referrer:   req.Referrer,
		UserAgent:  session.UserAgent,
		ClientIP:   session.ClientIP,
		SessionID:  session.SessionID,
		TimeSpent:  req.TimeSpent,
		DeviceType: session.DeviceType,
		Browser:    session.Browser,
		OS:         session.OS,
		Country:    req.Country,
		City:       req.City,
		CreatedAt:  time.Now().UTC(),
	}

	acquireDB()
	defer releaseDB()

	opCtx, cancel := context.WithTimeout(ctx, config.DBOperationTimeout)
	defer cancel()

	if err := s.pageViews.Create(opCtx, view); err != nil {
		s.logger.LogError(logging.ChannelAnalytics, "record_page_view", err, map[string]any{
			"path":      req.Path,
			"sessionId": session.SessionID,
		})
		marker.SetError(err)
		return session
	}

	marker.SetSuccess(true)
	s.logger.Analytics().Debug("Page view recorded",
		"pageViewId", view.ID,
		"path", view.Path,
		"sessionId", view.SessionID)
	return session
}

// RecordEvent stores one interaction event and returns its id. Unlike
// page views, event submission reports failures: a missing session id
// is the caller's mistake and storage errors must not be silently lost.
func (s *TrackingService) RecordEvent(ctx context.Context, req *EventRequest) (string, error) {
	marker := s.perfTracker.StartOperation("record_event")
	defer marker.Complete()

	if req.SessionID == "" {
		marker.SetError(analytics.ErrMissingSessionID)
		return "", analytics.ErrMissingSessionID
	}

	event := &analytics.Event{
		ID:        security.GenerateULID(),
		SessionID: req.SessionID,
		EventType: req.EventType,
		EventName: req.EventName,
		PagePath:  req.PagePath,
		ElementID: req.ElementID,
		Metadata:  req.Metadata,
		CreatedAt: time.Now().UTC(),
	}

	acquireDB()
	defer releaseDB()

	opCtx, cancel := context.WithTimeout(ctx, config.DBOperationTimeout)
	defer cancel()

	if err := s.events.Create(opCtx, event); err != nil {
		s.logger.LogError(logging.ChannelAnalytics, "record_event", err, map[string]any{
			"eventType": req.EventType,
			"sessionId": req.SessionID,
		})
		marker.SetError(err)
		return "", err
	}

	marker.SetSuccess(true)
	s.logger.Analytics().Debug("Event recorded",
		"eventId", event.ID,
		"eventType", event.EventType,
		"sessionId", event.SessionID)
	return event.ID, nil
}

// Package services provides application-level orchestration services
package services

import (
	"context"
	"strings"
	"time"

	"github.com/FernworksMedia/sitepulse-go/internal/domain/analytics"
	"github.com/FernworksMedia/sitepulse-go/internal/domain/useragent"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/logging"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/performance"
	"github.com/FernworksMedia/sitepulse-go/pkg/config"
)

// Database semaphore to limit concurrent database operations
var dbSemaphore = make(chan struct{}, config.MaxConcurrentDBOps)

func acquireDB() { dbSemaphore <- struct{}{} }
func releaseDB() { <-dbSemaphore }

// SessionService resolves incoming session ids to session records,
// creating them on first contact and refreshing activity on every
// subsequent page view.
type SessionService struct {
	sessions    analytics.SessionRepository
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewSessionService creates a new session service
func NewSessionService(sessions analytics.SessionRepository, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SessionService {
	return &SessionService{
		sessions:    sessions,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Resolve returns the session for the given id, creating it when it
// does not exist yet. Resolution is best effort: persistence failures
// are logged and an in-memory session is returned so tracking never
// blocks a page load. The returned classification always reflects the
// supplied user agent, even when the database is unreachable.
func (s *SessionService) Resolve(ctx context.Context, sessionID string, meta analytics.RequestMeta) *analytics.Session {
	marker := s.perfTracker.StartOperation("resolve_session")
	defer marker.Complete()

	now := time.Now().UTC()
	userAgent := truncateUserAgent(meta.UserAgent)
	classification := useragent.Classify(userAgent)

	fallback := &analytics.Session{
		SessionID:   sessionID,
		FirstSeen:   now,
		LastSeen:    now,
		ClientIP:    meta.IP,
		UserAgent:   userAgent,
		DeviceType:  classification.DeviceType,
		Browser:     classification.Browser,
		OS:          classification.OS,
		IsReturning: false,
		PageCount:   1,
	}

	acquireDB()
	defer releaseDB()

	opCtx, cancel := context.WithTimeout(ctx, config.DBOperationTimeout)
	defer cancel()

	existing, err := s.sessions.FindBySessionID(opCtx, sessionID)
	if err != nil {
		s.logger.Analytics().Error("Session lookup failed", "error", err.Error(), "sessionId", sessionID)
		marker.SetError(err)
		return fallback
	}

	if existing != nil {
		return s.touchSession(opCtx, existing, now, marker)
	}

	// First contact from this session id. The returning flag is decided
	// once, from whether this client IP has ever held a session before,
	// and never revised afterwards.
	isReturning, err := s.sessions.ExistsByClientIP(opCtx, meta.IP)
	if err != nil {
		s.logger.Analytics().Error("Returning visitor check failed", "error", err.Error(), "sessionId", sessionID)
		isReturning = false
	}
	fallback.IsReturning = isReturning

	created := *fallback
	if err := s.sessions.Create(opCtx, &created); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			// Lost a creation race with a concurrent request for the
			// same session id. The winner's row is authoritative.
			if winner, readErr := s.sessions.FindBySessionID(opCtx, sessionID); readErr == nil && winner != nil {
				return s.touchSession(opCtx, winner, now, marker)
			}
		}
		s.logger.Analytics().Error("Session create failed", "error", err.Error(), "sessionId", sessionID)
		marker.SetError(err)
		return fallback
	}

	marker.SetSuccess(true)
	s.logger.Analytics().Debug("Session created",
		"sessionId", sessionID,
		"deviceType", created.DeviceType,
		"isReturning", created.IsReturning)
	return &created
}

func (s *SessionService) touchSession(ctx context.Context, session *analytics.Session, now time.Time, marker *performance.Marker) *analytics.Session {
	if err := s.sessions.Touch(ctx, session.SessionID, now); err != nil {
		s.logger.Analytics().Error("Session touch failed", "error", err.Error(), "sessionId", session.SessionID)
		marker.SetError(err)
		return session
	}
	session.LastSeen = now
	session.PageCount++
	marker.SetSuccess(true)
	return session
}

func truncateUserAgent(raw string) string {
	if len(raw) > config.MaxUserAgentLength {
		return raw[:config.MaxUserAgentLength]
	}
	return raw
}

package services

import (
	"context"
	"time"

	"github.com/FernworksMedia/sitepulse-go/internal/domain/analytics"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/logging"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/performance"
	"github.com/FernworksMedia/sitepulse-go/pkg/config"
)

// ErasureResult reports how many rows an erasure request removed.
// Consent records are intentionally not part of it.
type ErasureResult struct {
	PageViewsDeleted int64 `json:"pageViewsDeleted"`
	EventsDeleted    int64 `json:"eventsDeleted"`
	SessionsDeleted  int64 `json:"sessionsDeleted"`
}

// Total returns the combined number of deleted rows.
func (r *ErasureResult) Total() int64 {
	return r.PageViewsDeleted + r.EventsDeleted + r.SessionsDeleted
}

// PrivacyService implements the data subject rights: export of all data
// held for a session, and erasure of everything except the consent trail.
type PrivacyService struct {
	sessions    analytics.SessionRepository
	pageViews   analytics.PageViewRepository
	events      analytics.EventRepository
	consents    analytics.ConsentRepository
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewPrivacyService creates a new privacy service
func NewPrivacyService(
	sessions analytics.SessionRepository,
	pageViews analytics.PageViewRepository,
	events analytics.EventRepository,
	consents analytics.ConsentRepository,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *PrivacyService {
	return &PrivacyService{
		sessions:    sessions,
		pageViews:   pageViews,
		events:      events,
		consents:    consents,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Export gathers everything stored for the given session id across all
// four tables. ErrSubjectNotFound is returned only when no table holds
// anything at all for the id; a consent record alone is enough to
// produce an export.
func (s *PrivacyService) Export(ctx context.Context, sessionID string) (*analytics.SubjectData, error) {
	marker := s.perfTracker.StartOperation("privacy_export")
	defer marker.Complete()

	if sessionID == "" {
		marker.SetError(analytics.ErrMissingSessionID)
		return nil, analytics.ErrMissingSessionID
	}

	acquireDB()
	defer releaseDB()

	opCtx, cancel := context.WithTimeout(ctx, config.DBOperationTimeout)
	defer cancel()

	session, err := s.sessions.FindBySessionID(opCtx, sessionID)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	pageViews, err := s.pageViews.FindBySessionID(opCtx, sessionID)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	events, err := s.events.FindBySessionID(opCtx, sessionID)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	consents, err := s.consents.FindBySessionID(opCtx, sessionID)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	if session == nil && len(pageViews) == 0 && len(events) == 0 && len(consents) == 0 {
		marker.SetError(analytics.ErrSubjectNotFound)
		s.logger.LogPrivacyRequest("export", sessionID, 0, analytics.ErrSubjectNotFound)
		return nil, analytics.ErrSubjectNotFound
	}

	data := &analytics.SubjectData{
		SessionID:      sessionID,
		ExportDate:     time.Now().UTC(),
		Session:        session,
		PageViews:      pageViews,
		Events:         events,
		ConsentHistory: consents,
	}

	marker.SetSuccess(true)
	s.logger.LogPrivacyRequest("export", sessionID, len(pageViews)+len(events)+len(consents), nil)
	return data, nil
}

// Erase deletes the session record and its page views and events.
// Consent records are preserved as the audit trail of the decision
// itself. The operation is idempotent: erasing an unknown session id
// succeeds with zero counts.
func (s *PrivacyService) Erase(ctx context.Context, sessionID string) (*ErasureResult, error) {
	marker := s.perfTracker.StartOperation("privacy_erasure")
	defer marker.Complete()

	if sessionID == "" {
		marker.SetError(analytics.ErrMissingSessionID)
		return nil, analytics.ErrMissingSessionID
	}

	acquireDB()
	defer releaseDB()

	opCtx, cancel := context.WithTimeout(ctx, config.DBOperationTimeout)
	defer cancel()

	result := &ErasureResult{}

	var err error
	if result.PageViewsDeleted, err = s.pageViews.DeleteBySessionID(opCtx, sessionID); err != nil {
		marker.SetError(err)
		s.logger.LogPrivacyRequest("erasure", sessionID, 0, err)
		return nil, err
	}
	if result.EventsDeleted, err = s.events.DeleteBySessionID(opCtx, sessionID); err != nil {
		marker.SetError(err)
		s.logger.LogPrivacyRequest("erasure", sessionID, 0, err)
		return nil, err
	}
	if result.SessionsDeleted, err = s.sessions.DeleteBySessionID(opCtx, sessionID); err != nil {
		marker.SetError(err)
		s.logger.LogPrivacyRequest("erasure", sessionID, 0, err)
		return nil, err
	}

	marker.SetSuccess(true)
	s.logger.LogPrivacyRequest("erasure", sessionID, int(result.Total()), nil)
	return result, nil
}

package services

import (
	"context"
	"time"

	"github.com/FernworksMedia/sitepulse-go/internal/domain/analytics"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/logging"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/security"
	"github.com/FernworksMedia/sitepulse-go/pkg/config"
)

// ConsentRequest carries a visitor's cookie consent decision.
type ConsentRequest struct {
	SessionID   string   `json:"sessionId"`
	ConsentType string   `json:"consentType,omitempty"`
	Categories  []string `json:"categories,omitempty"`
}

// Defaults applied when a consent submission omits the decision details.
var defaultConsentCategories = []string{"necessary", "analytics"}

const defaultConsentType = "accepted"

// ConsentService records cookie consent decisions. Unlike page view
// tracking, consent recording propagates failures: a consent decision
// that silently fails to persist is worse than an error.
type ConsentService struct {
	consents analytics.ConsentRepository
	logger   *logging.ChanneledLogger
}

// NewConsentService creates a new consent service
func NewConsentService(consents analytics.ConsentRepository, logger *logging.ChanneledLogger) *ConsentService {
	return &ConsentService{
		consents: consents,
		logger:   logger,
	}
}

// RecordConsent persists a consent decision and returns the stored
// entry. Missing type and categories fall back to the accept-defaults
// the consent banner submits.
func (s *ConsentService) RecordConsent(ctx context.Context, req *ConsentRequest, meta analytics.RequestMeta) (*analytics.ConsentLog, error) {
	if req.SessionID == "" {
		return nil, analytics.ErrMissingSessionID
	}

	consentType := req.ConsentType
	if consentType == "" {
		consentType = defaultConsentType
	}
	categories := req.Categories
	if len(categories) == 0 {
		categories = defaultConsentCategories
	}

	entry := &analytics.ConsentLog{
		ID:          security.GenerateULID(),
		SessionID:   req.SessionID,
		ClientIP:    meta.IP,
		UserAgent:   truncateUserAgent(meta.UserAgent),
		ConsentType: consentType,
		Categories:  categories,
		CreatedAt:   time.Now().UTC(),
	}

	acquireDB()
	defer releaseDB()

	opCtx, cancel := context.WithTimeout(ctx, config.DBOperationTimeout)
	defer cancel()

	if err := s.consents.Create(opCtx, entry); err != nil {
		s.logger.Privacy().Error("Consent record failed",
			"error", err.Error(),
			"sessionId", req.SessionID,
			"consentType", consentType)
		return nil, err
	}

	s.logger.Privacy().Info("Consent recorded",
		"consentId", entry.ID,
		"consentType", entry.ConsentType,
		"categories", entry.Categories)
	return entry, nil
}

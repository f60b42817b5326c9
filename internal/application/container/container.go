// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/FernworksMedia/sitepulse-go/internal/application/services"
	"github.com/FernworksMedia/sitepulse-go/internal/domain/analytics"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/logging"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/performance"
	persistence "github.com/FernworksMedia/sitepulse-go/internal/infrastructure/persistence/analytics"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/persistence/database"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application services (stateless singletons)
	SessionService  *services.SessionService
	TrackingService *services.TrackingService
	SummaryService  *services.SummaryService
	PrivacyService  *services.PrivacyService
	ConsentService  *services.ConsentService

	// Repositories
	SessionRepo  analytics.SessionRepository
	PageViewRepo analytics.PageViewRepository
	EventRepo    analytics.EventRepository
	ConsentRepo  analytics.ConsentRepository

	// Infrastructure
	DB          *database.DB
	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker
}

// NewContainer creates and wires all singleton services
func NewContainer(db *database.DB, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *Container {
	sessionRepo := persistence.NewSQLSessionRepository(db, logger)
	pageViewRepo := persistence.NewSQLPageViewRepository(db, logger)
	eventRepo := persistence.NewSQLEventRepository(db, logger)
	consentRepo := persistence.NewSQLConsentRepository(db, logger)

	sessionService := services.NewSessionService(sessionRepo, logger, perfTracker)

	return &Container{
		SessionService:  sessionService,
		TrackingService: services.NewTrackingService(sessionService, pageViewRepo, eventRepo, logger, perfTracker),
		SummaryService:  services.NewSummaryService(sessionRepo, pageViewRepo, eventRepo, logger, perfTracker),
		PrivacyService:  services.NewPrivacyService(sessionRepo, pageViewRepo, eventRepo, consentRepo, logger, perfTracker),
		ConsentService:  services.NewConsentService(consentRepo, logger),

		SessionRepo:  sessionRepo,
		PageViewRepo: pageViewRepo,
		EventRepo:    eventRepo,
		ConsentRepo:  consentRepo,

		DB:          db,
		Logger:      logger,
		PerfTracker: perfTracker,
	}
}

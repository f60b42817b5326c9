package services

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/database"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/logging"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/performance"
	persistence "github.com/FernworksMedia/sitepulse-go/internal/infrastructure/persistence/analytics"
	dbpkg "github.com/FernworksMedia/sitepulse-go/internal/infrastructure/persistence/database"
)

// testEnv wires the full service stack against a throwaway SQLite file.
type testEnv struct {
	db *dbpkg.DB

	sessions  *persistence.SQLSessionRepository
	pageViews *persistence.SQLPageViewRepository
	events    *persistence.SQLEventRepository
	consents  *persistence.SQLConsentRepository

	sessionSvc  *SessionService
	trackingSvc *TrackingService
	summarySvc  *SummaryService
	privacySvc  *PrivacyService
	consentSvc  *ConsentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := dbpkg.NewConnection("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewTableCreator().CreateSchema(db.DB))

	logger := newTestLogger(t)
	tracker := performance.NewTracker(performance.DefaultTrackerConfig())

	env := &testEnv{
		db:        db,
		sessions:  persistence.NewSQLSessionRepository(db, logger),
		pageViews: persistence.NewSQLPageViewRepository(db, logger),
		events:    persistence.NewSQLEventRepository(db, logger),
		consents:  persistence.NewSQLConsentRepository(db, logger),
	}

	env.sessionSvc = NewSessionService(env.sessions, logger, tracker)
	env.trackingSvc = NewTrackingService(env.sessionSvc, env.pageViews, env.events, logger, tracker)
	env.summarySvc = NewSummaryService(env.sessions, env.pageViews, env.events, logger, tracker)
	env.privacySvc = NewPrivacyService(env.sessions, env.pageViews, env.events, env.consents, logger, tracker)
	env.consentSvc = NewConsentService(env.consents, logger)

	return env
}

func newTestLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()

	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    false,
		OutputToConsole: false,
		DefaultLevel:    slog.LevelError,
	})
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })

	return logger
}

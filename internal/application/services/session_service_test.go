package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FernworksMedia/sitepulse-go/internal/domain/analytics"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/performance"
)

const testUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestResolveCreatesNewSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session := env.sessionSvc.Resolve(ctx, "sess-abc", analytics.RequestMeta{
		IP:        "203.0.113.10",
		UserAgent: testUserAgent,
	})

	require.NotNil(t, session)
	assert.Equal(t, "sess-abc", session.SessionID)
	assert.Equal(t, "desktop", session.DeviceType)
	assert.Equal(t, "Chrome 120.0.0.0", session.Browser)
	assert.Equal(t, "Windows 10", session.OS)
	assert.False(t, session.IsReturning)
	assert.Equal(t, 1, session.PageCount)

	stored, err := env.sessions.FindBySessionID(ctx, "sess-abc")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "203.0.113.10", stored.ClientIP)
}

func TestResolveTouchesExistingSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	meta := analytics.RequestMeta{IP: "203.0.113.10", UserAgent: testUserAgent}

	first := env.sessionSvc.Resolve(ctx, "sess-abc", meta)
	second := env.sessionSvc.Resolve(ctx, "sess-abc", meta)

	assert.Equal(t, 2, second.PageCount)
	assert.WithinDuration(t, first.FirstSeen, second.FirstSeen, time.Second)

	stored, err := env.sessions.FindBySessionID(ctx, "sess-abc")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 2, stored.PageCount)
}

func TestResolveReturningVisitorByClientIP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.sessionSvc.Resolve(ctx, "sess-one", analytics.RequestMeta{IP: "203.0.113.10", UserAgent: testUserAgent})
	assert.False(t, first.IsReturning)

	// A fresh session id from an IP already on file marks a returning
	// visitor.
	second := env.sessionSvc.Resolve(ctx, "sess-two", analytics.RequestMeta{IP: "203.0.113.10", UserAgent: testUserAgent})
	assert.True(t, second.IsReturning)

	third := env.sessionSvc.Resolve(ctx, "sess-three", analytics.RequestMeta{IP: "198.51.100.7", UserAgent: testUserAgent})
	assert.False(t, third.IsReturning)
}

func TestResolveReturningFlagIsFrozenAtCreation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.sessionSvc.Resolve(ctx, "sess-one", analytics.RequestMeta{IP: "203.0.113.10", UserAgent: testUserAgent})
	env.sessionSvc.Resolve(ctx, "sess-two", analytics.RequestMeta{IP: "203.0.113.10", UserAgent: testUserAgent})

	// Revisiting the first session must not retroactively flip its flag.
	again := env.sessionSvc.Resolve(ctx, "sess-one", analytics.RequestMeta{IP: "203.0.113.10", UserAgent: testUserAgent})
	assert.False(t, again.IsReturning)
}

// racingSessionRepository simulates losing an insert race: the first
// lookup misses, Create fails with the driver's UNIQUE violation, and
// the re-read returns the row the concurrent winner inserted.
type racingSessionRepository struct {
	winner  *analytics.Session
	lookups int
	touched bool
}

func (r *racingSessionRepository) FindBySessionID(ctx context.Context, sessionID string) (*analytics.Session, error) {
	r.lookups++
	if r.lookups == 1 {
		return nil, nil
	}
	return r.winner, nil
}

func (r *racingSessionRepository) ExistsByClientIP(ctx context.Context, clientIP string) (bool, error) {
	return false, nil
}

func (r *racingSessionRepository) Create(ctx context.Context, session *analytics.Session) error {
	return errors.New("UNIQUE constraint failed: sessions.session_id")
}

func (r *racingSessionRepository) Touch(ctx context.Context, sessionID string, lastSeen time.Time) error {
	r.touched = true
	return nil
}

func (r *racingSessionRepository) CountByFirstSeen(ctx context.Context, cutoff time.Time, returning bool) (int, error) {
	return 0, nil
}

func (r *racingSessionRepository) AvgPageCount(ctx context.Context, cutoff time.Time) (float64, error) {
	return 0, nil
}

func (r *racingSessionRepository) DeleteBySessionID(ctx context.Context, sessionID string) (int64, error) {
	return 0, nil
}

func TestResolveLostCreationRaceFallsBackToWinner(t *testing.T) {
	firstSeen := time.Now().UTC().Add(-time.Minute)
	repo := &racingSessionRepository{
		winner: &analytics.Session{
			SessionID: "sess-abc",
			FirstSeen: firstSeen,
			LastSeen:  firstSeen,
			ClientIP:  "203.0.113.10",
			PageCount: 1,
		},
	}
	svc := NewSessionService(repo, newTestLogger(t), performance.NewTracker(nil))

	session := svc.Resolve(context.Background(), "sess-abc", analytics.RequestMeta{
		IP:        "203.0.113.10",
		UserAgent: testUserAgent,
	})

	// The winner's row is authoritative: it is re-read and touched
	// instead of the constraint violation surfacing.
	require.NotNil(t, session)
	assert.True(t, repo.touched)
	assert.Equal(t, 2, repo.lookups)
	assert.Equal(t, 2, session.PageCount)
	assert.Equal(t, firstSeen, session.FirstSeen)
}

func TestResolveTruncatesOversizedUserAgent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	long := testUserAgent
	for len(long) <= 300 {
		long += " padding-token/1.0"
	}

	session := env.sessionSvc.Resolve(ctx, "sess-long", analytics.RequestMeta{IP: "203.0.113.10", UserAgent: long})

	assert.LessOrEqual(t, len(session.UserAgent), 300)

	stored, err := env.sessions.FindBySessionID(ctx, "sess-long")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.LessOrEqual(t, len(stored.UserAgent), 300)
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FernworksMedia/sitepulse-go/internal/domain/analytics"
)

func seedSubject(t *testing.T, env *testEnv, sessionID, ip string) {
	t.Helper()
	ctx := context.Background()
	meta := analytics.RequestMeta{IP: ip, UserAgent: testUserAgent}

	env.trackingSvc.RecordPageView(ctx, &PageViewRequest{SessionID: sessionID, Path: "/"}, meta)
	env.trackingSvc.RecordPageView(ctx, &PageViewRequest{SessionID: sessionID, Path: "/pricing"}, meta)

	_, err := env.trackingSvc.RecordEvent(ctx, &EventRequest{SessionID: sessionID, EventType: "click"})
	require.NoError(t, err)

	_, err = env.consentSvc.RecordConsent(ctx, &ConsentRequest{SessionID: sessionID}, meta)
	require.NoError(t, err)
}

func TestExportUnknownSession(t *testing.T) {
	env := newTestEnv(t)

	data, err := env.privacySvc.Export(context.Background(), "never-seen")

	assert.ErrorIs(t, err, analytics.ErrSubjectNotFound)
	assert.Nil(t, data)
}

func TestExportRequiresSessionID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.privacySvc.Export(context.Background(), "")
	assert.ErrorIs(t, err, analytics.ErrMissingSessionID)
}

func TestExportGathersAllTables(t *testing.T) {
	env := newTestEnv(t)
	seedSubject(t, env, "sess-abc", "203.0.113.10")

	data, err := env.privacySvc.Export(context.Background(), "sess-abc")
	require.NoError(t, err)

	assert.Equal(t, "sess-abc", data.SessionID)
	assert.False(t, data.ExportDate.IsZero())
	require.NotNil(t, data.Session)
	assert.Equal(t, 2, data.Session.PageCount)
	assert.Len(t, data.PageViews, 2)
	assert.Len(t, data.Events, 1)
	assert.Len(t, data.ConsentHistory, 1)
}

func TestExportDoesNotLeakOtherSessions(t *testing.T) {
	env := newTestEnv(t)
	seedSubject(t, env, "sess-abc", "203.0.113.10")
	seedSubject(t, env, "sess-xyz", "198.51.100.7")

	data, err := env.privacySvc.Export(context.Background(), "sess-abc")
	require.NoError(t, err)

	for _, view := range data.PageViews {
		assert.Equal(t, "sess-abc", view.SessionID)
	}
	for _, event := range data.Events {
		assert.Equal(t, "sess-abc", event.SessionID)
	}
}

func TestEraseRemovesDataButKeepsConsent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedSubject(t, env, "sess-abc", "203.0.113.10")

	result, err := env.privacySvc.Erase(ctx, "sess-abc")
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.PageViewsDeleted)
	assert.Equal(t, int64(1), result.EventsDeleted)
	assert.Equal(t, int64(1), result.SessionsDeleted)
	assert.Equal(t, int64(4), result.Total())

	// The consent trail survives. An export afterwards still succeeds,
	// holding only the consent history.
	data, err := env.privacySvc.Export(ctx, "sess-abc")
	require.NoError(t, err)
	assert.Nil(t, data.Session)
	assert.Empty(t, data.PageViews)
	assert.Empty(t, data.Events)
	assert.Len(t, data.ConsentHistory, 1)
}

func TestEraseIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedSubject(t, env, "sess-abc", "203.0.113.10")

	_, err := env.privacySvc.Erase(ctx, "sess-abc")
	require.NoError(t, err)

	again, err := env.privacySvc.Erase(ctx, "sess-abc")
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.Total())
}

func TestEraseUnknownSessionSucceedsWithZeroCounts(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.privacySvc.Erase(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Total())
}

func TestEraseDoesNotTouchOtherSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedSubject(t, env, "sess-abc", "203.0.113.10")
	seedSubject(t, env, "sess-xyz", "198.51.100.7")

	_, err := env.privacySvc.Erase(ctx, "sess-abc")
	require.NoError(t, err)

	data, err := env.privacySvc.Export(ctx, "sess-xyz")
	require.NoError(t, err)
	require.NotNil(t, data.Session)
	assert.Len(t, data.PageViews, 2)
}

package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FernworksMedia/sitepulse-go/internal/domain/analytics"
)

func TestRecordPageViewStoresView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	meta := analytics.RequestMeta{IP: "203.0.113.10", UserAgent: testUserAgent}

	session := env.trackingSvc.RecordPageView(ctx, &PageViewRequest{
		SessionID: "sess-abc",
		Path:      "/blog/first-post",
		Title:     "First Post",
		Referrer:  "https://news.ycombinator.com/",
		TimeSpent: 42,
	}, meta)

	require.NotNil(t, session)

	views, err := env.pageViews.FindBySessionID(ctx, "sess-abc")
	require.NoError(t, err)
	require.Len(t, views, 1)

	view := views[0]
	assert.Equal(t, "/blog/first-post", view.Path)
	assert.Equal(t, "First Post", view.Title)
	assert.Equal(t, "https://news.ycombinator.com/", view.Referrer)
	assert.Equal(t, 42, view.TimeSpent)
	assert.NotEmpty(t, view.ID)

	// Classification is denormalized onto the page view row.
	assert.Equal(t, "desktop", view.DeviceType)
	assert.Equal(t, "Chrome 120.0.0.0", view.Browser)
}

func TestRecordPageViewResolvesSessionOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	meta := analytics.RequestMeta{IP: "203.0.113.10", UserAgent: testUserAgent}

	env.trackingSvc.RecordPageView(ctx, &PageViewRequest{SessionID: "sess-abc", Path: "/"}, meta)
	env.trackingSvc.RecordPageView(ctx, &PageViewRequest{SessionID: "sess-abc", Path: "/about"}, meta)

	stored, err := env.sessions.FindBySessionID(ctx, "sess-abc")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 2, stored.PageCount)

	views, err := env.pageViews.FindBySessionID(ctx, "sess-abc")
	require.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestRecordEventRequiresSessionID(t *testing.T) {
	env := newTestEnv(t)

	eventID, err := env.trackingSvc.RecordEvent(context.Background(), &EventRequest{
		EventType: "click",
		EventName: "signup-button",
	})

	assert.ErrorIs(t, err, analytics.ErrMissingSessionID)
	assert.Empty(t, eventID)
}

func TestRecordEventStoresEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	eventID, err := env.trackingSvc.RecordEvent(ctx, &EventRequest{
		SessionID: "sess-abc",
		EventType: "click",
		EventName: "signup-button",
		PagePath:  "/pricing",
		ElementID: "cta-main",
		Metadata:  json.RawMessage(`{"plan":"pro"}`),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, eventID)

	events, err := env.events.FindBySessionID(ctx, "sess-abc")
	require.NoError(t, err)
	require.Len(t, events, 1)

	event := events[0]
	assert.Equal(t, eventID, event.ID)
	assert.Equal(t, "click", event.EventType)
	assert.Equal(t, "signup-button", event.EventName)
	assert.Equal(t, "/pricing", event.PagePath)
	assert.Equal(t, "cta-main", event.ElementID)
	assert.JSONEq(t, `{"plan":"pro"}`, string(event.Metadata))
}

func TestRecordEventDoesNotRequireExistingSession(t *testing.T) {
	// Events reference a session id without validating it against the
	// sessions table; orphaned ids still count.
	env := newTestEnv(t)

	eventID, err := env.trackingSvc.RecordEvent(context.Background(), &EventRequest{
		SessionID: "never-seen",
		EventType: "scroll",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, eventID)
}

package handlers_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FernworksMedia/sitepulse-go/internal/application/container"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/database"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/logging"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/performance"
	dbpkg "github.com/FernworksMedia/sitepulse-go/internal/infrastructure/persistence/database"
	"github.com/FernworksMedia/sitepulse-go/internal/presentation/http/routes"
)

const testUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := dbpkg.NewConnection("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewTableCreator().CreateSchema(db.DB))

	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    false,
		OutputToConsole: false,
		DefaultLevel:    slog.LevelError,
	})
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })

	tracker := performance.NewTracker(performance.DefaultTrackerConfig())

	return routes.SetupRoutes(container.NewContainer(db, logger, tracker))
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", testUA)
	req.RemoteAddr = "203.0.113.10:51234"

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestPostVisitEchoesSessionID(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/analytics/visit", gin.H{
		"sessionId": "sess-abc",
		"path":      "/",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "sess-abc", body["sessionId"])
}

func TestPostVisitMintsSessionID(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/analytics/visit", gin.H{
		"path": "/",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["sessionId"])
}

func TestPostVisitToleratesGarbage(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/visit", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPostEventWithoutSession(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/analytics/event", gin.H{
		"eventType": "click",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostEventCreated(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/analytics/event", gin.H{
		"sessionId": "sess-abc",
		"eventType": "click",
		"eventName": "signup-button",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["eventId"])
	assert.Equal(t, "recorded", body["status"])
}

func TestGetSummary(t *testing.T) {
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/v1/analytics/visit", gin.H{"sessionId": "sess-abc", "path": "/"})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/analytics/summary?days=7", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["totalViews"])
	assert.Equal(t, float64(1), body["uniqueSessions"])
}

func TestGetDailyTraffic(t *testing.T) {
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/v1/analytics/visit", gin.H{"sessionId": "sess-abc", "path": "/"})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/analytics/daily", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(30), body["days"])
	assert.Len(t, body["daily"], 1)
}

func TestPostConsent(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/consent", gin.H{
		"sessionId": "sess-abc",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "accepted", body["consentType"])
}

func TestDownloadMyDataUnknownSession(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/my-data/download?sessionId=never-seen", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadMyData(t *testing.T) {
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/v1/analytics/visit", gin.H{"sessionId": "sess-abcdefgh", "path": "/"})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/my-data/download?sessionId=sess-abcdefgh", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=my_data_sess-abc.json", rec.Header().Get("Content-Disposition"))

	body := decodeBody(t, rec)
	assert.Equal(t, "sess-abcdefgh", body["sessionId"])
}

func TestDeleteMyData(t *testing.T) {
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/v1/analytics/visit", gin.H{"sessionId": "sess-abc", "path": "/"})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/my-data/delete", gin.H{
		"sessionId": "sess-abc",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "deleted", body["status"])
	assert.Equal(t, float64(2), body["total"]) // one page view + one session row
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/v1/analytics/visit", gin.H{"sessionId": "sess-abc", "path": "/"})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["uptime"])

	operations, ok := body["operations"].(map[string]any)
	require.True(t, ok)
	pageViewStats, ok := operations["record_page_view"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), pageViewStats["count"])
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "connected", body["database"])
}

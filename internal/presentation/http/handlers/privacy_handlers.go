package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/FernworksMedia/sitepulse-go/internal/application/services"
	"github.com/FernworksMedia/sitepulse-go/internal/domain/analytics"
	"github.com/FernworksMedia/sitepulse-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// PrivacyHandlers contains the data subject rights HTTP handlers:
// consent recording, export download, and erasure.
type PrivacyHandlers struct {
	privacyService *services.PrivacyService
	consentService *services.ConsentService
	logger         *logging.ChanneledLogger
}

// ErasureRequest identifies the session whose data should be removed.
type ErasureRequest struct {
	SessionID string `json:"sessionId"`
}

// NewPrivacyHandlers creates privacy handlers with injected dependencies
func NewPrivacyHandlers(privacyService *services.PrivacyService, consentService *services.ConsentService, logger *logging.ChanneledLogger) *PrivacyHandlers {
	return &PrivacyHandlers{
		privacyService: privacyService,
		consentService: consentService,
		logger:         logger,
	}
}

// PostConsent handles POST /api/v1/consent
func (h *PrivacyHandlers) PostConsent(c *gin.Context) {
	var req services.ConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.SessionID == "" {
		req.SessionID = c.GetHeader(SessionIDHeader)
	}

	entry, err := h.consentService.RecordConsent(c.Request.Context(), &req, requestMeta(c))
	if err != nil {
		if errors.Is(err, analytics.ErrMissingSessionID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session id is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record consent"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"consentId":   entry.ID,
		"consentType": entry.ConsentType,
		"categories":  entry.Categories,
	})
}

// DownloadMyData handles GET /api/v1/my-data/download. The export is
// served as a JSON attachment named after the session id prefix.
func (h *PrivacyHandlers) DownloadMyData(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		sessionID = c.GetHeader(SessionIDHeader)
	}
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session id is required"})
		return
	}

	data, err := h.privacyService.Export(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, analytics.ErrSubjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no data found for this session"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export data"})
		return
	}

	filename := fmt.Sprintf("my_data_%s.json", sessionIDPrefix(sessionID))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.JSON(http.StatusOK, data)
}

// DeleteMyData handles POST /api/v1/my-data/delete. Erasure is
// idempotent and leaves the consent trail intact.
func (h *PrivacyHandlers) DeleteMyData(c *gin.Context) {
	var req ErasureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = c.GetHeader(SessionIDHeader)
	}
	if req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session id is required"})
		return
	}

	result, err := h.privacyService.Erase(c.Request.Context(), req.SessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "deleted",
		"deleted": result,
		"total":   result.Total(),
	})
}

func sessionIDPrefix(sessionID string) string {
	if len(sessionID) > 8 {
		return sessionID[:8]
	}
	return sessionID
}

package handler

import (
	"net/http"
	"time"

	"linguamatch/backend/internal/models"
	"linguamatch/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

type searchBody struct {
	Criteria models.Criteria `json:"criteria"`
}

// StartSearch validates a partner-search request and publishes it to the
// matcher's stream. Malformed requests die here; the matcher assumes
// well-formed input.
func (h *Handler) StartSearch(c *gin.Context) {
	anonID, ok := h.anonIDFromRequest(c)
	if !ok {
		return
	}

	var body searchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !body.Criteria.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid search criteria"})
		return
	}

	user, err := h.Storage.GetUserByID(anonID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Unknown user; register through the bot first"})
		return
	}

	now := time.Now()
	req := &models.MatchRequest{
		UserID:      user.ID,
		Username:    user.Username,
		Gender:      user.Gender,
		LangCode:    user.LangCode,
		Criteria:    body.Criteria,
		Status:      models.SearchStarted,
		CreatedAt:   now,
		CurrentTime: now,
	}
	if err := h.Publisher.Publish(req); err != nil {
		logger.Error("Failed to publish search request", "user_id", user.ID, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Matching temporarily unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": string(models.SearchStarted)})
}

// CancelSearch publishes a terminal cancel signal for the caller's search.
func (h *Handler) CancelSearch(c *gin.Context) {
	anonID, ok := h.anonIDFromRequest(c)
	if !ok {
		return
	}

	now := time.Now()
	req := &models.MatchRequest{
		UserID:      anonID,
		Status:      models.SearchCanceled,
		CreatedAt:   now,
		CurrentTime: now,
	}
	if err := h.Publisher.Publish(req); err != nil {
		logger.Error("Failed to publish cancel request", "user_id", anonID, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Matching temporarily unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": string(models.SearchCanceled)})
}

// QueueInfo reports the current wait-queue length for display purposes.
func (h *Handler) QueueInfo(c *gin.Context) {
	size, err := h.Storage.QueueSize()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read queue"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue_size": size})
}

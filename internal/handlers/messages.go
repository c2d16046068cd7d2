package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voisoc/backend/internal/chat"
	"github.com/voisoc/backend/internal/database"
	apperrors "github.com/voisoc/backend/internal/errors"
	"github.com/voisoc/backend/internal/logger"
	"github.com/voisoc/backend/internal/models"
	"go.uber.org/zap"
)

// SendMessage sends a direct message over REST. Delivery goes through
// the same messaging core as the WebSocket path, so an online recipient
// still gets the real-time push.
// POST /api/v1/messages
func (h *Handlers) SendMessage(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		RecipientID string               `json:"recipient_id" binding:"required"`
		Text        string               `json:"text" binding:"required"`
		Media       *models.MessageMedia `json:"media,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var recipient models.User
	if err := database.DB.First(&recipient, "id = ?", req.RecipientID).Error; err != nil {
		respondError(c, apperrors.NotFound("recipient"))
		return
	}

	message, err := h.chat.Send(c.Request.Context(), userID, req.RecipientID, req.Text, req.Media)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyText) || errors.Is(err, chat.ErrMissingRecipient) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Log.Error("message send failed", logger.WithUserID(userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// GetConversation returns the full message history between the
// authenticated user and another user, oldest first. An optional
// ?limit= trims to the most recent N messages.
// GET /api/v1/messages/:userID
func (h *Handlers) GetConversation(c *gin.Context) {
	userID := c.GetString("user_id")
	withUserID := c.Param("userID")

	messages, err := h.chat.History(c.Request.Context(), userID, withUserID)
	if err != nil {
		logger.Log.Error("conversation load failed", logger.WithUserID(userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return
	}

	if limit := parseInt(c.Query("limit"), 0); limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	c.JSON(http.StatusOK, gin.H{
		"with_user_id": withUserID,
		"messages":     messages,
		"count":        len(messages),
	})
}

// GetConversationPartners lists the users this user has messaged with,
// most recent conversation first
// GET /api/v1/messages
func (h *Handlers) GetConversationPartners(c *gin.Context) {
	userID := c.GetString("user_id")

	// Latest message per partner, either direction
	var partnerIDs []string
	err := database.DB.Model(&models.Message{}).
		Select("CASE WHEN sender_id = ? THEN recipient_id ELSE sender_id END AS partner_id", userID).
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Group("partner_id").
		Order("MAX(created_at) DESC").
		Pluck("partner_id", &partnerIDs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	var users []models.User
	if len(partnerIDs) > 0 {
		if err := database.DB.Where("id IN ?", partnerIDs).Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
			return
		}
	}

	byID := make(map[string]*models.PublicProfile, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].PublicProfile()
	}

	// Preserve recency ordering from the message query
	partners := make([]gin.H, 0, len(partnerIDs))
	for _, id := range partnerIDs {
		profile, ok := byID[id]
		if !ok {
			continue
		}
		partners = append(partners, gin.H{
			"user":      profile,
			"is_online": h.chat.Presence().IsOnline(id),
		})
	}

	c.JSON(http.StatusOK, gin.H{"conversations": partners})
}

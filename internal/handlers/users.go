package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/voisoc/backend/internal/database"
	apperrors "github.com/voisoc/backend/internal/errors"
	"github.com/voisoc/backend/internal/logger"
	"github.com/voisoc/backend/internal/metrics"
	"github.com/voisoc/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GetUserProfile gets a user's public profile by ID
// GET /api/v1/users/:id
func (h *Handlers) GetUserProfile(c *gin.Context) {
	targetUserID := c.Param("id")

	var user models.User
	if err := database.DB.First(&user, "id = ?", targetUserID).Error; err != nil {
		respondError(c, apperrors.NotFound("user"))
		return
	}

	profile := user.PublicProfile()

	// Tell the caller whether they already follow this profile
	currentUserID := c.GetString("user_id")
	isFollowing := false
	if currentUserID != "" && currentUserID != user.ID {
		var count int64
		database.DB.Model(&models.Follow{}).
			Where("follower_id = ? AND followee_id = ?", currentUserID, user.ID).
			Count(&count)
		isFollowing = count > 0
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         profile,
		"is_following": isFollowing,
	})
}

// UpdateProfile updates the authenticated user's profile fields. Only
// provided fields change; identity fields (email, username) do not move
// through this endpoint.
// PUT /api/v1/users/me
func (h *Handlers) UpdateProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		FirstName   *string             `json:"first_name,omitempty"`
		MiddleName  *string             `json:"middle_name,omitempty"`
		LastName    *string             `json:"last_name,omitempty"`
		Country     *string             `json:"country,omitempty"`
		Headline    *string             `json:"headline,omitempty"`
		About       *string             `json:"about,omitempty"`
		Location    *string             `json:"location,omitempty"`
		Website     *string             `json:"website,omitempty"`
		Interests   *[]string           `json:"interests,omitempty"`
		SocialLinks *models.SocialLinks `json:"social_links,omitempty"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	// Apply onto the loaded struct and Save so serialized fields
	// (social_links, interests) go through their encoders
	changed := false
	if req.FirstName != nil {
		if strings.TrimSpace(*req.FirstName) == "" {
			respondError(c, apperrors.ValidationError("first_name", "first_name cannot be empty"))
			return
		}
		user.FirstName = strings.TrimSpace(*req.FirstName)
		changed = true
	}
	if req.MiddleName != nil {
		user.MiddleName = strings.TrimSpace(*req.MiddleName)
		changed = true
	}
	if req.LastName != nil {
		if strings.TrimSpace(*req.LastName) == "" {
			respondError(c, apperrors.ValidationError("last_name", "last_name cannot be empty"))
			return
		}
		user.LastName = strings.TrimSpace(*req.LastName)
		changed = true
	}
	if req.Country != nil {
		user.Country = strings.TrimSpace(*req.Country)
		changed = true
	}
	if req.Headline != nil {
		user.Headline = *req.Headline
		changed = true
	}
	if req.About != nil {
		user.About = *req.About
		changed = true
	}
	if req.Location != nil {
		user.Location = *req.Location
		changed = true
	}
	if req.Website != nil {
		user.Website = *req.Website
		changed = true
	}
	if req.Interests != nil {
		user.Interests = models.StringArray(*req.Interests)
		changed = true
	}
	if req.SocialLinks != nil {
		user.SocialLinks = req.SocialLinks
		changed = true
	}

	if !changed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	if err := database.DB.Save(&user).Error; err != nil {
		logger.Log.Error("profile update failed", logger.WithUserID(userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ListUsers returns a paginated directory of users, newest first.
// Supports ?q= substring search over username and names.
// GET /api/v1/users
func (h *Handlers) ListUsers(c *gin.Context) {
	limit := parseInt(c.Query("limit"), 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := parseInt(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	query := database.DB.Model(&models.User{})

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where(
			"LOWER(username) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			pattern, pattern, pattern,
		)
		metrics.App().UserSearchesTotal.Inc()
	}

	var total int64
	query.Count(&total)

	var users []models.User
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}

	profiles := make([]*models.PublicProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].PublicProfile())
	}

	c.JSON(http.StatusOK, gin.H{
		"users":  profiles,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// UploadAvatar replaces the authenticated user's profile picture
// POST /api/v1/users/me/avatar
func (h *Handlers) UploadAvatar(c *gin.Context) {
	userID := c.GetString("user_id")

	if h.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "media uploads are not configured"})
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
		return
	}
	defer file.Close()

	result, err := h.uploader.UploadAvatar(c.Request.Context(), file, header, userID)
	if err != nil {
		logger.Log.Error("avatar upload failed", logger.WithUserID(userID), zap.Error(err))
		respondError(c, apperrors.BadRequest("avatar upload failed").WithDetails(err.Error()))
		return
	}

	if err := database.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Update("avatar_url", result.URL).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save avatar"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "uploaded",
		"avatar_url": result.URL,
		"size":       result.Size,
	})
}

// DeleteAccount deletes the authenticated user's account along with
// their posts, conversations, and follow edges
// DELETE /api/v1/users/me
func (h *Handlers) DeleteAccount(c *gin.Context) {
	userID := c.GetString("user_id")

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		return deleteUserCascade(tx, userID)
	})
	if err != nil {
		logger.Log.Error("account deletion failed", logger.WithUserID(userID), zap.Error(err))
		respondError(c, apperrors.InternalError("failed to delete account"))
		return
	}

	logger.Log.Info("account deleted", logger.WithUserID(userID))
	c.JSON(http.StatusOK, gin.H{
		"status":     "deleted",
		"deleted_at": time.Now().UTC(),
	})
}

// AdminDeleteUser lets an administrator remove any account, cascading
// the same way self-deletion does
// DELETE /api/v1/users/:id
func (h *Handlers) AdminDeleteUser(c *gin.Context) {
	if !c.GetBool("is_admin") {
		respondError(c, apperrors.Forbidden("admin access required"))
		return
	}

	targetUserID := c.Param("id")
	var target models.User
	if err := database.DB.First(&target, "id = ?", targetUserID).Error; err != nil {
		respondError(c, apperrors.NotFound("user"))
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		return deleteUserCascade(tx, targetUserID)
	})
	if err != nil {
		logger.Log.Error("admin user deletion failed", logger.WithUserID(targetUserID), zap.Error(err))
		respondError(c, apperrors.InternalError("failed to delete user"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "deleted",
		"user_id": targetUserID,
	})
}

// PurgeUsers removes every non-admin account. Admin only; this is the
// nuclear cleanup surface for staging environments.
// DELETE /api/v1/users
func (h *Handlers) PurgeUsers(c *gin.Context) {
	if !c.GetBool("is_admin") {
		respondError(c, apperrors.Forbidden("admin access required"))
		return
	}

	var userIDs []string
	if err := database.DB.Model(&models.User{}).
		Where("is_admin = ?", false).
		Pluck("id", &userIDs).Error; err != nil {
		respondError(c, apperrors.InternalError("failed to list users"))
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		for _, id := range userIDs {
			if err := deleteUserCascade(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Log.Error("user purge failed", zap.Error(err))
		respondError(c, apperrors.InternalError("failed to purge users"))
		return
	}

	logger.Log.Warn("purged all non-admin accounts", zap.Int("count", len(userIDs)))
	c.JSON(http.StatusOK, gin.H{
		"status": "purged",
		"count":  len(userIDs),
	})
}

// deleteUserCascade removes an account and everything it owns: posts,
// conversations, follow edges, sessions, and reset tokens. Cached
// counters on the other side of each follow edge move with it.
func deleteUserCascade(tx *gorm.DB, userID string) error {
	if err := tx.Where("user_id = ?", userID).Delete(&models.Post{}).Error; err != nil {
		return err
	}
	if err := tx.Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Delete(&models.Message{}).Error; err != nil {
		return err
	}
	if err := tx.Exec(`UPDATE users SET follower_count = follower_count - 1
		WHERE follower_count > 0 AND id IN (SELECT followee_id FROM follows WHERE follower_id = ?)`,
		userID).Error; err != nil {
		return err
	}
	if err := tx.Exec(`UPDATE users SET following_count = following_count - 1
		WHERE following_count > 0 AND id IN (SELECT follower_id FROM follows WHERE followee_id = ?)`,
		userID).Error; err != nil {
		return err
	}
	if err := tx.Where("follower_id = ? OR followee_id = ?", userID, userID).
		Delete(&models.Follow{}).Error; err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", userID).Delete(&models.Session{}).Error; err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", userID).Delete(&models.PasswordReset{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.User{}, "id = ?", userID).Error
}

func parseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voisoc/backend/internal/database"
	"github.com/voisoc/backend/internal/logger"
	"github.com/voisoc/backend/internal/metrics"
	"github.com/voisoc/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FollowUser follows another user. Following is one-directional and
// idempotent; the cached counters on both users move with the edge.
// POST /api/v1/users/:id/follow
func (h *Handlers) FollowUser(c *gin.Context) {
	userID := c.GetString("user_id")
	targetUserID := c.Param("id")

	if targetUserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot follow yourself"})
		return
	}

	var target models.User
	if err := database.DB.First(&target, "id = ?", targetUserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	var existing int64
	database.DB.Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", userID, targetUserID).
		Count(&existing)
	if existing > 0 {
		c.JSON(http.StatusOK, gin.H{
			"status":      "already_following",
			"target_user": targetUserID,
		})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		follow := models.Follow{
			FollowerID: userID,
			FolloweeID: targetUserID,
		}
		if err := tx.Create(&follow).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).
			Where("id = ?", targetUserID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error
	})
	if err != nil {
		logger.Log.Error("follow failed", logger.WithUserID(userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to follow user"})
		return
	}

	metrics.App().FollowsTotal.Inc()
	c.JSON(http.StatusOK, gin.H{
		"status":         "following",
		"target_user":    targetUserID,
		"following_user": userID,
	})
}

// UnfollowUser removes a follow edge. Unfollowing someone you do not
// follow is a no-op.
// DELETE /api/v1/users/:id/follow
func (h *Handlers) UnfollowUser(c *gin.Context) {
	userID := c.GetString("user_id")
	targetUserID := c.Param("id")

	removed := false
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("follower_id = ? AND followee_id = ?", userID, targetUserID).
			Delete(&models.Follow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		removed = true
		if err := tx.Model(&models.User{}).
			Where("id = ? AND follower_count > 0", targetUserID).
			UpdateColumn("follower_count", gorm.Expr("follower_count - 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ? AND following_count > 0", userID).
			UpdateColumn("following_count", gorm.Expr("following_count - 1")).Error
	})
	if err != nil {
		logger.Log.Error("unfollow failed", logger.WithUserID(userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unfollow user"})
		return
	}

	if removed {
		metrics.App().UnfollowsTotal.Inc()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "unfollowed",
		"target_user": targetUserID,
	})
}

// GetFollowers lists the users following the given user
// GET /api/v1/users/:id/followers
func (h *Handlers) GetFollowers(c *gin.Context) {
	targetUserID := c.Param("id")

	limit := parseInt(c.Query("limit"), 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := parseInt(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	var follows []models.Follow
	err := database.DB.
		Preload("Follower").
		Where("followee_id = ?", targetUserID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&follows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load followers"})
		return
	}

	followers := make([]*models.PublicProfile, 0, len(follows))
	for i := range follows {
		followers = append(followers, follows[i].Follower.PublicProfile())
	}

	c.JSON(http.StatusOK, gin.H{
		"followers": followers,
		"limit":     limit,
		"offset":    offset,
	})
}

// GetFollowing lists the users the given user follows
// GET /api/v1/users/:id/following
func (h *Handlers) GetFollowing(c *gin.Context) {
	targetUserID := c.Param("id")

	limit := parseInt(c.Query("limit"), 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := parseInt(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	var follows []models.Follow
	err := database.DB.
		Preload("Followee").
		Where("follower_id = ?", targetUserID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&follows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load following"})
		return
	}

	following := make([]*models.PublicProfile, 0, len(follows))
	for i := range follows {
		following = append(following, follows[i].Followee.PublicProfile())
	}

	c.JSON(http.StatusOK, gin.H{
		"following": following,
		"limit":     limit,
		"offset":    offset,
	})
}

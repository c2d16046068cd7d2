package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voisoc/backend/internal/database"
	apperrors "github.com/voisoc/backend/internal/errors"
	"github.com/voisoc/backend/internal/logger"
	"github.com/voisoc/backend/internal/metrics"
	"github.com/voisoc/backend/internal/models"
	"github.com/voisoc/backend/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxMediaPerPost = 4

// CreatePost publishes a new post with optional media attachments.
// Accepts multipart form data: a "content" field plus up to four
// "media" files.
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	userID := c.GetString("user_id")

	content := c.PostForm("content")
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	post := models.Post{
		UserID:  userID,
		Content: content,
	}

	// Media uploads happen before the row exists; a failed upload fails
	// the whole request so no post references missing media
	form, err := c.MultipartForm()
	if err == nil && form.File["media"] != nil {
		files := form.File["media"]
		if len(files) > maxMediaPerPost {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("at most %d media files per post", maxMediaPerPost)})
			return
		}

		if h.uploader == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "media uploads are not configured"})
			return
		}

		for _, header := range files {
			file, err := header.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read media file"})
				return
			}

			result, err := h.uploader.UploadPostMedia(c.Request.Context(), file, header, userID)
			file.Close()
			if err != nil {
				logger.Log.Error("post media upload failed", logger.WithUserID(userID), zap.Error(err))
				respondError(c, apperrors.BadRequest("media upload failed").WithDetails(err.Error()))
				return
			}

			post.Media = append(post.Media, models.MediaAttachment{
				URL:  result.URL,
				Type: storage.MediaType(header.Filename),
				Size: result.Size,
			})
		}
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error
	})
	if err != nil {
		logger.Log.Error("post creation failed", logger.WithUserID(userID), zap.Error(err))
		respondError(c, apperrors.InternalError("failed to create post"))
		return
	}

	metrics.App().PostsCreated.Inc()
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// GetFeed returns posts from all users, newest first
// GET /api/v1/posts
func (h *Handlers) GetFeed(c *gin.Context) {
	limit := parseInt(c.Query("limit"), 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := parseInt(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	var posts []models.Post
	err := database.DB.
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load feed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":  posts,
		"limit":  limit,
		"offset": offset,
	})
}

// GetUserPosts returns one user's posts, newest first
// GET /api/v1/users/:id/posts
func (h *Handlers) GetUserPosts(c *gin.Context) {
	targetUserID := c.Param("id")

	var user models.User
	if err := database.DB.First(&user, "id = ?", targetUserID).Error; err != nil {
		respondError(c, apperrors.NotFound("user"))
		return
	}

	limit := parseInt(c.Query("limit"), 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := parseInt(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	var posts []models.Post
	err := database.DB.
		Where("user_id = ?", targetUserID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":  posts,
		"user":   user.PublicProfile(),
		"limit":  limit,
		"offset": offset,
	})
}

// ReactToPost increments one of the post's reaction counters
// POST /api/v1/posts/:id/react
func (h *Handlers) ReactToPost(c *gin.Context) {
	postID := c.Param("id")

	var req struct {
		Kind string `json:"kind" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidReaction(req.Kind) {
		respondError(c, apperrors.BadRequest("unknown reaction kind"))
		return
	}

	result := database.DB.Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn(req.Kind, gorm.Expr(req.Kind+" + 1"))
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record reaction"})
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, apperrors.NotFound("post"))
		return
	}

	metrics.App().ReactionsTotal.WithLabelValues(req.Kind).Inc()

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "reacted",
		"kind":   req.Kind,
		"post":   post,
	})
}

// RecordImpression marks the post as seen by the authenticated user.
// Each viewer is recorded at most once.
// POST /api/v1/posts/:id/impression
func (h *Handlers) RecordImpression(c *gin.Context) {
	userID := c.GetString("user_id")
	postID := c.Param("id")

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		respondError(c, apperrors.NotFound("post"))
		return
	}

	for _, viewer := range post.Impressions {
		if viewer == userID {
			c.JSON(http.StatusOK, gin.H{
				"status":      "already_seen",
				"impressions": len(post.Impressions),
			})
			return
		}
	}

	post.Impressions = append(post.Impressions, userID)
	if err := database.DB.Model(&post).Update("impressions", post.Impressions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record impression"})
		return
	}

	metrics.App().Impressions.Inc()
	c.JSON(http.StatusOK, gin.H{
		"status":      "seen",
		"impressions": len(post.Impressions),
	})
}

// DeletePost soft deletes the caller's own post
// DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	userID := c.GetString("user_id")
	postID := c.Param("id")

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		respondError(c, apperrors.NotFound("post"))
		return
	}

	if post.UserID != userID && !c.GetBool("is_admin") {
		respondError(c, apperrors.Forbidden("cannot delete another user's post"))
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&post).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ? AND post_count > 0", post.UserID).
			UpdateColumn("post_count", gorm.Expr("post_count - 1")).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

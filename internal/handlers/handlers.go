package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/voisoc/backend/internal/auth"
	"github.com/voisoc/backend/internal/chat"
	"github.com/voisoc/backend/internal/email"
	apperrors "github.com/voisoc/backend/internal/errors"
	"github.com/voisoc/backend/internal/storage"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	auth     auth.AuthServiceInterface
	chat     *chat.Service
	uploader storage.MediaUploader
	email    *email.EmailService
}

// NewHandlers creates a new handlers instance
func NewHandlers(authService auth.AuthServiceInterface, chatService *chat.Service) *Handlers {
	return &Handlers{
		auth: authService,
		chat: chatService,
	}
}

// SetUploader sets the media uploader for avatar and post media uploads
func (h *Handlers) SetUploader(uploader storage.MediaUploader) {
	h.uploader = uploader
}

// SetEmailService sets the email service for verification and reset mail
func (h *Handlers) SetEmailService(emailService *email.EmailService) {
	h.email = emailService
}

// AuthMiddleware validates the bearer token and loads the user into the
// request context
func (h *Handlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "no token provided")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			abortUnauthorized(c, "invalid authorization header")
			return
		}

		user, err := h.auth.ValidateToken(tokenString)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Set("user_id", user.ID)
		c.Set("username", user.Username)
		c.Set("is_admin", user.IsAdmin)
		c.Next()
	}
}

// respondError renders an APIError, keeping the flat "error" key the
// rest of the API uses
func respondError(c *gin.Context, apiErr *apperrors.APIError) {
	body := gin.H{"error": apiErr.Message, "code": apiErr.Code}
	if apiErr.Field != "" {
		body["field"] = apiErr.Field
	}
	if apiErr.Details != "" {
		body["details"] = apiErr.Details
	}
	c.JSON(apiErr.Status, body)
}

func abortUnauthorized(c *gin.Context, message string) {
	respondError(c, apperrors.Unauthorized(message))
	c.Abort()
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voisoc/backend/internal/auth"
	"github.com/voisoc/backend/internal/database"
	apperrors "github.com/voisoc/backend/internal/errors"
	"github.com/voisoc/backend/internal/logger"
	"github.com/voisoc/backend/internal/metrics"
	"github.com/voisoc/backend/internal/models"
	"go.uber.org/zap"
)

// Register creates a new account
// POST /api/v1/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.auth.Register(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			respondError(c, apperrors.AlreadyExists("an account with this email"))
		case errors.Is(err, auth.ErrUsernameExists):
			respondError(c, apperrors.AlreadyExists("an account with this username"))
		default:
			logger.Log.Error("registration failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}

	metrics.App().RegistrationsTotal.Inc()

	// Verification mail is best effort; the account exists either way and
	// the token can be re-requested
	if h.email != nil && resp.User.EmailVerifyToken != nil {
		if err := h.email.SendVerificationEmail(c.Request.Context(), resp.User.Email, *resp.User.EmailVerifyToken); err != nil {
			metrics.App().EmailsSentTotal.WithLabelValues("verification", "failed").Inc()
			logger.Log.Warn("failed to send verification email",
				logger.WithUserID(resp.User.ID),
				zap.Error(err))
		} else {
			metrics.App().EmailsSentTotal.WithLabelValues("verification", "sent").Inc()
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":      resp.Token,
		"session_id": resp.SessionID,
		"expires_at": resp.ExpiresAt,
		"user":       resp.User.PublicProfile(),
	})
}

// Login authenticates with email and password
// POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.auth.Login(req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		logger.Log.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      resp.Token,
		"session_id": resp.SessionID,
		"expires_at": resp.ExpiresAt,
		"user":       resp.User.PublicProfile(),
	})
}

// Logout revokes the current session
// POST /api/v1/auth/logout
func (h *Handlers) Logout(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.auth.Logout(req.SessionID); err != nil {
		logger.Log.Warn("logout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

// Me returns the authenticated user's own record
// GET /api/v1/auth/me
func (h *Handlers) Me(c *gin.Context) {
	userID := c.GetString("user_id")

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// VerifyEmail confirms ownership of the registered email address
// GET /api/v1/auth/verify?token=...
func (h *Handlers) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	user, err := h.auth.VerifyEmail(token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired verification token"})
		return
	}

	// Verification usually happens from an email link, so hand back a
	// fresh login token and let the client land signed in
	resp, err := h.auth.GenerateTokenForUser(user)
	if err != nil {
		logger.Log.Error("failed to issue token after verification", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "verified",
		"token":      resp.Token,
		"expires_at": resp.ExpiresAt,
		"user":       user.PublicProfile(),
	})
}

// RequestPasswordReset starts the password reset flow. The response is
// identical whether or not the email exists.
// POST /api/v1/auth/password-reset
func (h *Handlers) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reset, err := h.auth.RequestPasswordReset(req.Email)
	if err != nil {
		logger.Log.Error("password reset request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password reset failed"})
		return
	}

	if reset != nil && h.email != nil {
		if err := h.email.SendPasswordResetEmail(c.Request.Context(), req.Email, reset.Token); err != nil {
			metrics.App().EmailsSentTotal.WithLabelValues("password_reset", "failed").Inc()
			logger.Log.Warn("failed to send password reset email", zap.Error(err))
		} else {
			metrics.App().EmailsSentTotal.WithLabelValues("password_reset", "sent").Inc()
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "reset_email_sent"})
}

// ResetPassword consumes a reset token and sets a new password
// POST /api/v1/auth/password-reset/confirm
func (h *Handlers) ResetPassword(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.auth.ResetPassword(req.Token, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired reset token"})
			return
		}
		logger.Log.Error("password reset failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password reset failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "password_reset"})
}

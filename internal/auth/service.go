package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/voisoc/backend/internal/cache"
	"github.com/voisoc/backend/internal/database"
	"github.com/voisoc/backend/internal/logger"
	"github.com/voisoc/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrUsernameExists     = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// TokenTTL is the lifetime of login tokens and their sessions
const TokenTTL = 24 * time.Hour

// verifyTokenTTL bounds how long an email verification link stays valid
const verifyTokenTTL = time.Hour

// Content seeded into every fresh account, mirroring the onboarding
// the web client expects on first load
const (
	welcomePostContent = "Hey everyone, I just joined Voisoc!"
	welcomeMessageText = "Welcome to Voisoc! This is your inbox. Find people to follow and start a conversation."
	adminUsername      = "admin"
)

// Service handles all authentication operations
type Service struct {
	jwtSecret []byte
}

// NewService creates a new authentication service
func NewService(jwtSecret []byte) *Service {
	return &Service{jwtSecret: jwtSecret}
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
	SessionID string      `json:"-"`
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Username   string `json:"username" binding:"required,min=3,max=30"`
	Password   string `json:"password" binding:"required,min=8"`
	FirstName  string `json:"first_name" binding:"required,min=1,max=50"`
	MiddleName string `json:"middle_name" binding:"omitempty,max=50"`
	LastName   string `json:"last_name" binding:"required,min=1,max=50"`
	Country    string `json:"country" binding:"required,min=2,max=60"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new user with email/password. The user row, their
// first post, and the admin welcome message commit in one transaction.
func (s *Service) Register(req RegisterRequest) (*AuthResponse, error) {
	// Check if user exists by email (case-insensitive)
	var existingUser models.User
	err := database.DB.Where("LOWER(email) = LOWER(?)", req.Email).First(&existingUser).Error
	if err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Check if username is taken
	var usernameCheck models.User
	err = database.DB.Where("LOWER(username) = LOWER(?)", req.Username).First(&usernameCheck).Error
	if err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		MiddleName:   req.MiddleName,
		LastName:     req.LastName,
		Country:      req.Country,
		PasswordHash: string(hashedPassword),
	}

	verifyToken, err := s.generateVerifyToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue verification token: %w", err)
	}
	user.EmailVerifyToken = &verifyToken

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		// Every account starts with one post so the profile isn't empty
		post := models.Post{
			UserID:  user.ID,
			Content: welcomePostContent,
		}
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		if err := tx.Model(&user).Update("post_count", 1).Error; err != nil {
			return err
		}

		// Admin greets every new member; skipped when no admin account exists
		var admin models.User
		err := tx.Where("username = ?", adminUsername).First(&admin).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		} else if err != nil {
			return err
		}

		welcome := models.Message{
			SenderID:    admin.ID,
			RecipientID: user.ID,
			Text:        welcomeMessageText,
			Status:      models.MessageStatusSent,
		}
		return tx.Create(&welcome).Error
	})
	if txErr != nil {
		return nil, fmt.Errorf("failed to create user: %w", txErr)
	}

	return s.issueSession(&user, "", "")
}

// Login authenticates with email/password and opens a session
func (s *Service) Login(req LoginRequest, clientIP, userAgent string) (*AuthResponse, error) {
	var user models.User
	err := database.DB.Where("LOWER(email) = LOWER(?)", req.Email).First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Verify password
	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Update last active
	now := time.Now()
	user.LastActiveAt = &now
	database.DB.Save(&user)

	return s.issueSession(&user, clientIP, userAgent)
}

// issueSession signs a login token and records the session in the
// sessions table and Redis. The table is the durable record; Redis is
// the fast path ValidateToken checks first.
func (s *Service) issueSession(user *models.User, clientIP, userAgent string) (*AuthResponse, error) {
	resp, err := s.generateAuthResponse(user)
	if err != nil {
		return nil, err
	}

	session := models.Session{
		ID:        resp.SessionID,
		UserID:    user.ID,
		Token:     resp.Token,
		UserAgent: userAgent,
		ClientIP:  clientIP,
		ExpiresAt: resp.ExpiresAt,
	}
	if err := database.DB.Create(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if rc := cache.GetRedisClient(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := rc.StoreSession(ctx, &cache.SessionData{
			SessionID: session.ID,
			UserID:    user.ID,
			Username:  user.Username,
			ClientIP:  clientIP,
			CreatedAt: time.Now(),
		})
		if err != nil {
			// Session table still holds the record
			logger.Warn("failed to cache session in Redis")
		}
	}

	return resp, nil
}

// Logout removes the session from Redis and the sessions table
func (s *Service) Logout(sessionID string) error {
	if rc := cache.GetRedisClient(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.DeleteSession(ctx, sessionID); err != nil {
			logger.Warn("failed to delete Redis session")
		}
	}
	return database.DB.Where("id = ?", sessionID).Delete(&models.Session{}).Error
}

// FindUserByEmail finds user by email (case-insensitive)
func (s *Service) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := database.DB.Where("LOWER(email) = LOWER(?)", email).First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &user, nil
}

// GenerateTokenForUser opens a fresh session for an already
// authenticated user, such as after email verification
func (s *Service) GenerateTokenForUser(user *models.User) (*AuthResponse, error) {
	return s.issueSession(user, "", "")
}

// generateAuthResponse creates JWT token and auth response
func (s *Service) generateAuthResponse(user *models.User) (*AuthResponse, error) {
	expiresAt := time.Now().Add(TokenTTL)
	sessionID := uuid.New().String()

	claims := jwt.MapClaims{
		"user_id":    user.ID,
		"email":      user.Email,
		"username":   user.Username,
		"is_admin":   user.IsAdmin,
		"session_id": sessionID,
		"exp":        expiresAt.Unix(),
		"iat":        time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &AuthResponse{
		Token:     tokenString,
		User:      *user,
		ExpiresAt: expiresAt,
		SessionID: sessionID,
	}, nil
}

// ValidateToken validates a JWT token and returns user info. A token
// whose session has been logged out no longer authenticates, even
// before the JWT itself expires.
func (s *Service) ValidateToken(tokenString string) (*models.User, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid user_id in token")
	}

	sessionID, ok := claims["session_id"].(string)
	if !ok || sessionID == "" {
		return nil, ErrInvalidToken
	}
	if !s.sessionAlive(sessionID) {
		return nil, ErrInvalidToken
	}

	// Fetch fresh user data
	var user models.User
	err = database.DB.Where("id = ?", userID).First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return &user, nil
}

// sessionAlive reports whether the login session is still open. Redis
// answers first; the sessions table covers cache misses so a flush does
// not log everyone out.
func (s *Service) sessionAlive(sessionID string) bool {
	if rc := cache.GetRedisClient(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := rc.GetSession(ctx, sessionID); err == nil {
			return true
		}
	}

	var count int64
	database.DB.Model(&models.Session{}).
		Where("id = ? AND expires_at > ?", sessionID, time.Now()).
		Count(&count)
	return count > 0
}

// generateVerifyToken issues the short-lived email verification JWT
func (s *Service) generateVerifyToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"purpose": "email_verify",
		"exp":     time.Now().Add(verifyTokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// VerifyEmail validates a verification token and marks the account
// verified. Re-verifying an already verified account is a no-op.
func (s *Service) VerifyEmail(tokenString string) (*models.User, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if purpose, _ := claims["purpose"].(string); purpose != "email_verify" {
		return nil, ErrInvalidToken
	}
	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, ErrUserNotFound
	}

	if user.EmailVerified {
		return &user, nil
	}

	user.EmailVerified = true
	user.EmailVerifyToken = nil
	if err := database.DB.Save(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to mark user verified: %w", err)
	}

	return &user, nil
}

// parseToken validates signature and expiry and returns the claims
func (s *Service) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// RequestPasswordReset creates a password reset token and stores it in the database
func (s *Service) RequestPasswordReset(email string) (*models.PasswordReset, error) {
	user, err := s.FindUserByEmail(email)
	if err != nil {
		// Don't reveal if user exists or not
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}

	// Generate secure token (three UUIDs concatenated)
	tokenStr := uuid.New().String() + uuid.New().String() + uuid.New().String()

	token := models.PasswordReset{
		UserID:    user.ID,
		Token:     tokenStr,
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}
	if err := database.DB.Create(&token).Error; err != nil {
		return nil, fmt.Errorf("failed to create reset token: %w", err)
	}

	return &token, nil
}

// ResetPassword validates the reset token and updates the user's password
func (s *Service) ResetPassword(token, newPassword string) error {
	// Find unused, unexpired reset token
	var resetToken models.PasswordReset
	err := database.DB.Where("token = ? AND used_at IS NULL AND expires_at > ?", token, time.Now()).First(&resetToken).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("database error: %w", err)
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", resetToken.UserID).Error; err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	if err := database.DB.Save(&user).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// Mark token as used; password is already updated so a failure here
	// only risks token reuse within the expiry window
	now := time.Now()
	resetToken.UsedAt = &now
	if err := database.DB.Save(&resetToken).Error; err != nil {
		logger.Warn("failed to mark reset token as used")
	}

	return nil
}

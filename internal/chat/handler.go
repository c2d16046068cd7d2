package chat

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/voisoc/backend/internal/database"
	"github.com/voisoc/backend/internal/logger"
	"github.com/voisoc/backend/internal/models"
	"go.uber.org/zap"
)

// Handler serves the WebSocket endpoint and presence ops endpoints
type Handler struct {
	service   *Service
	jwtSecret []byte
}

// NewHandler creates a chat handler
func NewHandler(service *Service, jwtSecret []byte) *Handler {
	return &Handler{
		service:   service,
		jwtSecret: jwtSecret,
	}
}

// authenticateRequest validates the JWT and fetches the user. The token
// comes from the "token" query parameter (browser WebSocket clients
// cannot set headers) or an Authorization bearer header.
func (h *Handler) authenticateRequest(c *gin.Context) (*models.User, error) {
	tokenString := c.Query("token")
	if tokenString == "" {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if tokenString == "" {
		return nil, fmt.Errorf("no authentication token provided")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return h.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if exp, ok := claims["exp"].(float64); ok {
		if time.Now().Unix() > int64(exp) {
			return nil, fmt.Errorf("token expired")
		}
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("token missing user_id claim")
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return &user, nil
}

// HandleWebSocket upgrades the connection and runs the client pumps
// until disconnect
func (h *Handler) HandleWebSocket(c *gin.Context) {
	user, err := h.authenticateRequest(c)
	if err != nil {
		logger.Log.Warn("WebSocket authentication failed",
			logger.WithIP(c.ClientIP()),
			zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Origin checked by CORS middleware upstream
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed",
			logger.WithUserID(user.ID),
			zap.Error(err))
		return
	}

	client := NewClient(h.service, conn, user.ID, user.Username)
	client.RemoteAddr = c.ClientIP()
	client.UserAgent = c.Request.UserAgent()

	logger.Log.Info("WebSocket connected",
		logger.WithUserID(user.ID),
		logger.WithIP(client.RemoteAddr))

	// Greet before any join so clients know the connection is live
	_ = client.Push(NewEvent(EventTypeSystem, SystemPayload{
		Event:   "connected",
		Message: fmt.Sprintf("Welcome, %s", user.Username),
		Data: map[string]interface{}{
			"user_id": user.ID,
		},
	}))

	go client.WritePump()
	client.ReadPump()

	logger.Log.Info("WebSocket disconnected", logger.WithUserID(user.ID))
}

// HandleOnlineStatus reports which of the requested users are online
func (h *Handler) HandleOnlineStatus(c *gin.Context) {
	var req struct {
		UserIDs []string `json:"user_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_ids is required"})
		return
	}

	statuses := make(map[string]bool, len(req.UserIDs))
	for _, id := range req.UserIDs {
		statuses[id] = h.service.Presence().IsOnline(id)
	}

	c.JSON(http.StatusOK, gin.H{"statuses": statuses})
}

// HandleMetrics reports presence registry state
func (h *Handler) HandleMetrics(c *gin.Context) {
	presence := h.service.Presence()
	c.JSON(http.StatusOK, gin.H{
		"online_users": presence.Online(),
		"online_count": presence.Count(),
		"timestamp":    time.Now().UTC(),
	})
}

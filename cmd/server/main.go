package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/voisoc/backend/internal/auth"
	"github.com/voisoc/backend/internal/cache"
	"github.com/voisoc/backend/internal/chat"
	"github.com/voisoc/backend/internal/database"
	"github.com/voisoc/backend/internal/email"
	"github.com/voisoc/backend/internal/handlers"
	"github.com/voisoc/backend/internal/logger"
	"github.com/voisoc/backend/internal/metrics"
	"github.com/voisoc/backend/internal/middleware"
	"github.com/voisoc/backend/internal/storage"
	"github.com/voisoc/backend/internal/validation"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Structured logging
	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== Voisoc server starting ===")

	metrics.Initialize()

	// Database
	if err := database.Initialize(); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	// Redis is used for sessions and rate limiting; the server runs
	// without it, minus those features
	redisClient, err := cache.NewRedisClient(
		getEnvOrDefault("REDIS_HOST", "localhost"),
		getEnvOrDefault("REDIS_PORT", "6379"),
		os.Getenv("REDIS_PASSWORD"),
	)
	if err != nil {
		logger.Log.Warn("Redis unavailable, sessions will not be cached", zap.Error(err))
	} else {
		defer redisClient.Close()
	}

	// Fail fast when required external services are down
	if err := validation.NewServiceValidator().ValidateServices(context.Background()); err != nil {
		logger.FatalWithFields("Service validation failed", err)
	}

	// Auth service
	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logger.FatalWithFields("JWT_SECRET environment variable is required", nil)
	}
	authService := auth.NewService(jwtSecret)

	// Messaging core
	chatService := chat.NewService(database.DB, chat.NewPresenceRegistry())
	chatHandler := chat.NewHandler(chatService, jwtSecret)

	h := handlers.NewHandlers(authService, chatService)

	// S3 media uploads (optional in development)
	if bucket := os.Getenv("AWS_BUCKET"); bucket != "" {
		uploader, err := storage.NewS3Uploader(
			os.Getenv("AWS_REGION"),
			bucket,
			os.Getenv("CDN_BASE_URL"),
		)
		if err != nil {
			logger.FatalWithFields("Failed to initialize S3 uploader", err)
		}
		if err := uploader.CheckBucketAccess(context.Background()); err != nil {
			logger.Log.Warn("S3 bucket access failed, media uploads will fail", zap.Error(err))
		}
		h.SetUploader(uploader)
	} else {
		logger.Log.Warn("AWS_BUCKET not set, media uploads disabled")
	}

	// SES verification and reset mail (optional in development)
	if fromEmail := os.Getenv("EMAIL_FROM"); fromEmail != "" {
		emailService, err := email.NewEmailService(
			os.Getenv("AWS_REGION"),
			fromEmail,
			getEnvOrDefault("EMAIL_FROM_NAME", "Voisoc"),
			getEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:3000"),
		)
		if err != nil {
			logger.FatalWithFields("Failed to initialize email service", err)
		}
		h.SetEmailService(emailService)
	} else {
		logger.Log.Warn("EMAIL_FROM not set, outbound email disabled")
	}

	// Setup Gin router
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{getEnvOrDefault("CORS_ORIGIN", "*")}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "voisoc-backend",
		})
	})

	// Prometheus scrape endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := r.Group("/api/v1")
	{
		// Authentication routes (public, rate limited)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", middleware.RedisRateLimitMiddleware(10, time.Minute), h.Register)
			authGroup.POST("/login", middleware.RedisRateLimitMiddleware(20, time.Minute), h.Login)
			authGroup.GET("/verify", h.VerifyEmail)
			authGroup.POST("/password-reset", middleware.RedisRateLimitMiddleware(5, time.Minute), h.RequestPasswordReset)
			authGroup.POST("/password-reset/confirm", h.ResetPassword)

			authGroup.GET("/me", h.AuthMiddleware(), h.Me)
			authGroup.POST("/logout", h.AuthMiddleware(), h.Logout)
		}

		// User routes
		users := api.Group("/users")
		{
			users.Use(h.AuthMiddleware())
			users.GET("", h.ListUsers)
			users.DELETE("", h.PurgeUsers)
			users.PUT("/me", h.UpdateProfile)
			users.DELETE("/me", h.DeleteAccount)
			users.POST("/me/avatar", h.UploadAvatar)
			users.GET("/:id", h.GetUserProfile)
			users.DELETE("/:id", h.AdminDeleteUser)
			users.GET("/:id/posts", h.GetUserPosts)
			users.POST("/:id/follow", h.FollowUser)
			users.DELETE("/:id/follow", h.UnfollowUser)
			users.GET("/:id/followers", h.GetFollowers)
			users.GET("/:id/following", h.GetFollowing)
		}

		// Post routes
		posts := api.Group("/posts")
		{
			posts.Use(h.AuthMiddleware())
			posts.POST("", h.CreatePost)
			posts.GET("", h.GetFeed)
			posts.POST("/:id/react", h.ReactToPost)
			posts.POST("/:id/impression", h.RecordImpression)
			posts.DELETE("/:id", h.DeletePost)
		}

		// Direct message routes (REST side of the messaging core)
		messages := api.Group("/messages")
		{
			messages.Use(h.AuthMiddleware())
			messages.GET("", h.GetConversationPartners)
			messages.POST("", h.SendMessage)
			messages.GET("/:userID", h.GetConversation)
		}

		// WebSocket routes
		ws := api.Group("/ws")
		{
			// Connection endpoint - auth via query param ?token=... or Authorization header
			ws.GET("", chatHandler.HandleWebSocket)
			ws.GET("/connect", chatHandler.HandleWebSocket)

			ws.GET("/metrics", h.AuthMiddleware(), chatHandler.HandleMetrics)
			ws.POST("/online", h.AuthMiddleware(), chatHandler.HandleOnlineStatus)
		}
	}

	// Server configuration
	port := getEnvOrDefault("PORT", "8787")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("Voisoc backend listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.FatalWithFields("Server forced to shutdown", err)
	}

	logger.Log.Info("Server exited")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package validation

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/voisoc/backend/internal/cache"
	"github.com/voisoc/backend/internal/database"
	"github.com/voisoc/backend/internal/logger"
	"github.com/voisoc/backend/internal/storage"
	"go.uber.org/zap"
)

// ServiceValidator fails startup fast when a required external service
// is unreachable. Which services are required comes from
// VOISOC_BACKEND_REQUIRE_* environment variables.
type ServiceValidator struct {
	requiredServices []string
}

// NewServiceValidator creates a new service validator
func NewServiceValidator() *ServiceValidator {
	return &ServiceValidator{
		requiredServices: parseRequiredServices(),
	}
}

// ValidateServices validates all configured services
func (sv *ServiceValidator) ValidateServices(ctx context.Context) error {
	if len(sv.requiredServices) == 0 {
		logger.Log.Info("No required services configured for validation")
		return nil
	}

	logger.Log.Info("Validating required services",
		zap.Strings("services", sv.requiredServices),
	)

	services := sv.getServiceChecks()

	for _, serviceName := range sv.requiredServices {
		serviceChecker, ok := services[serviceName]
		if !ok {
			logger.Log.Warn("Unknown service type in validation",
				zap.String("service", serviceName),
			)
			continue
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := serviceChecker(timeoutCtx)
		cancel()
		if err != nil {
			logger.Log.Error("Required service validation failed",
				zap.String("service", serviceName),
				zap.Error(err),
			)
			return fmt.Errorf("required service %q validation failed: %w", serviceName, err)
		}

		logger.Log.Info("Service validated",
			zap.String("service", serviceName),
		)
	}

	return nil
}

// getServiceChecks returns a map of service names to their validation functions
func (sv *ServiceValidator) getServiceChecks() map[string]func(ctx context.Context) error {
	return map[string]func(ctx context.Context) error{
		"database": validateDatabase,
		"redis":    validateRedis,
		"s3":       validateS3,
		"ses":      validateSES,
	}
}

// validateDatabase checks the primary database connection
func validateDatabase(_ context.Context) error {
	if database.DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return database.Health()
}

// validateRedis checks if Redis is reachable
func validateRedis(ctx context.Context) error {
	rc := cache.GetRedisClient()
	if rc == nil {
		redisHost := os.Getenv("REDIS_HOST")
		if redisHost == "" {
			redisHost = "localhost"
		}
		redisPort := os.Getenv("REDIS_PORT")
		if redisPort == "" {
			redisPort = "6379"
		}

		fresh, err := cache.NewRedisClient(redisHost, redisPort, os.Getenv("REDIS_PASSWORD"))
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		rc = fresh
	}

	return rc.Ping(ctx)
}

// validateS3 checks if the media bucket is accessible
func validateS3(ctx context.Context) error {
	region := os.Getenv("AWS_REGION")
	bucket := os.Getenv("AWS_BUCKET")

	if region == "" || bucket == "" {
		return fmt.Errorf("AWS_REGION and AWS_BUCKET are required for S3 validation")
	}

	uploader, err := storage.NewS3Uploader(region, bucket, os.Getenv("CDN_BASE_URL"))
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	if err := uploader.CheckBucketAccess(ctx); err != nil {
		return fmt.Errorf("S3 bucket access check failed: %w", err)
	}

	return nil
}

// validateSES checks that SES credentials work
func validateSES(ctx context.Context) error {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		return fmt.Errorf("AWS_REGION is required for SES validation")
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := ses.NewFromConfig(cfg)
	if _, err := client.GetSendQuota(ctx, &ses.GetSendQuotaInput{}); err != nil {
		return fmt.Errorf("SES quota check failed: %w", err)
	}

	return nil
}

// parseRequiredServices reads the VOISOC_BACKEND_REQUIRE_* environment
// variables and returns the service names that are required
func parseRequiredServices() []string {
	var required []string

	services := []string{"database", "redis", "s3", "ses"}

	for _, service := range services {
		envVar := fmt.Sprintf("VOISOC_BACKEND_REQUIRE_%s", strings.ToUpper(service))
		if isTruthy(os.Getenv(envVar)) {
			required = append(required, service)
		}
	}

	return required
}

// isTruthy checks if a string value represents a truthy value
func isTruthy(value string) bool {
	if value == "" {
		return false
	}

	value = strings.ToLower(strings.TrimSpace(value))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

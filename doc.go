// Package backend provides the Voisoc API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication, registration and session services
// - internal/chat: Direct messaging core, presence and WebSocket transport
// - internal/storage: File storage (S3) operations
// - internal/database: Database connection and migrations
// - internal/email: Verification and password reset email (SES)
// - internal/middleware: HTTP middleware (request ids, rate limiting, metrics)
// - internal/cache: Redis client and session cache
// - internal/seed: Development and test data seeding

// See the individual package documentation for detailed API reference.
package backend

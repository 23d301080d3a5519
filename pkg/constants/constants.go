package constants

import "time"

// Application constants
const (
	// Application metadata
	AppName        = "laplace-server"
	AppDescription = "Obfuscation service for small-count medical report statistics"
	AppVersion     = "0.1.0"

	// API constants
	APIVersion = "v1"
	APIPrefix  = "/api/v1"

	// Default server configuration values
	DefaultPort            = 8080
	DefaultMetricsPort     = 9090
	DefaultHost            = "0.0.0.0"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Request size limit for report uploads
	DefaultMaxRequestSize = 10 * 1024 * 1024 // 10MB
)

// HTTP headers
const (
	HeaderContentType  = "Content-Type"
	HeaderRequestID    = "X-Request-ID"
	HeaderForwardedFor = "X-Forwarded-For"
	HeaderRealIP       = "X-Real-IP"
)

// Content types
const (
	ContentTypeJSON = "application/json"
)

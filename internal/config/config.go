// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Upload   UploadConfig
	Table    TableConfig
	Predict  PredictConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on. PORT is honoured for PaaS deployments (default: 3000)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"3000"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StorageConfig selects the key/value backend that holds per-client state.
type StorageConfig struct {
	// Driver is one of memory, sqlite, postgres (default: memory)
	Driver string `env:"STORAGE_DRIVER" default:"memory"`

	// DSN is the backend connection string. Required for sqlite and postgres.
	// DATABASE_URL is accepted for compatibility with hosted postgres.
	DSN string `env:"STORAGE_DSN" envAlt:"DATABASE_URL"`

	// MaxConns is the maximum number of pooled connections (default: 10)
	MaxConns int `env:"STORAGE_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"STORAGE_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"STORAGE_MAX_CONN_LIFETIME" default:"1h"`

	// OpTimeout bounds a single Get/Set/Delete call (default: 5s)
	OpTimeout time.Duration `env:"STORAGE_OP_TIMEOUT" default:"5s"`
}

// UploadConfig holds settings for the gallery file store.
type UploadConfig struct {
	// Dir is where uploaded files are written (default: public/uploads)
	Dir string `env:"UPLOAD_DIR" default:"public/uploads"`

	// MaxFileSize is the maximum allowed file size in bytes (default: 10MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"10485760"`

	// AllowedExtensions is the comma-separated extension allow-list
	AllowedExtensions []string `env:"UPLOAD_ALLOWED_EXTENSIONS" default:"jpeg,jpg,png,gif,pdf,txt,doc,docx"`

	// MaxConcurrent is the maximum number of parallel uploads (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for an upload slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// TableConfig holds settings for exoplanet table ingestion.
type TableConfig struct {
	// MaxFileSize is the maximum accepted CSV/XLSX size in bytes (default: 10MB)
	MaxFileSize int64 `env:"TABLE_MAX_FILE_SIZE" default:"10485760"`

	// PreviewRows is how many data rows the preview shows (default: 5)
	PreviewRows int `env:"TABLE_PREVIEW_ROWS" default:"5"`
}

// PredictConfig points at the external classification service.
type PredictConfig struct {
	// URL is the base URL of the prediction API. Empty disables predictions.
	URL string `env:"PREDICT_URL" default:"http://localhost:5000"`

	// Timeout bounds a single prediction call (default: 30s)
	Timeout time.Duration `env:"PREDICT_TIMEOUT" default:"30s"`

	// Concurrency is the number of in-flight calls for table predictions (default: 4)
	Concurrency int `env:"PREDICT_CONCURRENCY" default:"4"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for upload endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// CORSOrigins lists origins allowed to call the API (default: none)
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS"`

	// SecureCookies sets the Secure flag on the client cookie (default: false)
	SecureCookies bool `env:"SECURITY_SECURE_COOKIES" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// PredictionsEnabled reports whether a prediction service is configured.
func (c *PredictConfig) PredictionsEnabled() bool {
	return c.URL != ""
}

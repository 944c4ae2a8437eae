// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Directory DirectoryConfig
	Retry     RetryConfig
	Upload    UploadConfig
	Storage   StorageConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 5m,
	// large enough for a full batch run including backoff delays)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"5m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 5m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"5m"`
}

// DirectoryConfig holds settings for the external hospital-directory API.
type DirectoryConfig struct {
	// BaseURL is the root URL of the hospital-directory API.
	// Supports both DIRECTORY_API_URL and HOSPITAL_API_BASE env vars for compatibility
	BaseURL string `env:"DIRECTORY_API_URL" envAlt:"HOSPITAL_API_BASE" default:"https://hospital-directory.onrender.com"`

	// RequestTimeout is the per-request timeout for outbound API calls (default: 10s)
	RequestTimeout time.Duration `env:"DIRECTORY_REQUEST_TIMEOUT" default:"10s"`
}

// RetryConfig holds retry/backoff settings for transient create failures.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts per create request (default: 3)
	MaxAttempts int `env:"RETRY_MAX_ATTEMPTS" default:"3"`

	// BaseDelay is the delay before the first retry (default: 1s)
	BaseDelay time.Duration `env:"RETRY_BASE_DELAY" default:"1s"`

	// Multiplier is the exponential backoff multiplier (default: 2.0)
	Multiplier float64 `env:"RETRY_MULTIPLIER" default:"2.0"`

	// MaxDelay caps the backoff delay between attempts (default: 30s)
	MaxDelay time.Duration `env:"RETRY_MAX_DELAY" default:"30s"`

	// Jitter is the random jitter fraction applied to each delay, 0..1 (default: 0)
	Jitter float64 `env:"RETRY_JITTER" default:"0"`
}

// UploadConfig holds CSV upload processing settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 1MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"1048576"`

	// MaxRows is the maximum number of data rows accepted per CSV (default: 20)
	MaxRows int `env:"UPLOAD_MAX_ROWS" default:"20"`

	// MaxConcurrent is the maximum number of parallel batch uploads (default: 4)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an upload slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// RowConcurrency is the maximum in-flight create requests per batch (default: 5)
	RowConcurrency int `env:"UPLOAD_ROW_CONCURRENCY" default:"5"`

	// Timeout is the maximum duration for a single batch operation (default: 5m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"5m"`
}

// StorageConfig holds batch result storage settings.
type StorageConfig struct {
	// DatabaseURL is an optional PostgreSQL connection string.
	// When unset, batch results are kept in process memory only.
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerSecond is the sustained per-IP request rate (default: 10)
	RequestsPerSecond int `env:"RATE_LIMIT_REQUESTS_PER_SECOND" default:"10"`

	// Burst is the token bucket burst capacity (default: 20)
	Burst int `env:"RATE_LIMIT_BURST" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
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
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}

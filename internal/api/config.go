// Package api provides the HTTP server for the voice detection service.
package api

import (
	"fmt"
	"time"

	"github.com/tphakala/voicedetect/internal/conf"
	"github.com/tphakala/voicedetect/internal/logger"
)

// GetLogger returns the api package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

// Default constants for the HTTP server.
const (
	DefaultReadTimeout     = 60 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultVersion is reported by the service descriptor when no build version is set
	DefaultVersion = "1.0.0"

	// rateLimitWindow is the sliding window RATE_LIMIT_RPM is counted over
	rateLimitWindow = 60 * time.Second
)

// Config holds the HTTP server configuration.
type Config struct {
	// Server binding
	Host string
	Port int

	// Security
	AllowedOrigins []string
	APIKey         string // empty disables API key checks

	// Limits
	MaxUploadBytes int64
	RateLimitRPM   int

	// Debug routes under /api/v1/_debug
	EnableDebugRoutes bool

	// Serve /metrics
	MetricsEnabled bool

	// Device requested for inference, reported by the health endpoint
	Device string

	// Timeouts
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Version is reported by the service descriptor
	Version string
}

// DefaultConfig returns a Config with the service defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:            conf.DefaultHost,
		Port:            conf.DefaultPort,
		AllowedOrigins:  []string{"*"},
		MaxUploadBytes:  int64(conf.DefaultMaxUploadMB) * 1024 * 1024,
		RateLimitRPM:    conf.DefaultRateLimitRPM,
		MetricsEnabled:  true,
		Device:          conf.DefaultDevice,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		Version:         DefaultVersion,
	}
}

// ConfigFromSettings creates a Config from the application settings.
func ConfigFromSettings(settings *conf.Settings) *Config {
	cfg := DefaultConfig()

	cfg.Host = settings.Server.Host
	cfg.Port = settings.Server.Port
	if len(settings.Server.CORSAllowOrigins) > 0 {
		cfg.AllowedOrigins = settings.Server.CORSAllowOrigins
	}
	cfg.EnableDebugRoutes = settings.Server.EnableDebugRoutes
	cfg.APIKey = settings.Security.APIKey
	cfg.MaxUploadBytes = settings.Limits.MaxUploadBytes()
	cfg.RateLimitRPM = settings.Limits.RateLimitRPM
	cfg.MetricsEnabled = settings.Observability.Metrics
	cfg.Device = settings.Detector.Device

	return cfg
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", c.Port)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("upload limit must be positive")
	}
	if c.RateLimitRPM < 1 {
		return fmt.Errorf("rate limit must be at least 1 request per minute")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	return nil
}

// Address returns the full address string for the server to listen on.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// String returns a human-readable representation of the config.
func (c *Config) String() string {
	auth := "disabled"
	if c.APIKey != "" {
		auth = "api-key"
	}
	return fmt.Sprintf("Server Config: address=%s, auth=%s, debug_routes=%v",
		c.Address(), auth, c.EnableDebugRoutes)
}

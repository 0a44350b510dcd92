package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/tphakala/voicedetect/internal/api/middleware"
	"github.com/tphakala/voicedetect/internal/classifier"
	"github.com/tphakala/voicedetect/internal/logger"
	"github.com/tphakala/voicedetect/internal/observability"
	"github.com/tphakala/voicedetect/internal/observability/metrics"
)

// Server is the HTTP server for the voice detection API.
// It owns the Echo instance, middleware and all routes.
type Server struct {
	echo   *echo.Echo
	config *Config
	log    logger.Logger

	// Dependencies
	classifier *classifier.Service
	metrics    *observability.Metrics
	reload     func() error
	limiter    *slidingWindowStore

	startTime time.Time
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithClassifier sets the classification service. Required.
func WithClassifier(svc *classifier.Service) ServerOption {
	return func(s *Server) {
		s.classifier = svc
	}
}

// WithMetrics sets the observability metrics for the server.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the logger used for server events.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		s.log = l
	}
}

// WithReloader sets the function run on SIGHUP, typically a threshold reload.
func WithReloader(fn func() error) ServerOption {
	return func(s *Server) {
		s.reload = fn
	}
}

// New creates a new HTTP server with the given configuration and options.
func New(config *Config, opts ...ServerOption) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{
		config:    config,
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.classifier == nil {
		return nil, fmt.Errorf("a classifier is required")
	}
	if s.log == nil {
		s.log = GetLogger()
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.httpErrorHandler

	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()

	s.log.Info("HTTP server initialized",
		logger.String("address", config.Address()),
		logger.Bool("auth", config.APIKey != ""),
		logger.Bool("debug_routes", config.EnableDebugRoutes),
		logger.String("detector", s.classifier.DetectorName()))

	return s, nil
}

// httpMetrics returns the HTTP collectors, or nil when metrics are disabled
func (s *Server) httpMetrics() *metrics.HTTPMetrics {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.HTTP
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	// Recovery middleware - should be first
	s.echo.Use(echomw.Recover())

	// Request IDs double as trace IDs for the module loggers
	s.echo.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			ctx := logger.WithTraceID(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
		},
	}))

	s.echo.Use(mw.NewRequestLogger(logger.Global().Module("access")))

	securityConfig := mw.SecurityConfig{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowCredentials: true,
		HSTSMaxAge:       mw.HSTSMaxAge,
	}
	s.echo.Use(mw.NewCORS(securityConfig))
	s.echo.Use(mw.NewSecureHeaders(securityConfig))

	s.limiter = newSlidingWindowStore(s.config.RateLimitRPM, rateLimitWindow)
	s.echo.Use(newRateLimiter(s.limiter, s.httpMetrics(), s.log))

	s.echo.Use(mw.NewMetrics(s.httpMetrics()))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/", s.root)

	// Multipart and base64 overhead on top of the raw upload limit
	bodyLimit := mw.NewBodyLimit(fmt.Sprintf("%dK", s.config.MaxUploadBytes*4/3/1024+1024))

	v1 := s.echo.Group("/api/v1")
	v1.GET("/health", s.health)
	v1.GET("/languages", s.languages)
	v1.POST("/classify", s.classify, bodyLimit, s.requireAPIKey)

	s.echo.POST("/api/voice-detection", s.voiceDetection, bodyLimit, s.requireAPIKey)

	debug := v1.Group("/_debug", bodyLimit, s.requireAPIKey, s.requireDebugRoutes)
	debug.POST("/upload", s.debugUpload)
	debug.POST("/features", s.debugFeatures)
	debug.POST("/infer", s.debugInfer)

	if s.metrics != nil && s.config.MetricsEnabled {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
}

// Start begins serving HTTP requests in a background goroutine and returns immediately.
// Use Shutdown() to stop the server.
func (s *Server) Start() {
	go func() {
		if err := s.startBlocking(); err != nil {
			s.log.Error("server error", logger.Error(err))
		}
	}()
}

// startBlocking serves HTTP requests until the server is shut down.
func (s *Server) startBlocking() error {
	addr := s.config.Address()
	s.log.Info("starting HTTP server", logger.String("address", addr))

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartWithGracefulShutdown starts the server and blocks until SIGINT or SIGTERM,
// then shuts down gracefully. SIGHUP runs the reloader without stopping.
func (s *Server) StartWithGracefulShutdown() error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signals)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.startBlocking()
	}()

wait:
	for {
		select {
		case err := <-serveErr:
			// The listener failed before any shutdown was requested
			return err
		case sig := <-signals:
			if sig == syscall.SIGHUP {
				s.Reload()
				continue
			}
			s.log.Info("shutdown signal received", logger.String("signal", sig.String()))
			break wait
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// Reload runs the configured reloader, logging the outcome. A failed reload
// keeps the previous state.
func (s *Server) Reload() {
	if s.reload == nil {
		s.log.Debug("reload requested but no reloader is configured")
		return
	}
	if err := s.reload(); err != nil {
		s.log.Error("reload failed, keeping previous thresholds", logger.Error(err))
		return
	}
	s.log.Info("reload complete")
}

// Shutdown gracefully stops the server, waiting for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.log.Info("server shutdown complete")
	return nil
}

// Echo returns the underlying Echo instance.
// This is useful for testing or advanced configuration.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

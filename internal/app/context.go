package app

import (
	"context"

	"github.com/tphakala/voicedetect/internal/buildinfo"
	"github.com/tphakala/voicedetect/internal/conf"
	"github.com/tphakala/voicedetect/internal/logger"
)

// Context is shared by the CLI commands. Settings and Logger are filled in
// by Initialize before a command runs.
type Context struct {
	Build    *buildinfo.Context
	Settings *conf.Settings
	Logger   *logger.CentralLogger
}

// NewContext creates a Context for the given build metadata
func NewContext(build *buildinfo.Context) *Context {
	return &Context{Build: build}
}

// Initialize loads the settings, from configFile when given, and sets up
// logging, error telemetry and tracing.
func (c *Context) Initialize(ctx context.Context, configFile string) error {
	var (
		settings *conf.Settings
		err      error
	)
	if configFile != "" {
		settings, err = conf.LoadFile(configFile)
	} else {
		settings, err = conf.Load()
	}
	if err != nil {
		return err
	}
	c.Settings = settings

	cl, err := SetupLogging(settings)
	if err != nil {
		return err
	}
	c.Logger = cl

	log := GetLogger()
	if err := SetupTelemetry(settings, c.Build); err != nil {
		// Telemetry is optional; the service runs without it
		log.Warn("error telemetry disabled", logger.Error(err))
	}
	if err := SetupTracing(ctx, settings, c.Build); err != nil {
		return err
	}

	log.Debug("initialized",
		logger.String("version", c.Build.Version()),
		logger.String("environment", settings.Main.Environment),
		logger.String("log_level", settings.Log.Level))
	return nil
}

// Close flushes tracing, telemetry and logs. It is safe to call when
// Initialize did not run.
func (c *Context) Close() error {
	if c.Logger == nil {
		return nil
	}
	return Shutdown(c.Logger)
}

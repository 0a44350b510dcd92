package app

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/voicedetect/internal/buildinfo"
	"github.com/tphakala/voicedetect/internal/conf"
	"github.com/tphakala/voicedetect/internal/errors"
	"github.com/tphakala/voicedetect/internal/logger"
	"github.com/tphakala/voicedetect/internal/observability"
)

// flushTimeout bounds how long shutdown waits for telemetry to drain
const flushTimeout = 5 * time.Second

// SetupLogging installs the central logger described by settings as the
// global logger. Console output goes to stderr so stdout stays usable for
// command output.
func SetupLogging(settings *conf.Settings) (*logger.CentralLogger, error) {
	level := settings.Log.Level
	cfg := &logger.LoggingConfig{
		DefaultLevel: level,
		Console:      &logger.ConsoleOutput{Enabled: true, Level: level, Stderr: true},
	}
	if settings.Log.File != "" {
		cfg.FileOutput = &logger.FileOutput{Enabled: true, Path: settings.Log.File, Level: level}
	}

	cl, err := logger.NewCentralLogger(cfg)
	if err != nil {
		return nil, errors.New(err).
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}
	logger.SetGlobal(cl)
	return cl, nil
}

// SetupTelemetry enables Sentry error reporting when a DSN is configured
func SetupTelemetry(settings *conf.Settings, build *buildinfo.Context) error {
	if settings.Telemetry.SentryDSN == "" {
		return nil
	}
	if err := errors.InitSentry(settings.Telemetry.SentryDSN, settings.Main.Environment, build.Version()); err != nil {
		return err
	}
	GetLogger().Info("error telemetry enabled", logger.String("environment", settings.Main.Environment))
	return nil
}

// SetupTracing installs the configured OpenTelemetry exporter
func SetupTracing(ctx context.Context, settings *conf.Settings, build *buildinfo.Context) error {
	tracing := settings.Observability.Tracing
	return observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:    settings.Main.Name,
		ServiceVersion: build.Version(),
		Environment:    settings.Main.Environment,
		Exporter:       tracing.Exporter,
		Endpoint:       tracing.Endpoint,
		SampleRate:     tracing.SampleRate,
	})
}

// Shutdown flushes tracing, telemetry and logs
func Shutdown(cl *logger.CentralLogger) error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	var errs []error
	if err := observability.ShutdownTracing(ctx); err != nil {
		errs = append(errs, err)
	}
	sentry.Flush(flushTimeout)
	if err := cl.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// env.go: environment variable bindings
package conf

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/tphakala/voicedetect/internal/logger"
)

// envBinding maps a config key to its environment variable
type envBinding struct {
	ConfigKey string
	EnvVar    string
	Validate  func(string) error
	// Normalize converts the raw value before it is applied. Used where the
	// accepted spellings are wider than viper's own type conversion.
	Normalize func(string) any
}

// getEnvBindings returns all environment variable bindings
func getEnvBindings() []envBinding {
	return []envBinding{
		{"main.environment", "ENVIRONMENT", nil, nil},

		{"server.host", "HOST", nil, nil},
		{"server.port", "PORT", validateEnvPort, nil},
		{"server.corsalloworigins", "CORS_ALLOW_ORIGINS", nil, normalizeList},
		{"server.enabledebugroutes", "ENABLE_DEBUG_ROUTES", nil, normalizeBool},

		{"security.apikey", "API_KEY", nil, nil},
		{"security.apikeyfile", "API_KEY_FILE", nil, nil},

		{"limits.maxuploadmb", "MAX_UPLOAD_MB", validatePositiveInt, nil},
		{"limits.ratelimitrpm", "RATE_LIMIT_RPM", validatePositiveInt, nil},
		{"limits.minduration", "MIN_DURATION_SECONDS", validateNonNegativeFloat, nil},
		{"limits.maxduration", "MAX_DURATION_SECONDS", validateNonNegativeFloat, nil},

		{"detector.maxconcurrent", "MAX_CONCURRENT_DETECTIONS", validateNonNegativeInt, nil},
		{"detector.mode", "DETECTOR_MODE", validateOneOf(DetectorModes...), nil},
		{"detector.thresholdspath", "THRESHOLDS_PATH", nil, nil},
		{"detector.modelpath", "MODEL_PATH", nil, nil},
		{"detector.device", "DEVICE", validateOneOf(Devices...), nil},

		{"audio.samplerate", "SAMPLE_RATE", validatePositiveInt, nil},
		{"audio.ffmpegpath", "FFMPEG_PATH", nil, nil},
		{"audio.ffprobepath", "FFPROBE_PATH", nil, nil},

		{"log.level", "LOG_LEVEL", validateLogLevel, nil},
		{"log.file", "LOG_FILE", nil, nil},

		{"observability.metrics", "METRICS_ENABLED", validateEnvBool, nil},
		{"observability.tracing.exporter", "TRACING_EXPORTER", validateOneOf(TraceExporters...), nil},
		{"observability.tracing.endpoint", "OTLP_ENDPOINT", nil, nil},
		{"observability.tracing.samplerate", "TRACING_SAMPLE_RATE", validateUnitFloat, nil},

		{"telemetry.sentrydsn", "SENTRY_DSN", nil, nil},
	}
}

// bindEnvVars binds all environment variables and validates the ones that are set.
// Invalid values are collected and returned together; binding continues past them.
func bindEnvVars() error {
	var errs []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			errs = append(errs, fmt.Sprintf("failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		// viper ignores empty variables, so do the same here
		value, ok := os.LookupEnv(binding.EnvVar)
		if !ok || value == "" {
			continue
		}

		if binding.Validate != nil {
			if err := binding.Validate(value); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", binding.EnvVar, err))
				continue
			}
		}

		if binding.Normalize != nil {
			viper.Set(binding.ConfigKey, binding.Normalize(value))
		}

		GetLogger().Debug("bound environment variable",
			logger.String("env", binding.EnvVar),
			logger.String("key", binding.ConfigKey))
	}

	if len(errs) > 0 {
		return fmt.Errorf("environment variable validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validatePositiveInt(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1, got %d", n)
	}
	return nil
}

func validateNonNegativeInt(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	if n < 0 {
		return fmt.Errorf("must be non-negative, got %d", n)
	}
	return nil
}

func validateNonNegativeFloat(value string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("invalid number: %w", err)
	}
	if f < 0 {
		return fmt.Errorf("must be non-negative, got %g", f)
	}
	return nil
}

func validateUnitFloat(value string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("invalid number: %w", err)
	}
	if f < 0 || f > 1 {
		return fmt.Errorf("must be between 0.0 and 1.0, got %g", f)
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("must be true or false, got %q", value)
	}
	return nil
}

func validateLogLevel(value string) error {
	if !logger.ValidLevel(value) {
		return fmt.Errorf("must be one of: trace, debug, info, warn, error")
	}
	return nil
}

func validateOneOf(allowed ...string) func(string) error {
	return func(value string) error {
		if slices.Contains(allowed, strings.ToLower(strings.TrimSpace(value))) {
			return nil
		}
		return fmt.Errorf("must be one of: %s", strings.Join(allowed, ", "))
	}
}

// normalizeBool accepts 1, true, yes and on (any case) as true
func normalizeBool(value string) any {
	return ParseBool(value)
}

func normalizeList(value string) any {
	return splitList([]string{value})
}

// ParseBool reports whether value is one of 1, true, yes or on, ignoring case
func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

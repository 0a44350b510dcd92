// config.go: voice detection service configuration
package conf

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/tphakala/voicedetect/internal/errors"
	"github.com/tphakala/voicedetect/internal/logger"
	"github.com/tphakala/voicedetect/internal/secrets"
)

// MainSettings holds process-wide identity settings
type MainSettings struct {
	Name        string // service name reported to tracing
	Environment string // deployment environment: dev, staging, prod
}

// ServerSettings holds HTTP listener settings
type ServerSettings struct {
	Host              string
	Port              int
	CORSAllowOrigins  []string
	EnableDebugRoutes bool
}

// Address returns the host:port the HTTP server listens on
func (s *ServerSettings) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecuritySettings holds API authentication settings
type SecuritySettings struct {
	APIKey     string // empty disables authentication; may reference ${ENV} variables
	APIKeyFile string // secret file holding the key, takes precedence over APIKey
}

// LimitSettings holds request and audio limits
type LimitSettings struct {
	MaxUploadMB  int     // upload size limit in megabytes
	RateLimitRPM int     // requests per minute per client IP
	MinDuration  float64 // shortest accepted clip in seconds
	MaxDuration  float64 // longest accepted clip in seconds
}

// MaxUploadBytes returns the upload limit in bytes
func (l *LimitSettings) MaxUploadBytes() int64 {
	return int64(l.MaxUploadMB) * 1024 * 1024
}

// DetectorSettings selects and configures the detection backend
type DetectorSettings struct {
	Mode           string // heuristic or neural
	MaxConcurrent  int    // 0 uses GOMAXPROCS
	ThresholdsPath string // optional YAML threshold override
	ModelPath      string // neural weights, JSON
	Device         string // auto, cpu or cuda; inference always runs on CPU
}

// AudioSettings configures decoding
type AudioSettings struct {
	SampleRate  int
	FfmpegPath  string
	FfprobePath string
	TempDir     string
}

// LogSettings configures the central logger
type LogSettings struct {
	Level string
	File  string // JSON lines log file, empty logs to console only
}

// TracingSettings configures OpenTelemetry tracing
type TracingSettings struct {
	Exporter   string // none, stdout or otlp
	Endpoint   string
	SampleRate float64
}

// ObservabilitySettings groups metrics and tracing
type ObservabilitySettings struct {
	Metrics bool
	Tracing TracingSettings
}

// TelemetrySettings configures error telemetry
type TelemetrySettings struct {
	SentryDSN string
}

// Settings contains all configuration options for the service
type Settings struct {
	Debug bool // enables debug logging regardless of log.level

	Main          MainSettings
	Server        ServerSettings
	Security      SecuritySettings
	Limits        LimitSettings
	Detector      DetectorSettings
	Audio         AudioSettings
	Log           LogSettings
	Observability ObservabilitySettings
	Telemetry     TelemetrySettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration from .env, config.yaml, the environment and
// any bound flags, validates it and stores it as the current settings.
func Load() (*Settings, error) {
	return load("")
}

// LoadFile is like Load but reads the given config file instead of
// searching the default locations. A missing file is an error.
func LoadFile(path string) (*Settings, error) {
	return load(path)
}

func load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	// A missing .env file is the normal case
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		GetLogger().Warn("failed to load .env file", logger.Error(err))
	}

	if err := initViper(configFile); err != nil {
		return nil, err
	}

	settings := new(Settings)
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	normalizeSettings(settings)

	if err := resolveSecrets(settings); err != nil {
		return nil, err
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}

	settings.Audio.FfmpegPath = ValidateToolPath(settings.Audio.FfmpegPath, "ffmpeg")
	settings.Audio.FfprobePath = ValidateToolPath(settings.Audio.FfprobePath, "ffprobe")

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper applies defaults, reads the optional config file and binds the environment
func initViper(configFile string) error {
	setDefaultConfig()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		for _, path := range GetDefaultConfigPaths() {
			viper.AddConfigPath(path)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return errors.New(fmt.Errorf("fatal error reading config file: %w", err)).
				Component("conf").
				Category(errors.CategoryConfiguration).
				Context("config_file", configFile).
				Build()
		}
		GetLogger().Debug("no config file found, using defaults and environment")
	} else {
		GetLogger().Info("loaded config file", logger.String("path", viper.ConfigFileUsed()))
	}

	if err := bindEnvVars(); err != nil {
		// Invalid environment values are reported but the field falls back to
		// whatever viper resolves; ValidateSettings rejects anything unusable.
		GetLogger().Warn("environment variable issues", logger.Error(err))
	}

	return nil
}

// resolveSecrets reads secret files and expands environment references in
// credential fields
func resolveSecrets(s *Settings) error {
	key, err := secrets.Resolve(s.Security.APIKeyFile, s.Security.APIKey)
	if err != nil {
		return fmt.Errorf("failed to resolve API key: %w", err)
	}
	s.Security.APIKey = key

	dsn, err := secrets.Resolve("", s.Telemetry.SentryDSN)
	if err != nil {
		return fmt.Errorf("failed to resolve Sentry DSN: %w", err)
	}
	s.Telemetry.SentryDSN = dsn
	return nil
}

// normalizeSettings canonicalizes free-form values after unmarshaling
func normalizeSettings(s *Settings) {
	s.Main.Environment = strings.ToLower(strings.TrimSpace(s.Main.Environment))
	s.Log.Level = strings.ToLower(strings.TrimSpace(s.Log.Level))
	s.Detector.Mode = strings.ToLower(strings.TrimSpace(s.Detector.Mode))
	s.Detector.Device = strings.ToLower(strings.TrimSpace(s.Detector.Device))
	s.Observability.Tracing.Exporter = strings.ToLower(strings.TrimSpace(s.Observability.Tracing.Exporter))
	s.Server.CORSAllowOrigins = splitList(s.Server.CORSAllowOrigins)
	if s.Debug {
		s.Log.Level = "debug"
	}
}

// splitList flattens comma separated entries and drops empty ones
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// GetSettings returns the current settings instance, or nil before Load
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

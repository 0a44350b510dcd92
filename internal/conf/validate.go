// validate.go: settings validation
package conf

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/tphakala/voicedetect/internal/logger"
)

// Accepted values for enumerated settings
var (
	DetectorModes  = []string{"heuristic", "neural"}
	Devices        = []string{"auto", "cpu", "cuda"}
	TraceExporters = []string{"none", "stdout", "otlp"}
)

// minSampleRate keeps the highest spectral contrast band below Nyquist
const minSampleRate = 12800

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %v", ve.Errors)
}

// ValidateSettings validates all settings and returns every problem found
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	collect := func(errs []string) {
		ve.Errors = append(ve.Errors, errs...)
	}

	collect(validateServerSettings(&settings.Server))
	collect(validateLimitSettings(&settings.Limits))
	collect(validateDetectorSettings(&settings.Detector))
	collect(validateAudioSettings(&settings.Audio))
	collect(validateLogSettings(&settings.Log))
	collect(validateObservabilitySettings(&settings.Observability))

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateServerSettings(s *ServerSettings) []string {
	var errs []string
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server port must be between 1 and 65535, got %d", s.Port))
	}
	if strings.TrimSpace(s.Host) == "" {
		errs = append(errs, "server host must not be empty")
	}
	if len(s.CORSAllowOrigins) == 0 {
		errs = append(errs, "at least one CORS origin is required, use * to allow all")
	}
	return errs
}

func validateLimitSettings(l *LimitSettings) []string {
	var errs []string
	if l.MaxUploadMB < 1 {
		errs = append(errs, fmt.Sprintf("max upload size must be at least 1 MB, got %d", l.MaxUploadMB))
	}
	if l.RateLimitRPM < 1 {
		errs = append(errs, fmt.Sprintf("rate limit must be at least 1 request per minute, got %d", l.RateLimitRPM))
	}
	if l.MinDuration < 0 || math.IsNaN(l.MinDuration) {
		errs = append(errs, fmt.Sprintf("minimum duration must be non-negative, got %g", l.MinDuration))
	}
	if l.MaxDuration <= l.MinDuration || math.IsNaN(l.MaxDuration) {
		errs = append(errs, fmt.Sprintf("maximum duration %g must exceed minimum duration %g", l.MaxDuration, l.MinDuration))
	}
	return errs
}

func validateDetectorSettings(d *DetectorSettings) []string {
	var errs []string
	if !slices.Contains(DetectorModes, d.Mode) {
		errs = append(errs, fmt.Sprintf("detector mode must be one of %s, got %q", strings.Join(DetectorModes, ", "), d.Mode))
	}
	if !slices.Contains(Devices, d.Device) {
		errs = append(errs, fmt.Sprintf("device must be one of %s, got %q", strings.Join(Devices, ", "), d.Device))
	}
	if d.MaxConcurrent < 0 {
		errs = append(errs, fmt.Sprintf("max concurrent detections must be non-negative, got %d", d.MaxConcurrent))
	}
	if d.Mode == "neural" && d.ModelPath == "" {
		errs = append(errs, "model path is required in neural mode")
	}
	if d.Device == "cuda" {
		GetLogger().Warn("CUDA requested but inference runs on CPU", logger.String("device", d.Device))
	}
	return errs
}

func validateAudioSettings(a *AudioSettings) []string {
	if a.SampleRate <= minSampleRate {
		return []string{fmt.Sprintf("sample rate must exceed %d Hz, got %d", minSampleRate, a.SampleRate)}
	}
	return nil
}

func validateLogSettings(l *LogSettings) []string {
	if !logger.ValidLevel(l.Level) {
		return []string{fmt.Sprintf("log level must be one of trace, debug, info, warn, error, got %q", l.Level)}
	}
	return nil
}

func validateObservabilitySettings(o *ObservabilitySettings) []string {
	var errs []string
	t := &o.Tracing
	if !slices.Contains(TraceExporters, t.Exporter) {
		errs = append(errs, fmt.Sprintf("tracing exporter must be one of %s, got %q", strings.Join(TraceExporters, ", "), t.Exporter))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 || math.IsNaN(t.SampleRate) {
		errs = append(errs, fmt.Sprintf("tracing sample rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	if t.Exporter == "otlp" && t.Endpoint == "" {
		errs = append(errs, "OTLP endpoint is required when the otlp exporter is selected")
	}
	return errs
}

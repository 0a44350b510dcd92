package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateToolPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tool := filepath.Join(dir, "ffmpeg-custom")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\n"), 0o755))

	t.Run("configured path exists", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, tool, ValidateToolPath(tool, "ffmpeg"))
	})

	t.Run("directory is not a tool", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, dir, ValidateToolPath(dir, "voicedetect-no-such-tool"))
	})

	t.Run("missing tool falls back to name", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "voicedetect-no-such-tool", ValidateToolPath("", "voicedetect-no-such-tool"))
	})
}

func TestGetDefaultConfigPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	paths := GetDefaultConfigPaths()
	require.Len(t, paths, 2)
	assert.Equal(t, ".", paths[0])
	assert.Equal(t, filepath.Join(home, ".config", "voicedetect"), paths[1])
}

func TestParseBool(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"1", "true", "TRUE", " yes ", "On"} {
		assert.True(t, ParseBool(v), v)
	}
	for _, v := range []string{"", "0", "false", "no", "off", "y"} {
		assert.False(t, ParseBool(v), v)
	}
}

func TestValidateSettingsCollectsAllErrors(t *testing.T) {
	t.Parallel()

	settings := &Settings{
		Server:   ServerSettings{Host: "", Port: 0},
		Limits:   LimitSettings{MaxUploadMB: 0, RateLimitRPM: 0, MinDuration: 1, MaxDuration: 1},
		Detector: DetectorSettings{Mode: "heuristic", Device: "tpu"},
		Audio:    AudioSettings{SampleRate: 16000},
		Log:      LogSettings{Level: "info"},
		Observability: ObservabilitySettings{
			Tracing: TracingSettings{Exporter: "none", SampleRate: 1},
		},
	}

	err := ValidateSettings(settings)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	// port, host, cors, upload, rate limit, durations, device
	assert.Len(t, ve.Errors, 7)
}

func TestEnvValidators(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateEnvPort("8000"))
	assert.Error(t, validateEnvPort("70000"))
	assert.Error(t, validateEnvPort("http"))
	assert.NoError(t, validatePositiveInt("1"))
	assert.Error(t, validatePositiveInt("0"))
	assert.NoError(t, validateNonNegativeInt("0"))
	assert.Error(t, validateNonNegativeInt("-1"))
	assert.NoError(t, validateUnitFloat("0.5"))
	assert.Error(t, validateUnitFloat("2"))
	assert.NoError(t, validateLogLevel("WARN"))
	assert.Error(t, validateLogLevel("loud"))
	assert.NoError(t, validateOneOf(TraceExporters...)("OTLP"))
	assert.Error(t, validateOneOf(TraceExporters...)("jaeger"))
}

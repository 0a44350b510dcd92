package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/voicedetect/internal/logger"
)

func TestTextOutputFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cl := logger.NewWriterLogger(&buf, logger.LogLevelDebug)
	log := cl.Module("features")

	log.Info("extracted features",
		logger.String("language", "Tamil"),
		logger.Float64("pitch_variance", 0.123456),
		logger.Int("frames", 94),
		logger.Duration("elapsed", 1500*time.Millisecond))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "INFO  [features] extracted features"), out)
	assert.Contains(t, out, "language=Tamil")
	assert.Contains(t, out, "pitch_variance=0.123")
	assert.Contains(t, out, "frames=94")
	assert.Contains(t, out, "elapsed=1.5s")
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cl := logger.NewWriterLogger(&buf, logger.LogLevelWarn)
	log := cl.Module("audio")

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown warn")
	log.Log(logger.LogLevelError, "shown error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN  [audio] shown warn")
	assert.Contains(t, out, "ERROR [audio] shown error")
}

func TestModuleLevelInheritance(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cl := logger.NewWriterLogger(&buf, logger.LogLevelInfo)
	cl.SetModuleLevel("api", logger.LogLevelDebug)

	cl.Module("api.middleware").Debug("request accepted")
	cl.Module("scoring").Debug("not shown")

	out := buf.String()
	assert.Contains(t, out, "[api.middleware] request accepted")
	assert.NotContains(t, out, "not shown")
}

func TestSubModuleAndWith(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cl := logger.NewWriterLogger(&buf, logger.LogLevelInfo)
	parent := cl.Module("detector").With(logger.String("detector", "heuristic"))
	child := parent.Module("pool")

	child.Info("acquired slot")
	parent.Info("scored", logger.Error(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "[detector.pool] acquired slot detector=heuristic")
	assert.Contains(t, out, "[detector] scored detector=heuristic error=boom")
}

func TestWithContextTraceID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cl := logger.NewWriterLogger(&buf, logger.LogLevelInfo)
	log := cl.Module("api")

	ctx := logger.WithTraceID(context.Background(), "req-42")
	log.WithContext(ctx).Info("handled")
	log.WithContext(context.Background()).Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "trace_id=req-42")
	assert.NotContains(t, lines[1], "trace_id")
}

func TestSensitiveRedaction(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cl := logger.NewWriterLogger(&buf, logger.LogLevelInfo)
	log := cl.Module("api")

	log.Info("auth header x-api-key: s3cr3t-value", logger.String("api_key", "another-secret"))

	out := buf.String()
	assert.NotContains(t, out, "s3cr3t-value")
	assert.NotContains(t, out, "another-secret")
	assert.Contains(t, out, "[REDACTED]")
}

func TestRedactSensitiveData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		leak  string
	}{
		{"bearer token", "Authorization: Bearer abcdef123456", "abcdef123456"},
		{"api key assignment", "api_key=abcdef123456", "abcdef123456"},
		{"data uri payload", "body data:audio/wav;base64,UklGRiQAAABXQVZFZm10IBAAAAAB", "UklGRiQAAABXQVZF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := logger.RedactSensitiveData(tt.input)
			assert.NotContains(t, out, tt.leak)
			assert.Contains(t, out, "[REDACTED]")
		})
	}

	assert.Empty(t, logger.RedactSensitiveData(""))
	assert.Equal(t, "nothing to hide", logger.RedactSensitiveData("nothing to hide"))
}

func TestFileOutputIsJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "voicedetect.log")
	cl, err := logger.NewCentralLogger(&logger.LoggingConfig{
		DefaultLevel: "debug",
		Timezone:     "UTC",
		Console:      &logger.ConsoleOutput{Enabled: false},
		FileOutput:   &logger.FileOutput{Enabled: true, Path: path},
	})
	require.NoError(t, err)

	cl.Module("classifier").Info("classified", logger.String("classification", "HUMAN"))
	require.NoError(t, cl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "classified", entry["msg"])
	assert.Equal(t, "classifier", entry["module"])
	assert.Equal(t, "HUMAN", entry["classification"])
}

func TestReopenAfterRotation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	cl, err := logger.NewCentralLogger(&logger.LoggingConfig{
		Console:    &logger.ConsoleOutput{Enabled: false},
		FileOutput: &logger.FileOutput{Enabled: true, Path: path},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cl.Close() })

	cl.Module("main").Info("before rotation")
	require.NoError(t, cl.Flush())
	require.NoError(t, os.Rename(path, filepath.Join(dir, "app.log.1")))

	require.NoError(t, cl.ReopenLogFile())
	cl.Module("main").Info("after rotation")
	require.NoError(t, cl.Flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "after rotation")
	assert.NotContains(t, string(data), "before rotation")
}

func TestInvalidTimezone(t *testing.T) {
	t.Parallel()

	_, err := logger.NewCentralLogger(&logger.LoggingConfig{Timezone: "Mars/Olympus"})
	require.Error(t, err)

	_, err = logger.NewCentralLogger(nil)
	require.Error(t, err)
}

func TestValidLevel(t *testing.T) {
	t.Parallel()

	assert.True(t, logger.ValidLevel("DEBUG"))
	assert.True(t, logger.ValidLevel(" warn "))
	assert.False(t, logger.ValidLevel("verbose"))
}

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectorMetricsRecorder(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewDetectorMetrics(registry, "heuristic")
	require.NoError(t, err)

	var rec Recorder = m
	rec.RecordOperation(OpDetection, "AI_GENERATED")
	rec.RecordOperation(OpDetection, "AI_GENERATED")
	rec.RecordOperation(OpDetection, "HUMAN")
	rec.RecordOperation(OpThresholdReload, StatusSuccess)
	rec.RecordDuration(OpDetection, 0.05)
	rec.RecordDuration(OpDecode, 0.01)
	rec.RecordError(OpDecode, "audio-decode")

	assert.InDelta(t, 2, testutil.ToFloat64(m.detectionsTotal.WithLabelValues("heuristic", "AI_GENERATED")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.detectionsTotal.WithLabelValues("heuristic", "HUMAN")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.operationsTotal.WithLabelValues(OpThresholdReload, StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.detectionErrors.WithLabelValues("heuristic", OpDecode, "audio-decode")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.detectionDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.decodeDuration))

	for range 3 {
		m.DetectionStarted()
	}
	m.DetectionFinished()
	m.SetPoolSize(8)
	m.RecordErrorCategory("silent-audio")
	m.RecordAudioDuration(2.5)
	assert.InDelta(t, 2, testutil.ToFloat64(m.activeDetections), 0)
	assert.InDelta(t, 8, testutil.ToFloat64(m.poolSize), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.errorsByCategory.WithLabelValues("silent-audio")), 0)
}

func TestDetectorMetricsDuplicateRegistration(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_, err := NewDetectorMetrics(registry, "heuristic")
	require.NoError(t, err)
	_, err = NewDetectorMetrics(registry, "heuristic")
	require.Error(t, err)
}

func TestHTTPMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewHTTPMetrics(registry)
	require.NoError(t, err)

	m.RecordHTTPRequest("POST", "/api/v1/classify", 200, 0.2)
	m.RecordHTTPRequest("POST", "/api/v1/classify", 400, 0.01)
	m.RecordHTTPRequestError("POST", "/api/v1/classify", "client")
	m.RecordHTTPResponseSize("POST", "/api/v1/classify", 512)
	m.RecordUploadSize("/api/v1/classify", 4096)
	m.RecordAuthOperation("invalid")
	m.RecordRateLimited()

	assert.InDelta(t, 1, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("POST", "/api/v1/classify", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("POST", "/api/v1/classify", "400")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.httpRequestErrors.WithLabelValues("POST", "/api/v1/classify", "client")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.authOperationsTotal.WithLabelValues("invalid")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.rateLimitedTotal), 0)
}

// pipelineStage records through the Recorder abstraction only
type pipelineStage struct {
	metrics Recorder
}

func (p *pipelineStage) run(fail bool) {
	p.metrics.RecordDuration(OpDecode, 0.001)
	if fail {
		p.metrics.RecordError(OpDecode, "audio-decode")
		return
	}
	p.metrics.RecordOperation(OpDetection, "HUMAN")
}

func TestRecorderAbstraction(t *testing.T) {
	t.Parallel()

	rec := newFakeRecorder()
	assert.True(t, rec.empty())

	stage := &pipelineStage{metrics: rec}
	stage.run(false)
	stage.run(true)

	assert.Equal(t, 1, rec.ops[OpDetection+"/HUMAN"])
	assert.Equal(t, 1, rec.errs[OpDecode+"/audio-decode"])
	assert.Equal(t, 2, rec.durations[OpDecode])
	assert.False(t, rec.empty())

	noop := &pipelineStage{metrics: NewNoOpRecorder()}
	noop.run(true)
}

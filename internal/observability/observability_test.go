package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tphakala/voicedetect/internal/observability/metrics"
)

func TestMetricsHandler(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics("heuristic")
	require.NoError(t, err)

	m.Detector.RecordOperation(metrics.OpDetection, "HUMAN")
	m.HTTP.RecordHTTPRequest(http.MethodGet, "/api/v1/health", http.StatusOK, 0.001)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `voicedetect_detections_total{detector="heuristic",label="HUMAN"} 1`)
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, "go_goroutines")
	assert.NotNil(t, m.Registry())
}

func TestInitTracingNone(t *testing.T) {
	t.Parallel()

	require.NoError(t, InitTracing(context.Background(), TracingConfig{Exporter: ExporterNone}))
	require.NoError(t, InitTracing(context.Background(), TracingConfig{}))

	ctx, span := StartSpan(context.Background(), "noop")
	defer span.End()
	assert.Empty(t, TraceID(ctx))
}

func TestNewExporterRejectsUnknown(t *testing.T) {
	t.Parallel()

	_, err := newExporter(context.Background(), TracingConfig{Exporter: "zipkin"})
	require.Error(t, err)
}

func TestRecordErrorOnSpan(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	ctx, span := provider.Tracer(TracerName).Start(context.Background(), "decode")
	assert.NotEmpty(t, TraceID(ctx))
	RecordError(span, assert.AnError)
	RecordError(span, nil)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "decode", spans[0].Name())
	assert.Len(t, spans[0].Events(), 1)
}

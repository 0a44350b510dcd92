package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// DetectorMetrics contains Prometheus metrics for the detection pipeline.
type DetectorMetrics struct {
	// detector identifies the active implementation (heuristic or neural)
	detector string

	detectionsTotal   *prometheus.CounterVec
	detectionErrors   *prometheus.CounterVec
	detectionDuration *prometheus.HistogramVec
	decodeDuration    prometheus.Histogram
	audioDuration     prometheus.Histogram
	operationsTotal   *prometheus.CounterVec
	errorsByCategory  *prometheus.CounterVec
	activeDetections  prometheus.Gauge
	poolSize          prometheus.Gauge
}

// NewDetectorMetrics creates and registers detection metrics labelled with detector
func NewDetectorMetrics(registry *prometheus.Registry, detector string) (*DetectorMetrics, error) {
	m := &DetectorMetrics{detector: detector}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register detector metrics: %w", err)
	}
	return m, nil
}

func (m *DetectorMetrics) initMetrics() {
	m.detectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicedetect_detections_total",
			Help: "Total number of completed detections partitioned by label",
		},
		[]string{"detector", "label"},
	)

	m.detectionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicedetect_detection_errors_total",
			Help: "Total number of failed requests partitioned by stage and error category",
		},
		[]string{"detector", "stage", "category"},
	)

	m.detectionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voicedetect_detection_duration_seconds",
			Help:    "Time taken to run the detector on a decoded waveform",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12), // 1ms to ~2s
		},
		[]string{"detector"},
	)

	m.decodeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "voicedetect_decode_duration_seconds",
			Help:    "Time taken to decode uploaded audio",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
		},
	)

	m.audioDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "voicedetect_audio_duration_seconds",
			Help:    "Playback length of decoded audio",
			Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount10), // 100ms to ~51s
		},
	)

	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicedetect_operations_total",
			Help: "Total number of auxiliary operations",
		},
		[]string{"operation", "status"},
	)

	m.errorsByCategory = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicedetect_errors_total",
			Help: "Total number of errors built, partitioned by category",
		},
		[]string{"category"},
	)

	m.activeDetections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "voicedetect_active_detections",
			Help: "Number of detections currently holding a pool slot",
		},
	)

	m.poolSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "voicedetect_detector_pool_size",
			Help: "Maximum number of concurrent detections",
		},
	)
}

func (m *DetectorMetrics) getCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.detectionsTotal,
		m.detectionErrors,
		m.detectionDuration,
		m.decodeDuration,
		m.audioDuration,
		m.operationsTotal,
		m.errorsByCategory,
		m.activeDetections,
		m.poolSize,
	}
}

// Describe implements the Collector interface
func (m *DetectorMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.getCollectors() {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *DetectorMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.getCollectors() {
		collector.Collect(ch)
	}
}

// RecordOperation implements the Recorder interface.
// For OpDetection the status is the classification label.
func (m *DetectorMetrics) RecordOperation(operation, status string) {
	switch operation {
	case OpDetection:
		m.detectionsTotal.WithLabelValues(m.detector, status).Inc()
	default:
		m.operationsTotal.WithLabelValues(operation, status).Inc()
	}
}

// RecordDuration implements the Recorder interface.
func (m *DetectorMetrics) RecordDuration(operation string, seconds float64) {
	switch operation {
	case OpDetection:
		m.detectionDuration.WithLabelValues(m.detector).Observe(seconds)
	case OpDecode:
		m.decodeDuration.Observe(seconds)
	}
}

// RecordError implements the Recorder interface.
func (m *DetectorMetrics) RecordError(operation, errorType string) {
	m.detectionErrors.WithLabelValues(m.detector, operation, errorType).Inc()
}

// RecordAudioDuration records the playback length of a decoded upload
func (m *DetectorMetrics) RecordAudioDuration(seconds float64) {
	m.audioDuration.Observe(seconds)
}

// RecordErrorCategory counts an error by category regardless of where it was built
func (m *DetectorMetrics) RecordErrorCategory(category string) {
	m.errorsByCategory.WithLabelValues(category).Inc()
}

// DetectionStarted increments the running detection gauge
func (m *DetectorMetrics) DetectionStarted() {
	m.activeDetections.Inc()
}

// DetectionFinished decrements the running detection gauge
func (m *DetectorMetrics) DetectionFinished() {
	m.activeDetections.Dec()
}

// SetPoolSize records the detector concurrency limit
func (m *DetectorMetrics) SetPoolSize(n int) {
	m.poolSize.Set(float64(n))
}

// Package metrics provides constants used across metric definitions.
package metrics

import "time"

// Operation names accepted by the Recorder implementations
const (
	// OpDecode is audio decoding, including the ffmpeg fallback
	OpDecode = "decode"
	// OpDetection is a full detector run
	OpDetection = "detection"
	// OpFeatures is a decode, preprocess and extract run without scoring
	OpFeatures = "features"
	// OpModelLoad is neural model weight loading
	OpModelLoad = "model_load"
	// OpThresholdReload is a threshold file reload
	OpThresholdReload = "threshold_reload"
)

// Status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Histogram bucket configuration constants.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms
	BucketStart1ms = 0.001
	// BucketStart100ms is the starting bucket for audio length histograms
	BucketStart100ms = 0.1
	// BucketStart100B is the starting bucket for byte-size histograms
	BucketStart100B = 100

	BucketFactor2  = 2
	BucketFactor10 = 10

	BucketCount6  = 6
	BucketCount10 = 10
	BucketCount12 = 12
)

// Time and conversion constants.
const (
	// ShutdownTimeout is the timeout for graceful shutdown operations.
	ShutdownTimeout = 5 * time.Second
	// MillisecondsPerSecond is the conversion factor from seconds to milliseconds.
	MillisecondsPerSecond = 1000.0
)

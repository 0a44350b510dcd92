// Package classifier runs a classification request end to end: decode,
// duration checks, bounded detection, tracing and metrics.
package classifier

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tphakala/voicedetect/internal/audio"
	"github.com/tphakala/voicedetect/internal/detector"
	"github.com/tphakala/voicedetect/internal/errors"
	"github.com/tphakala/voicedetect/internal/features"
	"github.com/tphakala/voicedetect/internal/language"
	"github.com/tphakala/voicedetect/internal/logger"
	"github.com/tphakala/voicedetect/internal/observability"
	"github.com/tphakala/voicedetect/internal/observability/metrics"
	"github.com/tphakala/voicedetect/internal/preprocess"
)

// Default request limits
const (
	DefaultSampleRate  = 16000
	DefaultMinDuration = 0.5
	DefaultMaxDuration = 60.0
)

var (
	// ErrTooShort is returned when decoded audio is shorter than the minimum duration
	ErrTooShort = errors.NewStd("audio too short")
	// ErrTooLong is returned when decoded audio is longer than the maximum duration
	ErrTooLong = errors.NewStd("audio too long")
)

// Decoder turns uploaded bytes into a mono waveform
type Decoder interface {
	Decode(ctx context.Context, data []byte, filenameHint string, targetRate int) (*audio.Waveform, error)
}

// Runner runs detections, typically a *detector.Pool
type Runner interface {
	Detect(ctx context.Context, samples []float32, sampleRate int, lang language.Language) (*detector.Result, error)
	Name() string
}

// Limits bounds the accepted audio duration in seconds
type Limits struct {
	MinDuration float64
	MaxDuration float64
}

// Outcome is a completed classification
type Outcome struct {
	Result          *detector.Result
	DurationSeconds float64
	// ProcessingMs covers the detection only, not decoding
	ProcessingMs float64
	Language     language.Language
}

// Service classifies uploaded audio
type Service struct {
	decoder    Decoder
	runner     Runner
	languages  *language.Table
	pre        *preprocess.Preprocessor
	extractor  *features.Extractor
	sampleRate int
	limits     atomic.Pointer[Limits]
	metrics    *metrics.DetectorMetrics
	recorder   metrics.Recorder
	log        logger.Logger
}

// Option configures a Service
type Option func(*Service)

// WithSampleRate sets the rate audio is decoded to
func WithSampleRate(rate int) Option {
	return func(s *Service) { s.sampleRate = rate }
}

// WithLimits sets the accepted duration range
func WithLimits(l Limits) Option {
	return func(s *Service) { s.limits.Store(&l) }
}

// WithLanguages sets the language table used for debug feature extraction
func WithLanguages(t *language.Table) Option {
	return func(s *Service) { s.languages = t }
}

// WithMetrics records pipeline metrics
func WithMetrics(m *metrics.DetectorMetrics) Option {
	return func(s *Service) {
		s.metrics = m
		if m != nil {
			s.recorder = m
		}
	}
}

// WithLogger sets the service logger
func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// New creates a classification Service
func New(decoder Decoder, runner Runner, opts ...Option) *Service {
	s := &Service{
		decoder:    decoder,
		runner:     runner,
		sampleRate: DefaultSampleRate,
		recorder:   metrics.NewNoOpRecorder(),
	}
	s.limits.Store(&Limits{MinDuration: DefaultMinDuration, MaxDuration: DefaultMaxDuration})
	for _, opt := range opts {
		opt(s)
	}
	if s.languages == nil {
		s.languages = language.DefaultTable()
	}
	if s.log == nil {
		s.log = GetLogger()
	}
	s.pre = preprocess.New(s.languages)
	s.extractor = features.NewExtractor()
	return s
}

// DetectorName returns the name of the active detector
func (s *Service) DetectorName() string {
	return s.runner.Name()
}

// SampleRate returns the decode target rate
func (s *Service) SampleRate() int {
	return s.sampleRate
}

// Limits returns the accepted duration range
func (s *Service) Limits() Limits {
	return *s.limits.Load()
}

// SetLimits replaces the accepted duration range
func (s *Service) SetLimits(l Limits) {
	s.limits.Store(&l)
}

// Classify decodes data, validates its duration and runs the detector
func (s *Service) Classify(ctx context.Context, data []byte, filename string, lang language.Language) (*Outcome, error) {
	return s.classify(ctx, data, filename, lang, true)
}

// Infer is Classify without the duration limits
func (s *Service) Infer(ctx context.Context, data []byte, filename string, lang language.Language) (*Outcome, error) {
	return s.classify(ctx, data, filename, lang, false)
}

func (s *Service) classify(ctx context.Context, data []byte, filename string, lang language.Language, enforceLimits bool) (*Outcome, error) {
	if _, err := s.languages.Lookup(lang); err != nil {
		s.recordError(metrics.OpDetection, err)
		return nil, err
	}

	wf, err := s.decode(ctx, data, filename)
	if err != nil {
		return nil, err
	}

	if enforceLimits {
		if err := s.checkDuration(wf); err != nil {
			s.recordError(metrics.OpDecode, err)
			return nil, err
		}
	}

	ctx, span := observability.StartSpan(ctx, "detect", trace.WithAttributes(
		attribute.String("detector", s.runner.Name()),
		attribute.String("language", string(lang)),
		attribute.Float64("audio.duration_seconds", wf.Seconds()),
	))
	defer span.End()

	if s.metrics != nil {
		s.metrics.DetectionStarted()
	}
	start := time.Now()
	res, err := s.runner.Detect(ctx, wf.Samples, wf.SampleRate, lang)
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.DetectionFinished()
	}

	if err != nil {
		observability.RecordError(span, err)
		s.recordError(metrics.OpDetection, err)
		s.log.Debug("detection failed",
			logger.String("language", string(lang)),
			logger.String("category", string(errors.CategoryOf(err))),
			logger.Error(err))
		return nil, err
	}

	span.SetAttributes(
		attribute.String("classification", string(res.Label)),
		attribute.Float64("confidence", res.Confidence),
	)
	s.recorder.RecordOperation(metrics.OpDetection, string(res.Label))
	s.recorder.RecordDuration(metrics.OpDetection, elapsed.Seconds())

	out := &Outcome{
		Result:          res,
		DurationSeconds: wf.Seconds(),
		ProcessingMs:    float64(elapsed) / float64(time.Millisecond),
		Language:        lang,
	}

	s.log.Info("classified audio",
		logger.String("language", string(lang)),
		logger.String("classification", string(res.Label)),
		logger.Float64("confidence", res.Confidence),
		logger.Float64("processing_ms", out.ProcessingMs))
	return out, nil
}

// Features decodes, preprocesses and extracts the feature vector without scoring
func (s *Service) Features(ctx context.Context, data []byte, filename string, lang language.Language) (*features.Vector, error) {
	if _, err := s.languages.Lookup(lang); err != nil {
		return nil, err
	}

	wf, err := s.decode(ctx, data, filename)
	if err != nil {
		return nil, err
	}

	_, span := observability.StartSpan(ctx, "features")
	defer span.End()

	y, err := s.pre.Process(wf.Samples, lang)
	if err != nil {
		observability.RecordError(span, err)
		s.recordError(metrics.OpFeatures, err)
		return nil, err
	}
	v, err := s.extractor.Extract(y, wf.SampleRate)
	if err != nil {
		observability.RecordError(span, err)
		s.recordError(metrics.OpFeatures, err)
		return nil, err
	}
	s.recorder.RecordOperation(metrics.OpFeatures, metrics.StatusSuccess)
	return v, nil
}

func (s *Service) decode(ctx context.Context, data []byte, filename string) (*audio.Waveform, error) {
	ctx, span := observability.StartSpan(ctx, "decode", trace.WithAttributes(
		attribute.Int("audio.bytes", len(data)),
		attribute.Int("audio.target_rate", s.sampleRate),
	))
	defer span.End()

	start := time.Now()
	wf, err := s.decoder.Decode(ctx, data, filename, s.sampleRate)
	s.recorder.RecordDuration(metrics.OpDecode, time.Since(start).Seconds())
	if err != nil {
		observability.RecordError(span, err)
		s.recordError(metrics.OpDecode, err)
		return nil, err
	}

	span.SetAttributes(attribute.Float64("audio.duration_seconds", wf.Seconds()))
	if s.metrics != nil {
		s.metrics.RecordAudioDuration(wf.Seconds())
	}
	return wf, nil
}

func (s *Service) checkDuration(wf *audio.Waveform) error {
	limits := s.Limits()
	seconds := wf.Seconds()

	switch {
	case seconds < limits.MinDuration:
		return errors.New(fmt.Errorf("%w: %.3fs, minimum is %g seconds", ErrTooShort, seconds, limits.MinDuration)).
			Component("classifier").
			Category(errors.CategoryValidation).
			Context("duration_seconds", seconds).
			Build()
	case seconds > limits.MaxDuration:
		return errors.New(fmt.Errorf("%w: %.3fs, maximum is %g seconds", ErrTooLong, seconds, limits.MaxDuration)).
			Component("classifier").
			Category(errors.CategoryValidation).
			Context("duration_seconds", seconds).
			Build()
	}
	return nil
}

func (s *Service) recordError(stage string, err error) {
	s.recorder.RecordError(stage, string(errors.CategoryOf(err)))
}

var (
	serviceLogger logger.Logger
	initOnce      sync.Once
)

// GetLogger returns the classifier package logger
func GetLogger() logger.Logger {
	initOnce.Do(func() {
		serviceLogger = logger.Global().Module("classifier")
	})
	return serviceLogger
}

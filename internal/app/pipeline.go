// Package app wires the settings into the detection pipeline and the
// process-wide logging, telemetry and tracing shared by all commands.
package app

import (
	"github.com/tphakala/voicedetect/internal/audio"
	"github.com/tphakala/voicedetect/internal/classifier"
	"github.com/tphakala/voicedetect/internal/conf"
	"github.com/tphakala/voicedetect/internal/detector"
	"github.com/tphakala/voicedetect/internal/errors"
	"github.com/tphakala/voicedetect/internal/logger"
	"github.com/tphakala/voicedetect/internal/observability/metrics"
	"github.com/tphakala/voicedetect/internal/scoring"
)

// GetLogger returns the app package logger
func GetLogger() logger.Logger {
	return logger.Global().Module("app")
}

// Pipeline is a configured classification stack
type Pipeline struct {
	Detector   detector.Detector
	Pool       *detector.Pool
	Thresholds *scoring.Table
	Classifier *classifier.Service

	thresholdsPath string
	log            logger.Logger
}

// NewPipeline builds the decoder, detector pool and classifier described by
// settings. m may be nil when metrics are not collected.
func NewPipeline(settings *conf.Settings, m *metrics.DetectorMetrics) (*Pipeline, error) {
	log := GetLogger()

	thresholds := scoring.DefaultThresholds()
	if path := settings.Detector.ThresholdsPath; path != "" {
		t, err := scoring.LoadThresholdsFile(path)
		if err != nil {
			return nil, err
		}
		thresholds = t
		log.Info("loaded thresholds", logger.String("path", path))
	}
	table := scoring.NewTable(thresholds)

	mode, err := detector.ParseMode(settings.Detector.Mode)
	if err != nil {
		return nil, err
	}
	d, err := detector.New(mode, detector.Deps{
		Thresholds: table,
		ModelPath:  settings.Detector.ModelPath,
	})
	if err != nil {
		return nil, err
	}

	pool := detector.NewPool(d, settings.Detector.MaxConcurrent)
	if m != nil {
		m.SetPoolSize(pool.Size())
	}

	dec := audio.NewDecoder(
		audio.WithFFmpegPath(settings.Audio.FfmpegPath),
		audio.WithFFprobePath(settings.Audio.FfprobePath),
		audio.WithTempDir(settings.Audio.TempDir),
	)

	opts := []classifier.Option{
		classifier.WithSampleRate(settings.Audio.SampleRate),
		classifier.WithLimits(classifier.Limits{
			MinDuration: settings.Limits.MinDuration,
			MaxDuration: settings.Limits.MaxDuration,
		}),
	}
	if m != nil {
		opts = append(opts, classifier.WithMetrics(m))
	}

	log.Info("detection pipeline ready",
		logger.String("detector", d.Name()),
		logger.Int("pool_size", pool.Size()),
		logger.Int("sample_rate", settings.Audio.SampleRate))

	return &Pipeline{
		Detector:       d,
		Pool:           pool,
		Thresholds:     table,
		Classifier:     classifier.New(dec, pool, opts...),
		thresholdsPath: settings.Detector.ThresholdsPath,
		log:            log,
	}, nil
}

// ReloadThresholds re-reads the configured thresholds file and swaps it in.
// On error the active thresholds are left untouched.
func (p *Pipeline) ReloadThresholds() error {
	if p.thresholdsPath == "" {
		return errors.Newf("no thresholds file configured").
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}

	t, err := scoring.LoadThresholdsFile(p.thresholdsPath)
	if err != nil {
		return err
	}
	p.Thresholds.Store(t)

	p.log.Info("thresholds reloaded",
		logger.String("path", p.thresholdsPath),
		logger.Float64("decision", t.Decision))
	return nil
}

package tuning

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/voicedetect/internal/classifier"
	"github.com/tphakala/voicedetect/internal/features"
	"github.com/tphakala/voicedetect/internal/language"
	"github.com/tphakala/voicedetect/internal/logger"
	"github.com/tphakala/voicedetect/internal/scoring"
)

// Classifier is the part of classifier.Service the tuner needs
type Classifier interface {
	Infer(ctx context.Context, data []byte, filename string, lang language.Language) (*classifier.Outcome, error)
	Features(ctx context.Context, data []byte, filename string, lang language.Language) (*features.Vector, error)
}

// Result is the evaluation of one sample
type Result struct {
	File            string            `json:"file"`
	Language        language.Language `json:"language"`
	TrueLabel       scoring.Label     `json:"trueLabel,omitempty"`
	Classification  scoring.Label     `json:"classification,omitempty"`
	ConfidenceScore float64           `json:"confidenceScore"`
	Correct         *bool             `json:"correct,omitempty"`
	Explanation     string            `json:"explanation,omitempty"`
	Features        *features.Vector  `json:"features,omitempty"`
	Error           string            `json:"error,omitempty"`
}

// Failed reports whether the sample could not be classified
func (r *Result) Failed() bool {
	return r.Error != ""
}

// Tuner classifies samples concurrently and builds a Report
type Tuner struct {
	clf      Classifier
	workers  int
	log      logger.Logger
	progress func(done, total int)
}

// Option configures a Tuner
type Option func(*Tuner)

// WithWorkers bounds the number of samples classified at once
func WithWorkers(n int) Option {
	return func(t *Tuner) {
		if n > 0 {
			t.workers = n
		}
	}
}

// WithLogger sets the tuner logger
func WithLogger(l logger.Logger) Option {
	return func(t *Tuner) { t.log = l }
}

// WithProgress sets a callback run after each sample. It may be called from
// several goroutines at once.
func WithProgress(fn func(done, total int)) Option {
	return func(t *Tuner) { t.progress = fn }
}

// New creates a Tuner. Workers default to GOMAXPROCS.
func New(clf Classifier, opts ...Option) *Tuner {
	t := &Tuner{
		clf:     clf,
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		t.log = GetLogger()
	}
	return t
}

// Run evaluates every sample and summarizes the outcome. A sample that fails
// to classify is kept in the report with its error; only cancellation of ctx
// aborts the run.
func (t *Tuner) Run(ctx context.Context, samples []Sample) (*Report, error) {
	runID := uuid.NewString()
	log := t.log.With(logger.String("run_id", runID))
	start := time.Now()

	log.Info("tuning run started",
		logger.Int("samples", len(samples)),
		logger.Int("workers", t.workers))

	results := make([]Result, len(samples))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	for i, s := range samples {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = t.evaluate(gctx, s)
			if results[i].Failed() {
				log.Warn("sample failed",
					logger.String("file", s.Path),
					logger.String("error", results[i].Error))
			}
			if t.progress != nil {
				t.progress(int(done.Add(1)), len(samples))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("tuning run cancelled: %w", err)
	}

	report := NewReport(runID, results)
	log.Info("tuning run finished",
		logger.Int("classified", len(results)-report.Failed),
		logger.Int("failed", report.Failed),
		logger.Duration("elapsed", time.Since(start)))
	return report, nil
}

// evaluate classifies one sample. Features come from the detection result
// when the detector reports them, otherwise they are extracted separately.
func (t *Tuner) evaluate(ctx context.Context, s Sample) Result {
	res := Result{
		File:      s.Path,
		Language:  s.Language,
		TrueLabel: s.TrueLabel,
	}

	data, err := os.ReadFile(s.Path) //nolint:gosec // paths come from the samples directory listing
	if err != nil {
		res.Error = err.Error()
		return res
	}
	name := filepath.Base(s.Path)

	outcome, err := t.clf.Infer(ctx, data, name, s.Language)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.Classification = outcome.Result.Label
	res.ConfidenceScore = outcome.Result.Confidence
	res.Explanation = outcome.Result.Explanation
	res.Features = outcome.Result.Features

	if res.Features == nil {
		vec, err := t.clf.Features(ctx, data, name, s.Language)
		if err != nil {
			t.log.Debug("feature extraction failed",
				logger.String("file", s.Path),
				logger.Error(err))
		} else {
			res.Features = vec
		}
	}

	if s.Labelled() {
		correct := res.Classification == s.TrueLabel
		res.Correct = &correct
	}
	return res
}

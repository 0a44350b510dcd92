package tuning

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/stat"

	"github.com/tphakala/voicedetect/internal/errors"
	"github.com/tphakala/voicedetect/internal/features"
	"github.com/tphakala/voicedetect/internal/scoring"
)

// AnalyzedFeatures are the features whose distributions drive threshold suggestions
var AnalyzedFeatures = []string{
	features.KeyPitchVariance,
	features.KeySpectralFlatness,
	features.KeyZeroCrossingRate,
	features.KeyFormantStability,
	features.KeyJitter,
}

// ErrInsufficientSamples is returned when feature analysis lacks AI or human samples
var ErrInsufficientSamples = errors.NewStd("need both AI and human samples for feature analysis")

// Metrics summarizes detector accuracy over labelled samples
type Metrics struct {
	Accuracy       float64 `json:"accuracy"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1Score"`
	Total          int     `json:"total"`
	Correct        int     `json:"correct"`
	TruePositives  int     `json:"truePositives"`
	TrueNegatives  int     `json:"trueNegatives"`
	FalsePositives int     `json:"falsePositives"`
	FalseNegatives int     `json:"falseNegatives"`
}

// FeatureStats describes one feature over AI and human samples
type FeatureStats struct {
	Name      string  `json:"name"`
	AIMean    float64 `json:"aiMean"`
	AIStd     float64 `json:"aiStd"`
	HumanMean float64 `json:"humanMean"`
	HumanStd  float64 `json:"humanStd"`
	Suggested float64 `json:"suggested"`
	AIBelow   bool    `json:"aiBelow"` // AI samples sit below the suggested value
}

// Report is the outcome of a tuning run
type Report struct {
	RunID             string         `json:"runId"`
	Results           []Result       `json:"results"`
	Failed            int            `json:"failed"`
	AverageConfidence float64        `json:"averageConfidence"`
	Metrics           *Metrics       `json:"metrics,omitempty"`
	Features          []FeatureStats `json:"features,omitempty"`
	AnalysisError     string         `json:"analysisError,omitempty"`
}

// NewReport computes accuracy and feature statistics over results
func NewReport(runID string, results []Result) *Report {
	r := &Report{
		RunID:   runID,
		Results: results,
		Metrics: ComputeMetrics(results),
	}

	var confidences []float64
	for i := range results {
		if results[i].Failed() {
			r.Failed++
			continue
		}
		confidences = append(confidences, results[i].ConfidenceScore)
	}
	if len(confidences) > 0 {
		r.AverageConfidence = stat.Mean(confidences, nil)
	}

	stats, err := AnalyzeFeatures(results)
	if err != nil {
		r.AnalysisError = err.Error()
	} else {
		r.Features = stats
	}
	return r
}

// ComputeMetrics counts the confusion matrix over successfully classified,
// labelled samples with AI as the positive class. It returns nil when no
// such sample exists.
func ComputeMetrics(results []Result) *Metrics {
	m := &Metrics{}
	for i := range results {
		r := &results[i]
		if r.Failed() || r.TrueLabel == "" {
			continue
		}
		m.Total++

		switch {
		case r.TrueLabel == scoring.LabelAI && r.Classification == scoring.LabelAI:
			m.TruePositives++
		case r.TrueLabel == scoring.LabelHuman && r.Classification == scoring.LabelHuman:
			m.TrueNegatives++
		case r.TrueLabel == scoring.LabelHuman && r.Classification == scoring.LabelAI:
			m.FalsePositives++
		case r.TrueLabel == scoring.LabelAI && r.Classification == scoring.LabelHuman:
			m.FalseNegatives++
		}
	}
	if m.Total == 0 {
		return nil
	}

	m.Correct = m.TruePositives + m.TrueNegatives
	m.Accuracy = ratio(m.Correct, m.Total)
	m.Precision = ratio(m.TruePositives, m.TruePositives+m.FalsePositives)
	m.Recall = ratio(m.TruePositives, m.TruePositives+m.FalseNegatives)
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// AnalyzeFeatures compares feature distributions of AI and human samples and
// places a suggested threshold between them, one standard deviation in from
// each mean.
func AnalyzeFeatures(results []Result) ([]FeatureStats, error) {
	var ai, human []map[string]float64
	for i := range results {
		r := &results[i]
		if r.Failed() || r.Features == nil {
			continue
		}
		switch r.TrueLabel {
		case scoring.LabelAI:
			ai = append(ai, r.Features.Map())
		case scoring.LabelHuman:
			human = append(human, r.Features.Map())
		}
	}
	if len(ai) == 0 || len(human) == 0 {
		return nil, ErrInsufficientSamples
	}

	out := make([]FeatureStats, 0, len(AnalyzedFeatures))
	for _, name := range AnalyzedFeatures {
		fs := FeatureStats{Name: name}
		fs.AIMean, fs.AIStd = stat.PopMeanStdDev(column(ai, name), nil)
		fs.HumanMean, fs.HumanStd = stat.PopMeanStdDev(column(human, name), nil)

		if fs.AIMean < fs.HumanMean {
			fs.AIBelow = true
			fs.Suggested = (fs.AIMean + fs.AIStd + fs.HumanMean - fs.HumanStd) / 2
		} else {
			fs.Suggested = (fs.AIMean - fs.AIStd + fs.HumanMean + fs.HumanStd) / 2
		}
		out = append(out, fs)
	}
	return out, nil
}

func column(rows []map[string]float64, name string) []float64 {
	col := make([]float64, len(rows))
	for i, row := range rows {
		col[i] = row[name]
	}
	return col
}

// SuggestThresholds applies the suggested values to base. Spectral flatness
// moves the high boundary when AI samples are flatter than human ones and the
// low boundary otherwise. Features without a scoring threshold are ignored.
func SuggestThresholds(stats []FeatureStats, base scoring.Thresholds) (scoring.Thresholds, error) {
	t := base
	for _, fs := range stats {
		switch fs.Name {
		case features.KeyPitchVariance:
			t.PitchVariance = fs.Suggested
		case features.KeyJitter:
			t.Jitter = fs.Suggested
		case features.KeyFormantStability:
			t.FormantStability = fs.Suggested
		case features.KeySpectralFlatness:
			if fs.AIBelow {
				t.SpectralFlatnessLow = fs.Suggested
			} else {
				t.SpectralFlatnessHigh = fs.Suggested
			}
		}
	}
	if err := t.Validate(); err != nil {
		return base, err
	}
	return t, nil
}

// WriteJSON stores the report as indented JSON
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tuning report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // report is not sensitive
		return errors.New(fmt.Errorf("failed to write tuning report: %w", err)).
			Component("tuning").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	return nil
}

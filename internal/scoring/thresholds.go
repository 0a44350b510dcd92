package scoring

import (
	"math"
	"sync/atomic"

	"github.com/tphakala/voicedetect/internal/errors"
)

// Thresholds are the decision boundaries of the AI indicators
type Thresholds struct {
	PitchVariance        float64 `yaml:"pitch_variance" json:"pitchVariance"`
	SpectralFlatnessHigh float64 `yaml:"spectral_flatness_high" json:"spectralFlatnessHigh"`
	SpectralFlatnessLow  float64 `yaml:"spectral_flatness_low" json:"spectralFlatnessLow"`
	FormantStability     float64 `yaml:"formant_stability" json:"formantStability"`
	Jitter               float64 `yaml:"jitter" json:"jitter"`
	EnvelopeSmoothness   float64 `yaml:"envelope_smoothness" json:"envelopeSmoothness"`
	Decision             float64 `yaml:"decision" json:"decision"`
}

// DefaultThresholds returns the built-in thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		PitchVariance:        0.2,
		SpectralFlatnessHigh: 0.18,
		SpectralFlatnessLow:  0.05,
		FormantStability:     0.7,
		Jitter:               0.03,
		EnvelopeSmoothness:   0.03,
		Decision:             0.5,
	}
}

// Validate checks that all thresholds are finite and the decision boundary is in (0, 1]
func (t Thresholds) Validate() error {
	values := map[string]float64{
		"pitch_variance":         t.PitchVariance,
		"spectral_flatness_high": t.SpectralFlatnessHigh,
		"spectral_flatness_low":  t.SpectralFlatnessLow,
		"formant_stability":      t.FormantStability,
		"jitter":                 t.Jitter,
		"envelope_smoothness":    t.EnvelopeSmoothness,
		"decision":               t.Decision,
	}
	for name, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Newf("threshold %s is not finite", name).
				Component("scoring").
				Category(errors.CategoryValidation).
				Build()
		}
	}
	if t.Decision <= 0 || t.Decision > 1 {
		return errors.Newf("decision threshold %g must be in (0, 1]", t.Decision).
			Component("scoring").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

// Table holds the active thresholds. Readers always see a complete set;
// updates replace the whole value.
type Table struct {
	current atomic.Pointer[Thresholds]
}

// NewTable creates a Table holding t
func NewTable(t Thresholds) *Table {
	table := &Table{}
	table.Store(t)
	return table
}

// Load returns a copy of the active thresholds
func (tb *Table) Load() Thresholds {
	return *tb.current.Load()
}

// Store replaces the active thresholds
func (tb *Table) Store(t Thresholds) {
	tb.current.Store(&t)
}

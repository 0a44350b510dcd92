// Package scoring turns a feature vector into an AI-likelihood score,
// a label and a human-readable explanation.
package scoring

import (
	"math"
	"strings"

	"github.com/tphakala/voicedetect/internal/features"
)

// Label is the classification outcome
type Label string

const (
	LabelAI    Label = "AI_GENERATED"
	LabelHuman Label = "HUMAN"
)

// Indicator weights added to the AI score when an indicator fires
const (
	weightConsistentPitch = 0.35
	weightFlatSpectrum    = 0.20
	weightTonalSpectrum   = 0.25
	weightStableFormants  = 0.25
	weightLowJitter       = 0.15
	weightSmoothEnvelope  = 0.10
)

const (
	aiExplanationPrefix    = "AI-generated indicators detected: "
	humanExplanationPrefix = "Human voice characteristics: "
	humanFallback          = "natural speech patterns detected"
)

// Outcome is the full scoring result for one feature vector
type Outcome struct {
	Label         Label
	Confidence    float64
	Probabilities map[string]float64
	Explanation   string
	AIScore       float64
}

// Engine scores feature vectors against the thresholds in a Table.
// It is safe for concurrent use.
type Engine struct {
	table *Table
}

// NewEngine creates an Engine reading thresholds from table
func NewEngine(table *Table) *Engine {
	if table == nil {
		table = NewTable(DefaultThresholds())
	}
	return &Engine{table: table}
}

// Table returns the engine's threshold table
func (e *Engine) Table() *Table {
	return e.table
}

// Score returns the summed indicator weights and the explanation text
func (e *Engine) Score(v *features.Vector) (float64, string) {
	return Score(v, e.table.Load())
}

// Classify scores v and derives label, confidence and probabilities
func (e *Engine) Classify(v *features.Vector) Outcome {
	return Classify(v, e.table.Load())
}

// Score evaluates the six AI indicators against t
func Score(v *features.Vector, t Thresholds) (float64, string) {
	var score float64
	var indicators []string

	if v.PitchVariance < t.PitchVariance {
		score += weightConsistentPitch
		indicators = append(indicators, "unnaturally consistent pitch")
	}
	if v.SpectralFlatness > t.SpectralFlatnessHigh {
		score += weightFlatSpectrum
		indicators = append(indicators, "flat spectral characteristics")
	}
	if v.SpectralFlatness < t.SpectralFlatnessLow {
		score += weightTonalSpectrum
		indicators = append(indicators, "overly tonal spectrum (low noise floor)")
	}
	if v.FormantStability > t.FormantStability {
		score += weightStableFormants
		indicators = append(indicators, "overly stable formants")
	}
	if v.Jitter < t.Jitter {
		score += weightLowJitter
		indicators = append(indicators, "minimal pitch variation (jitter)")
	}
	if v.EnvelopeSmoothness < t.EnvelopeSmoothness {
		score += weightSmoothEnvelope
		indicators = append(indicators, "unusually smooth temporal envelope")
	}

	if score >= t.Decision {
		return score, aiExplanationPrefix + strings.Join(indicators, ", ")
	}

	var human []string
	if v.PitchVariance >= t.PitchVariance {
		human = append(human, "natural pitch variation")
	}
	if v.Jitter >= t.Jitter {
		human = append(human, "human-like voice quality")
	}
	if v.FormantStability <= t.FormantStability {
		human = append(human, "natural formant dynamics")
	}
	if len(human) == 0 {
		return score, humanExplanationPrefix + humanFallback
	}
	return score, humanExplanationPrefix + strings.Join(human, ", ")
}

// Classify derives the outcome from the score. Probabilities come from the
// raw score; only the confidence is clamped to [0, 1].
func Classify(v *features.Vector, t Thresholds) Outcome {
	score, explanation := Score(v, t)

	label := LabelHuman
	confidence := 1 - score
	if score >= t.Decision {
		label = LabelAI
		confidence = score
	}

	return Outcome{
		Label:      label,
		Confidence: math.Min(1, math.Max(0, confidence)),
		Probabilities: map[string]float64{
			"human": 1 - score,
			"ai":    score,
		},
		Explanation: explanation,
		AIScore:     score,
	}
}

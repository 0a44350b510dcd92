package detector

import (
	"github.com/tphakala/voicedetect/internal/features"
	"github.com/tphakala/voicedetect/internal/language"
	"github.com/tphakala/voicedetect/internal/preprocess"
	"github.com/tphakala/voicedetect/internal/scoring"
)

// Heuristic scores hand-engineered acoustic features with fixed rules
type Heuristic struct {
	pre       *preprocess.Preprocessor
	extractor *features.Extractor
	engine    *scoring.Engine
}

// NewHeuristic creates a Heuristic detector
func NewHeuristic(pre *preprocess.Preprocessor, extractor *features.Extractor, engine *scoring.Engine) *Heuristic {
	return &Heuristic{pre: pre, extractor: extractor, engine: engine}
}

// Name implements Detector
func (h *Heuristic) Name() string {
	return string(ModeHeuristic)
}

// Detect preprocesses, extracts features and scores them.
// Preprocessing and extraction errors are returned unchanged.
func (h *Heuristic) Detect(samples []float32, sampleRate int, lang language.Language) (*Result, error) {
	y, err := h.pre.Process(samples, lang)
	if err != nil {
		return nil, err
	}

	v, err := h.extractor.Extract(y, sampleRate)
	if err != nil {
		return nil, err
	}

	out := h.engine.Classify(v)
	return &Result{
		Label:         out.Label,
		Confidence:    out.Confidence,
		Probabilities: out.Probabilities,
		Explanation:   out.Explanation,
		Features:      v,
	}, nil
}

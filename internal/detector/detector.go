// Package detector composes preprocessing, feature extraction and scoring
// into a single detection call, with a heuristic and a neural implementation.
package detector

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tphakala/voicedetect/internal/errors"
	"github.com/tphakala/voicedetect/internal/features"
	"github.com/tphakala/voicedetect/internal/language"
	"github.com/tphakala/voicedetect/internal/logger"
	"github.com/tphakala/voicedetect/internal/preprocess"
	"github.com/tphakala/voicedetect/internal/scoring"
)

// Detector classifies a decoded mono waveform
type Detector interface {
	Detect(samples []float32, sampleRate int, lang language.Language) (*Result, error)
	Name() string
}

// Result is the outcome of a single detection
type Result struct {
	Label         scoring.Label      `json:"classification"`
	Confidence    float64            `json:"confidenceScore"`
	Probabilities map[string]float64 `json:"probabilities"`
	Explanation   string             `json:"explanation"`
	// Features is nil for the neural detector
	Features *features.Vector `json:"features,omitempty"`
}

// Mode selects the detector implementation
type Mode string

const (
	ModeHeuristic Mode = "heuristic"
	ModeNeural    Mode = "neural"
)

// ParseMode maps a configuration value to a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeHeuristic, "":
		return ModeHeuristic, nil
	case ModeNeural:
		return ModeNeural, nil
	default:
		return "", errors.Newf("unknown detector mode %q", s).
			Component("detector").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// Deps are the collaborators shared by the detector implementations
type Deps struct {
	Languages  *language.Table
	Thresholds *scoring.Table
	// ModelPath is the neural model weights file
	ModelPath string
	Logger    logger.Logger
}

// New builds the detector for mode
func New(mode Mode, deps Deps) (Detector, error) {
	if deps.Languages == nil {
		deps.Languages = language.DefaultTable()
	}
	if deps.Thresholds == nil {
		deps.Thresholds = scoring.NewTable(scoring.DefaultThresholds())
	}
	if deps.Logger == nil {
		deps.Logger = GetLogger()
	}

	pre := preprocess.New(deps.Languages)

	switch mode {
	case ModeHeuristic, "":
		return NewHeuristic(pre, features.NewExtractor(), scoring.NewEngine(deps.Thresholds)), nil
	case ModeNeural:
		model, err := LoadModel(deps.ModelPath, deps.Logger)
		if err != nil {
			return nil, err
		}
		return NewNeural(pre, deps.Languages, model), nil
	default:
		return nil, errors.New(fmt.Errorf("unknown detector mode %q", mode)).
			Component("detector").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

var (
	serviceLogger logger.Logger
	initOnce      sync.Once
)

// GetLogger returns the detector package logger
func GetLogger() logger.Logger {
	initOnce.Do(func() {
		serviceLogger = logger.Global().Module("detector")
	})
	return serviceLogger
}

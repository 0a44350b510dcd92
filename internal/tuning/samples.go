// Package tuning evaluates the detector against a directory of labelled
// samples and suggests threshold values from the observed feature
// distributions.
package tuning

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/tphakala/voicedetect/internal/errors"
	"github.com/tphakala/voicedetect/internal/language"
	"github.com/tphakala/voicedetect/internal/logger"
	"github.com/tphakala/voicedetect/internal/scoring"
)

// GetLogger returns the tuning package logger
func GetLogger() logger.Logger {
	return logger.Global().Module("tuning")
}

// sampleExtensions are the audio files picked up from a samples directory
var sampleExtensions = map[string]bool{".mp3": true, ".wav": true, ".flac": true}

// Sample is one audio file queued for evaluation
type Sample struct {
	Path      string
	Language  language.Language
	TrueLabel scoring.Label // empty when unknown
}

// Labelled reports whether the sample has a known label
func (s Sample) Labelled() bool {
	return s.TrueLabel != ""
}

// Discover lists the audio files directly inside dir, sorted by name.
// Language and label are inferred from each file name; a non-empty label
// overrides the inferred one for every sample.
func Discover(dir string, label scoring.Label) ([]Sample, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.New(err).
			Component("tuning").
			Category(errors.CategoryFileIO).
			Context("dir", dir).
			Build()
	}

	var samples []Sample
	for _, e := range entries {
		if e.IsDir() || !sampleExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))

		s := Sample{
			Path:      filepath.Join(dir, e.Name()),
			Language:  InferLanguage(stem),
			TrueLabel: label,
		}
		if s.TrueLabel == "" {
			s.TrueLabel = InferLabel(stem)
		}
		samples = append(samples, s)
	}

	slices.SortFunc(samples, func(a, b Sample) int { return strings.Compare(a.Path, b.Path) })
	return samples, nil
}

// InferLanguage picks the language named in a file name, defaulting to English
func InferLanguage(name string) language.Language {
	lower := strings.ToLower(name)
	for _, l := range []language.Language{language.Tamil, language.Hindi, language.Malayalam, language.Telugu} {
		if strings.Contains(lower, strings.ToLower(string(l))) {
			return l
		}
	}
	return language.English
}

// InferLabel reads the ground truth from a file name. "ai" must be a whole
// word so names like "said" or "trained" are not taken as AI samples.
func InferLabel(name string) scoring.Label {
	lower := strings.ToLower(name)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	switch {
	case slices.Contains(words, "ai"),
		strings.Contains(lower, "generated"),
		strings.Contains(lower, "synthetic"):
		return scoring.LabelAI
	case strings.Contains(lower, "human"), strings.Contains(lower, "real"):
		return scoring.LabelHuman
	default:
		return ""
	}
}

// ParseLabel accepts the label names used on the command line
func ParseLabel(s string) (scoring.Label, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "AI", string(scoring.LabelAI):
		return scoring.LabelAI, nil
	case string(scoring.LabelHuman):
		return scoring.LabelHuman, nil
	default:
		return "", errors.Newf("unknown label %q, expected AI_GENERATED or HUMAN", s).
			Component("tuning").
			Category(errors.CategoryValidation).
			Build()
	}
}

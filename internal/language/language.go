// Package language defines the supported speech languages and their
// per-language processing parameters.
package language

import (
	"fmt"
	"strings"

	"github.com/tphakala/voicedetect/internal/errors"
)

// Language is a supported speech language
type Language string

const (
	Tamil     Language = "Tamil"
	English   Language = "English"
	Hindi     Language = "Hindi"
	Malayalam Language = "Malayalam"
	Telugu    Language = "Telugu"
)

var all = []Language{Tamil, English, Hindi, Malayalam, Telugu}

// ErrUnsupported is returned for any language name outside the supported set
var ErrUnsupported = errors.NewStd("unsupported language")

// All returns the supported languages in their canonical order
func All() []Language {
	out := make([]Language, len(all))
	copy(out, all)
	return out
}

// Names returns the supported language names in canonical order
func Names() []string {
	names := make([]string, len(all))
	for i, l := range all {
		names[i] = string(l)
	}
	return names
}

// Parse maps a name to a Language. Matching is exact after trimming whitespace.
func Parse(s string) (Language, error) {
	name := strings.TrimSpace(s)
	for _, l := range all {
		if string(l) == name {
			return l, nil
		}
	}
	return "", errors.New(fmt.Errorf("%w: %q", ErrUnsupported, name)).
		Component("language").
		Category(errors.CategoryUnsupportedLanguage).
		Build()
}

// Valid reports whether l is one of the supported languages
func (l Language) Valid() bool {
	for _, known := range all {
		if l == known {
			return true
		}
	}
	return false
}

func (l Language) String() string {
	return string(l)
}

// Params holds the per-language processing parameters
type Params struct {
	// TrimTopDB is the silence threshold in dB below the loudest frame
	TrimTopDB float64
	// NormMean and NormStd standardize log-mel features for the neural detector
	NormMean float64
	NormStd  float64
}

// Table is an immutable mapping from Language to Params
type Table struct {
	params map[Language]Params
}

var defaultParams = map[Language]Params{
	Tamil:     {TrimTopDB: 28, NormMean: -35.0, NormStd: 15.0},
	English:   {TrimTopDB: 32, NormMean: -34.0, NormStd: 14.5},
	Hindi:     {TrimTopDB: 30, NormMean: -36.0, NormStd: 15.5},
	Malayalam: {TrimTopDB: 26, NormMean: -35.5, NormStd: 15.2},
	Telugu:    {TrimTopDB: 29, NormMean: -35.8, NormStd: 15.3},
}

// DefaultTable returns the built-in parameter table
func DefaultTable() *Table {
	params := make(map[Language]Params, len(defaultParams))
	for l, p := range defaultParams {
		params[l] = p
	}
	return &Table{params: params}
}

// Lookup returns the parameters for l
func (t *Table) Lookup(l Language) (Params, error) {
	p, ok := t.params[l]
	if !ok {
		return Params{}, errors.New(fmt.Errorf("%w: %q", ErrUnsupported, string(l))).
			Component("language").
			Category(errors.CategoryUnsupportedLanguage).
			Build()
	}
	return p, nil
}

// TrimTopDB returns the silence threshold for l
func (t *Table) TrimTopDB(l Language) (float64, error) {
	p, err := t.Lookup(l)
	if err != nil {
		return 0, err
	}
	return p.TrimTopDB, nil
}

// Norm returns the mean and std used to standardize log-mel features for l
func (t *Table) Norm(l Language) (mean, std float64, err error) {
	p, err := t.Lookup(l)
	if err != nil {
		return 0, 0, err
	}
	return p.NormMean, p.NormStd, nil
}

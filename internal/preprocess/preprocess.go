// Package preprocess normalizes waveforms and trims leading and trailing
// silence with language-specific thresholds.
package preprocess

import (
	"fmt"
	"math"

	"github.com/tphakala/voicedetect/internal/errors"
	"github.com/tphakala/voicedetect/internal/language"
)

const (
	// trim analysis framing
	frameLength = 2048
	hopLength   = 512

	// silentRMS is the frame RMS below which a signal carries no energy at all
	silentRMS = 1e-10
)

// ErrSilentAudio is returned when nothing remains after silence trimming
var ErrSilentAudio = errors.NewStd("audio is silent after preprocessing")

// Preprocessor applies peak normalization and silence trimming
type Preprocessor struct {
	table *language.Table
}

// New creates a Preprocessor using the given language table
func New(table *language.Table) *Preprocessor {
	if table == nil {
		table = language.DefaultTable()
	}
	return &Preprocessor{table: table}
}

// Process returns a normalized and trimmed copy of samples. The input is not modified.
func (p *Preprocessor) Process(samples []float32, lang language.Language) ([]float32, error) {
	topDB, err := p.table.TrimTopDB(lang)
	if err != nil {
		return nil, err
	}

	y := Normalize(samples)
	start, end := TrimBounds(y, topDB)
	if end <= start {
		return nil, errors.New(fmt.Errorf("%w: no frames above -%g dB", ErrSilentAudio, topDB)).
			Component("preprocess").
			Category(errors.CategorySilentAudio).
			Context("language", string(lang)).
			Build()
	}

	out := make([]float32, end-start)
	copy(out, y[start:end])
	return out, nil
}

// Normalize returns a copy of samples scaled so the peak magnitude is 1.
// All-zero input is returned unchanged.
func Normalize(samples []float32) []float32 {
	out := make([]float32, len(samples))
	var peak float64
	for _, s := range samples {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	if peak == 0 || math.IsNaN(peak) || math.IsInf(peak, 0) {
		copy(out, samples)
		return out
	}
	for i, s := range samples {
		out[i] = float32(float64(s) / peak)
	}
	return out
}

// TrimBounds returns the sample range [start, end) spanning all frames whose
// RMS level is within topDB of the loudest frame. Frames are centered and
// zero padded. An empty range means the whole signal is silent.
func TrimBounds(y []float32, topDB float64) (start, end int) {
	rms := frameRMS(y)
	if len(rms) == 0 {
		return 0, 0
	}

	var maxRMS float64
	for _, v := range rms {
		maxRMS = math.Max(maxRMS, v)
	}
	if maxRMS < silentRMS {
		return 0, 0
	}

	first, last := -1, -1
	for i, v := range rms {
		if powerDB(v*v, maxRMS*maxRMS) > -topDB {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return 0, 0
	}

	start = first * hopLength
	end = min(len(y), (last+1)*hopLength)
	return start, end
}

// powerDB is 10*log10(power/ref) with both floored at 1e-10
func powerDB(power, ref float64) float64 {
	const amin = 1e-10
	return 10*math.Log10(math.Max(amin, power)) - 10*math.Log10(math.Max(amin, ref))
}

// frameRMS computes per-frame RMS over centered, zero padded frames
func frameRMS(y []float32) []float64 {
	if len(y) == 0 {
		return nil
	}

	pad := frameLength / 2
	n := len(y) + 2*pad
	nFrames := 1 + (n-frameLength)/hopLength

	// prefix sums of squares over the padded signal
	prefix := make([]float64, n+1)
	for i := range n {
		var v float64
		if j := i - pad; j >= 0 && j < len(y) {
			v = float64(y[j])
		}
		prefix[i+1] = prefix[i] + v*v
	}

	rms := make([]float64, nFrames)
	for t := range nFrames {
		s := t * hopLength
		energy := prefix[s+frameLength] - prefix[s]
		rms[t] = math.Sqrt(math.Max(0, energy) / frameLength)
	}
	return rms
}

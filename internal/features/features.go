// Package features computes the acoustic feature vector used by the
// heuristic scoring engine.
package features

import (
	"fmt"
	"math"
	"sync"

	"github.com/tphakala/voicedetect/internal/dsp"
	"github.com/tphakala/voicedetect/internal/errors"
)

// Analysis constants shared by all features
const (
	NFFT      = 2048
	HopLength = 512

	// MinSamples is the shortest signal the extractor accepts
	MinSamples = 512

	pitchFrameLength = 2048
	pitchWinLength   = 1024
	pitchFMin        = 65.40639132514966  // C2
	pitchFMax        = 2093.004522404789  // C7
	yinThreshold     = 0.1
	minVoicedFrames  = 10

	nMels         = 128
	nMFCC         = 13
	contrastFMin  = 200.0
	contrastBands = 6
	contrastQuant = 0.02
	rolloffRatio  = 0.85
	ratioEpsilon  = 1e-8
)

// ErrExtraction is returned when a signal cannot produce a valid feature vector
var ErrExtraction = errors.NewStd("feature extraction failed")

// Feature names as reported in JSON and tuning output
const (
	KeyPitchMeanHz        = "pitch_mean_hz"
	KeyPitchVariance      = "pitch_variance"
	KeyJitter             = "jitter"
	KeyVoicedRatio        = "voiced_ratio"
	KeyVoicedProbMean     = "voiced_prob_mean"
	KeySpectralFlatness   = "spectral_flatness"
	KeyZeroCrossingRate   = "zero_crossing_rate"
	KeySpectralRolloff    = "spectral_rolloff"
	KeyMFCCMean           = "mfcc_mean"
	KeyMFCCStd            = "mfcc_std"
	KeyFormantStability   = "formant_stability"
	KeyEnvelopeSmoothness = "envelope_smoothness"
)

// Keys lists all feature names in reporting order
var Keys = []string{
	KeyPitchMeanHz, KeyPitchVariance, KeyJitter, KeyVoicedRatio, KeyVoicedProbMean,
	KeySpectralFlatness, KeyZeroCrossingRate, KeySpectralRolloff,
	KeyMFCCMean, KeyMFCCStd, KeyFormantStability, KeyEnvelopeSmoothness,
}

// Vector is the full set of acoustic features for one signal
type Vector struct {
	PitchMeanHz        float64 `json:"pitch_mean_hz"`
	PitchVariance      float64 `json:"pitch_variance"`
	Jitter             float64 `json:"jitter"`
	VoicedRatio        float64 `json:"voiced_ratio"`
	VoicedProbMean     float64 `json:"voiced_prob_mean"`
	SpectralFlatness   float64 `json:"spectral_flatness"`
	ZeroCrossingRate   float64 `json:"zero_crossing_rate"`
	SpectralRolloff    float64 `json:"spectral_rolloff"`
	MFCCMean           float64 `json:"mfcc_mean"`
	MFCCStd            float64 `json:"mfcc_std"`
	FormantStability   float64 `json:"formant_stability"`
	EnvelopeSmoothness float64 `json:"envelope_smoothness"`
}

// Map returns the features keyed by name
func (v *Vector) Map() map[string]float64 {
	return map[string]float64{
		KeyPitchMeanHz:        v.PitchMeanHz,
		KeyPitchVariance:      v.PitchVariance,
		KeyJitter:             v.Jitter,
		KeyVoicedRatio:        v.VoicedRatio,
		KeyVoicedProbMean:     v.VoicedProbMean,
		KeySpectralFlatness:   v.SpectralFlatness,
		KeyZeroCrossingRate:   v.ZeroCrossingRate,
		KeySpectralRolloff:    v.SpectralRolloff,
		KeyMFCCMean:           v.MFCCMean,
		KeyMFCCStd:            v.MFCCStd,
		KeyFormantStability:   v.FormantStability,
		KeyEnvelopeSmoothness: v.EnvelopeSmoothness,
	}
}

// Get returns a feature by name
func (v *Vector) Get(name string) (float64, bool) {
	val, ok := v.Map()[name]
	return val, ok
}

// Extractor computes feature vectors. It is safe for concurrent use.
type Extractor struct {
	banks sync.Map // sample rate -> *rateBanks
}

// NewExtractor creates an Extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract computes the feature vector of a preprocessed mono signal
func (e *Extractor) Extract(samples []float32, sampleRate int) (*Vector, error) {
	if len(samples) < MinSamples {
		return nil, extractionError(fmt.Errorf("signal has %d samples, need at least %d", len(samples), MinSamples), sampleRate)
	}
	if float64(sampleRate)/2 <= contrastFMin*math.Pow(2, contrastBands-1) {
		return nil, extractionError(fmt.Errorf("sample rate %d too low for spectral contrast", sampleRate), sampleRate)
	}

	y := dsp.ToFloat64(samples)
	banks := e.banksFor(sampleRate)

	v := &Vector{}
	pitch := trackPitch(y, sampleRate)
	pitch.apply(v)

	mag := dsp.NewSTFT(NFFT, HopLength, dsp.PadZero).Magnitude(y)
	v.SpectralFlatness = spectralFlatness(mag)
	v.SpectralRolloff = spectralRolloff(mag, banks.freqs)
	v.MFCCMean, v.MFCCStd = mfccStats(mag, banks)
	v.FormantStability = formantStability(mag, banks.contrast)
	v.ZeroCrossingRate = zeroCrossingRate(y)
	v.EnvelopeSmoothness = envelopeSmoothness(y)

	for name, val := range v.Map() {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, extractionError(fmt.Errorf("feature %s is not finite", name), sampleRate)
		}
	}
	return v, nil
}

// rateBanks caches the sample-rate dependent tables
type rateBanks struct {
	freqs    []float64
	mel      [][]float64
	dct      *dsp.DCT
	contrast []contrastBand
}

func (e *Extractor) banksFor(sampleRate int) *rateBanks {
	if b, ok := e.banks.Load(sampleRate); ok {
		return b.(*rateBanks)
	}
	b := &rateBanks{
		freqs: dsp.FFTFrequencies(sampleRate, NFFT),
		mel: dsp.MelFilterBank(dsp.MelConfig{
			SampleRate: sampleRate,
			NFFT:       NFFT,
			NMels:      nMels,
			FMax:       float64(sampleRate) / 2,
			SlaneyNorm: true,
		}),
		dct: dsp.NewDCT(nMels, nMFCC),
	}
	b.contrast = contrastBandsFor(b.freqs)
	actual, _ := e.banks.LoadOrStore(sampleRate, b)
	return actual.(*rateBanks)
}

func extractionError(cause error, sampleRate int) error {
	return errors.New(fmt.Errorf("%w: %w", ErrExtraction, cause)).
		Component("features").
		Category(errors.CategoryFeatureExtraction).
		Context("sample_rate", sampleRate).
		Build()
}

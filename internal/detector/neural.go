package detector

import (
	"fmt"
	"math"
	"sync"

	"github.com/tphakala/voicedetect/internal/dsp"
	"github.com/tphakala/voicedetect/internal/errors"
	"github.com/tphakala/voicedetect/internal/features"
	"github.com/tphakala/voicedetect/internal/language"
	"github.com/tphakala/voicedetect/internal/preprocess"
	"github.com/tphakala/voicedetect/internal/scoring"
)

// log-mel front end of the neural detector
const (
	melNFFT = 1024
	melHop  = 320
	melFMin = 20.0
)

const (
	explanationSynthetic = "Model indicates synthetic speech characteristics in mel-spectral profile"
	explanationNatural   = "Model indicates natural speech characteristics in mel-spectral profile"
)

// Neural classifies the time-averaged log-mel profile with a small MLP
type Neural struct {
	pre       *preprocess.Preprocessor
	languages *language.Table
	model     *Model
	banks     sync.Map // sample rate -> [][]float64
}

// NewNeural creates a Neural detector
func NewNeural(pre *preprocess.Preprocessor, languages *language.Table, model *Model) *Neural {
	return &Neural{pre: pre, languages: languages, model: model}
}

// Name implements Detector
func (n *Neural) Name() string {
	return string(ModeNeural)
}

// Detect implements Detector
func (n *Neural) Detect(samples []float32, sampleRate int, lang language.Language) (*Result, error) {
	y, err := n.pre.Process(samples, lang)
	if err != nil {
		return nil, err
	}

	profile, err := n.melProfile(y, sampleRate)
	if err != nil {
		return nil, err
	}

	mean, std, err := n.languages.Norm(lang)
	if err != nil {
		return nil, err
	}
	if std <= 0 {
		std = 1
	}
	for i := range profile {
		profile[i] = (profile[i] - mean) / std
	}

	probs := Softmax(n.model.Forward(profile))
	pHuman, pAI := probs[0], probs[1]

	res := &Result{
		Label:         scoring.LabelHuman,
		Confidence:    pHuman,
		Probabilities: map[string]float64{"human": pHuman, "ai": pAI},
		Explanation:   explanationNatural,
	}
	if pAI >= 0.5 {
		res.Label = scoring.LabelAI
		res.Confidence = pAI
		res.Explanation = explanationSynthetic
	}
	res.Confidence = math.Min(1, math.Max(0, res.Confidence))
	return res, nil
}

// melProfile returns the per-band time mean of the log-mel power spectrogram
func (n *Neural) melProfile(y []float32, sampleRate int) ([]float64, error) {
	if len(y) == 0 || sampleRate <= 0 {
		return nil, errors.New(fmt.Errorf("%w: empty signal", features.ErrExtraction)).
			Component("detector").
			Category(errors.CategoryFeatureExtraction).
			Build()
	}

	power := dsp.NewSTFT(melNFFT, melHop, dsp.PadReflect).Power(dsp.ToFloat64(y))
	mel := dsp.PowerToDB(dsp.ApplyFilterBank(n.bankFor(sampleRate), power), dsp.DefaultAmin, dsp.DefaultTopDB)

	profile := make([]float64, n.model.InputDim)
	for _, frame := range mel {
		for m := range profile {
			profile[m] += frame[m]
		}
	}
	for m := range profile {
		profile[m] /= float64(len(mel))
	}
	return profile, nil
}

func (n *Neural) bankFor(sampleRate int) [][]float64 {
	if b, ok := n.banks.Load(sampleRate); ok {
		return b.([][]float64)
	}
	bank := dsp.MelFilterBank(dsp.MelConfig{
		SampleRate: sampleRate,
		NFFT:       melNFFT,
		NMels:      n.model.InputDim,
		FMin:       melFMin,
		FMax:       float64(sampleRate / 2),
		HTK:        true,
	})
	actual, _ := n.banks.LoadOrStore(sampleRate, bank)
	return actual.([][]float64)
}

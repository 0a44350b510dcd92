package dsp

import "math"

// Slaney mel scale constants: linear below 1 kHz, logarithmic above
const (
	slaneyFSp      = 200.0 / 3
	slaneyMinLogHz = 1000.0
	slaneyMinLog   = slaneyMinLogHz / slaneyFSp
)

var slaneyLogStep = math.Log(6.4) / 27.0

// HzToMel converts a frequency to mels on the HTK or Slaney scale
func HzToMel(hz float64, htk bool) float64 {
	if htk {
		return 2595.0 * math.Log10(1.0+hz/700.0)
	}
	if hz < slaneyMinLogHz {
		return hz / slaneyFSp
	}
	return slaneyMinLog + math.Log(hz/slaneyMinLogHz)/slaneyLogStep
}

// MelToHz converts mels back to a frequency
func MelToHz(mel float64, htk bool) float64 {
	if htk {
		return 700.0 * (math.Pow(10, mel/2595.0) - 1.0)
	}
	if mel < slaneyMinLog {
		return slaneyFSp * mel
	}
	return slaneyMinLogHz * math.Exp(slaneyLogStep*(mel-slaneyMinLog))
}

// MelConfig describes a triangular mel filter bank
type MelConfig struct {
	SampleRate int
	NFFT       int
	NMels      int
	FMin       float64
	FMax       float64
	// HTK selects the HTK mel formula instead of Slaney's
	HTK bool
	// SlaneyNorm scales each filter to unit area
	SlaneyNorm bool
}

// MelFilterBank builds the filter bank as [mel][bin]
func MelFilterBank(cfg MelConfig) [][]float64 {
	fftFreqs := FFTFrequencies(cfg.SampleRate, cfg.NFFT)

	minMel := HzToMel(cfg.FMin, cfg.HTK)
	maxMel := HzToMel(cfg.FMax, cfg.HTK)
	melF := make([]float64, cfg.NMels+2)
	for i := range melF {
		m := minMel + (maxMel-minMel)*float64(i)/float64(cfg.NMels+1)
		melF[i] = MelToHz(m, cfg.HTK)
	}

	weights := make([][]float64, cfg.NMels)
	for m := range cfg.NMels {
		lower, centre, upper := melF[m], melF[m+1], melF[m+2]
		row := make([]float64, len(fftFreqs))
		for k, f := range fftFreqs {
			down := (f - lower) / (centre - lower)
			up := (upper - f) / (upper - centre)
			row[k] = math.Max(0, math.Min(down, up))
		}
		if cfg.SlaneyNorm {
			enorm := 2.0 / (upper - lower)
			for k := range row {
				row[k] *= enorm
			}
		}
		weights[m] = row
	}
	return weights
}

// ApplyFilterBank projects a [frame][bin] spectrogram through a [mel][bin] bank
func ApplyFilterBank(bank, spec [][]float64) [][]float64 {
	out := make([][]float64, len(spec))
	for t, frame := range spec {
		row := make([]float64, len(bank))
		for m, filter := range bank {
			var acc float64
			for k, w := range filter {
				if w != 0 {
					acc += w * frame[k]
				}
			}
			row[m] = acc
		}
		out[t] = row
	}
	return out
}

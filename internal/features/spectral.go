package features

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tphakala/voicedetect/internal/dsp"
)

// spectralFlatness is the mean over frames of geometric/arithmetic mean of the power spectrum
func spectralFlatness(mag [][]float64) float64 {
	if len(mag) == 0 {
		return 0
	}
	var total float64
	for _, frame := range mag {
		var logSum, sum float64
		for _, m := range frame {
			p := math.Max(dsp.DefaultAmin, m*m)
			logSum += math.Log(p)
			sum += p
		}
		n := float64(len(frame))
		total += math.Exp(logSum/n) / (sum / n)
	}
	return total / float64(len(mag))
}

// spectralRolloff is the mean frequency below which rolloffRatio of each frame's magnitude lies
func spectralRolloff(mag [][]float64, freqs []float64) float64 {
	if len(mag) == 0 {
		return 0
	}
	var total float64
	for _, frame := range mag {
		threshold := rolloffRatio * floats.Sum(frame)
		var cum float64
		for k, m := range frame {
			cum += m
			if cum >= threshold {
				total += freqs[k]
				break
			}
		}
	}
	return total / float64(len(mag))
}

// mfccStats returns the mean and population std over all 13 MFCCs of all frames
func mfccStats(mag [][]float64, banks *rateBanks) (mean, std float64) {
	power := make([][]float64, len(mag))
	for t, frame := range mag {
		row := make([]float64, len(frame))
		for k, m := range frame {
			row[k] = m * m
		}
		power[t] = row
	}

	melDB := dsp.PowerToDB(dsp.ApplyFilterBank(banks.mel, power), dsp.DefaultAmin, dsp.DefaultTopDB)

	coeffs := make([]float64, 0, len(melDB)*nMFCC)
	scratch := make([]float64, banks.dct.K)
	for _, frame := range melDB {
		scratch = banks.dct.Transform(scratch, frame)
		coeffs = append(coeffs, scratch...)
	}
	if len(coeffs) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(coeffs, nil)
}

// contrastBand lists the spectrum bins of one octave band
type contrastBand struct {
	bins  []int // bins used for sorting
	alpha int   // number of bins averaged for peak and valley
}

// contrastBandsFor splits the spectrum into octave bands starting at contrastFMin.
// Each band above the first borrows the bin below its lower edge, the top band
// extends to Nyquist, and all but the top band drop their last bin.
func contrastBandsFor(freqs []float64) []contrastBand {
	edges := make([]float64, contrastBands+2)
	for k := 1; k < len(edges); k++ {
		edges[k] = contrastFMin * math.Pow(2, float64(k-1))
	}

	bands := make([]contrastBand, contrastBands+1)
	for k := range bands {
		low, high := edges[k], edges[k+1]
		var idx []int
		for i, f := range freqs {
			if f >= low && f <= high {
				idx = append(idx, i)
			}
		}
		if len(idx) == 0 {
			continue
		}
		if k > 0 && idx[0] > 0 {
			idx = append([]int{idx[0] - 1}, idx...)
		}
		if k == contrastBands {
			for i := idx[len(idx)-1] + 1; i < len(freqs); i++ {
				idx = append(idx, i)
			}
		}

		alpha := max(1, int(math.RoundToEven(contrastQuant*float64(len(idx)))))
		bins := idx
		if k < contrastBands && len(bins) > 1 {
			bins = bins[:len(bins)-1]
		}
		bands[k] = contrastBand{bins: bins, alpha: min(alpha, len(bins))}
	}
	return bands
}

// formantStability is 1 - std/mean over the spectral contrast matrix
func formantStability(mag [][]float64, bands []contrastBand) float64 {
	nFrames := len(mag)
	if nFrames == 0 {
		return 0
	}

	peaks := make([][]float64, len(bands))
	valleys := make([][]float64, len(bands))
	sorted := make([]float64, 0, len(mag[0]))

	for k, band := range bands {
		peaks[k] = make([]float64, nFrames)
		valleys[k] = make([]float64, nFrames)
		if len(band.bins) == 0 {
			continue
		}
		for t, frame := range mag {
			sorted = sorted[:0]
			for _, b := range band.bins {
				sorted = append(sorted, frame[b])
			}
			slices.Sort(sorted)
			valleys[k][t] = stat.Mean(sorted[:band.alpha], nil)
			peaks[k][t] = stat.Mean(sorted[len(sorted)-band.alpha:], nil)
		}
	}

	dsp.PowerToDB(peaks, dsp.DefaultAmin, dsp.DefaultTopDB)
	dsp.PowerToDB(valleys, dsp.DefaultAmin, dsp.DefaultTopDB)

	contrast := make([]float64, 0, len(bands)*nFrames)
	for k := range bands {
		for t := range nFrames {
			contrast = append(contrast, peaks[k][t]-valleys[k][t])
		}
	}

	mean, std := stat.PopMeanStdDev(contrast, nil)
	return 1 - std/(mean+ratioEpsilon)
}

// zeroCrossingRate is the mean fraction of sign changes per edge-padded frame.
// Samples within 1e-10 of zero count as positive.
func zeroCrossingRate(y []float64) float64 {
	const threshold = 1e-10
	padded := dsp.PadCenter(y, NFFT/2, dsp.PadEdge)
	nFrames := dsp.FrameCount(len(padded), NFFT, HopLength)
	if nFrames == 0 {
		return 0
	}

	negative := make([]bool, len(padded))
	for i, v := range padded {
		negative[i] = math.Abs(v) > threshold && math.Signbit(v)
	}

	var total float64
	for t := range nFrames {
		start := t * HopLength
		crossings := 0
		for i := start + 1; i < start+NFFT; i++ {
			if negative[i] != negative[i-1] {
				crossings++
			}
		}
		total += float64(crossings) / NFFT
	}
	return total / float64(nFrames)
}

// envelopeSmoothness is the population std of the first difference of the amplitude envelope
func envelopeSmoothness(y []float64) float64 {
	env := dsp.Envelope(y)
	if len(env) < 2 {
		return 0
	}
	diff := make([]float64, len(env)-1)
	for i := range diff {
		diff[i] = env[i+1] - env[i]
	}
	_, std := stat.PopMeanStdDev(diff, nil)
	return std
}

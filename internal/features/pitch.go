package features

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"github.com/tphakala/voicedetect/internal/dsp"
)

// pitchTrack is the YIN result over all frames
type pitchTrack struct {
	f0     []float64 // voiced frames only
	frames int
	prob   []float64 // every frame
}

func (p *pitchTrack) apply(v *Vector) {
	if len(p.f0) <= minVoicedFrames {
		return
	}

	mean, std := stat.PopMeanStdDev(p.f0, nil)
	var diffSum float64
	for i := 1; i < len(p.f0); i++ {
		diffSum += math.Abs(p.f0[i] - p.f0[i-1])
	}

	v.PitchMeanHz = mean
	v.PitchVariance = std / (mean + ratioEpsilon)
	v.Jitter = diffSum / float64(len(p.f0)-1) / (mean + ratioEpsilon)
	v.VoicedRatio = float64(len(p.f0)) / float64(p.frames)
	v.VoicedProbMean = stat.Mean(p.prob, nil)
}

// trackPitch estimates f0 per frame with the YIN cumulative mean normalized
// difference. A frame is voiced when the CMND dips below yinThreshold inside
// the C2..C7 period range.
func trackPitch(y []float64, sampleRate int) *pitchTrack {
	padded := dsp.PadCenter(y, pitchFrameLength/2, dsp.PadZero)
	nFrames := dsp.FrameCount(len(padded), pitchFrameLength, HopLength)
	track := &pitchTrack{frames: nFrames, prob: make([]float64, nFrames)}

	minPeriod := max(1, int(math.Floor(float64(sampleRate)/pitchFMax)))
	maxPeriod := min(int(math.Ceil(float64(sampleRate)/pitchFMin)), pitchFrameLength-pitchWinLength-1)
	if nFrames == 0 || minPeriod >= maxPeriod {
		return track
	}

	est := newYIN(maxPeriod)
	for t := range nFrames {
		frame := padded[t*HopLength : t*HopLength+pitchFrameLength]
		cmnd := est.cmnd(frame)

		tau, voiced := pickPeriod(cmnd, minPeriod, maxPeriod)
		track.prob[t] = clamp01(1 - cmnd[tau])
		if !voiced {
			continue
		}
		period := float64(tau) + parabolicShift(cmnd, tau, minPeriod, maxPeriod)
		if period > 0 {
			track.f0 = append(track.f0, float64(sampleRate)/period)
		}
	}
	return track
}

// yin holds the per-frame FFT scratch buffers
type yin struct {
	maxPeriod int
	fft       *fourier.FFT
	window    []float64
	a, b      []complex128
	corr      []float64
	prefix    []float64
	diff      []float64
	out       []float64
}

func newYIN(maxPeriod int) *yin {
	return &yin{
		maxPeriod: maxPeriod,
		fft:       fourier.NewFFT(pitchFrameLength),
		window:    make([]float64, pitchFrameLength),
		a:         make([]complex128, pitchFrameLength/2+1),
		b:         make([]complex128, pitchFrameLength/2+1),
		corr:      make([]float64, pitchFrameLength),
		prefix:    make([]float64, pitchFrameLength+1),
		diff:      make([]float64, maxPeriod+1),
		out:       make([]float64, maxPeriod+1),
	}
}

// cmnd returns the cumulative mean normalized difference for lags 0..maxPeriod
func (y *yin) cmnd(frame []float64) []float64 {
	const w = pitchWinLength
	n := float64(pitchFrameLength)

	// r(tau) = sum_{j<w} x[j] x[j+tau] via FFT cross-correlation
	y.a = y.fft.Coefficients(y.a, frame)
	copy(y.window, frame[:w])
	clear(y.window[w:])
	y.b = y.fft.Coefficients(y.b, y.window)
	for k := range y.a {
		y.b[k] = complex(real(y.b[k]), -imag(y.b[k])) * y.a[k]
	}
	y.corr = y.fft.Sequence(y.corr, y.b)

	for i, v := range frame {
		y.prefix[i+1] = y.prefix[i] + v*v
	}
	energy0 := y.prefix[w]

	for tau := 0; tau <= y.maxPeriod; tau++ {
		r := y.corr[tau] / n
		if math.Abs(r) < 1e-6 {
			r = 0
		}
		e := y.prefix[tau+w] - y.prefix[tau]
		if math.Abs(e) < 1e-6 {
			e = 0
		}
		y.diff[tau] = max(0, energy0+e-2*r)
	}

	y.out[0] = 1
	var running float64
	for tau := 1; tau <= y.maxPeriod; tau++ {
		running += y.diff[tau]
		if running <= math.SmallestNonzeroFloat64 {
			y.out[tau] = 1
			continue
		}
		y.out[tau] = y.diff[tau] * float64(tau) / running
	}
	return y.out
}

// pickPeriod returns the first local minimum under the threshold, or the
// global minimum with voiced=false when none dips below it.
func pickPeriod(cmnd []float64, minPeriod, maxPeriod int) (tau int, voiced bool) {
	best := minPeriod
	for t := minPeriod; t <= maxPeriod; t++ {
		if cmnd[t] < cmnd[best] {
			best = t
		}
		if cmnd[t] < yinThreshold {
			for t+1 <= maxPeriod && cmnd[t+1] < cmnd[t] {
				t++
			}
			return t, true
		}
	}
	return best, false
}

// parabolicShift refines a trough position to sub-sample accuracy
func parabolicShift(cmnd []float64, tau, minPeriod, maxPeriod int) float64 {
	if tau <= minPeriod || tau >= maxPeriod {
		return 0
	}
	a := cmnd[tau+1] + cmnd[tau-1] - 2*cmnd[tau]
	b := (cmnd[tau+1] - cmnd[tau-1]) / 2
	if math.Abs(a) < 1e-12 {
		return 0
	}
	shift := -b / a
	if math.Abs(shift) > 1 {
		return 0
	}
	return shift
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

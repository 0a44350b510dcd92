package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// HannPeriodic returns the periodic (DFT-even) Hann window of length n
func HannPeriodic(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// STFT computes centered short-time Fourier transforms with a periodic Hann window.
// An STFT is not safe for concurrent use; create one per goroutine.
type STFT struct {
	NFFT   int
	Hop    int
	Pad    PadMode
	window []float64
	fft    *fourier.FFT
	frame  []float64
	coeffs []complex128
}

// NewSTFT creates an STFT with window length equal to nfft
func NewSTFT(nfft, hop int, pad PadMode) *STFT {
	return &STFT{
		NFFT:   nfft,
		Hop:    hop,
		Pad:    pad,
		window: HannPeriodic(nfft),
		fft:    fourier.NewFFT(nfft),
		frame:  make([]float64, nfft),
		coeffs: make([]complex128, nfft/2+1),
	}
}

// Bins returns the number of frequency bins per frame
func (s *STFT) Bins() int {
	return s.NFFT/2 + 1
}

// Magnitude returns |STFT(y)| as [frame][bin]
func (s *STFT) Magnitude(y []float64) [][]float64 {
	return s.transform(y, func(c complex128) float64 { return cmplx.Abs(c) })
}

// Power returns |STFT(y)|^2 as [frame][bin]
func (s *STFT) Power(y []float64) [][]float64 {
	return s.transform(y, func(c complex128) float64 {
		re, im := real(c), imag(c)
		return re*re + im*im
	})
}

func (s *STFT) transform(y []float64, mag func(complex128) float64) [][]float64 {
	padded := PadCenter(y, s.NFFT/2, s.Pad)
	nFrames := FrameCount(len(padded), s.NFFT, s.Hop)
	out := make([][]float64, nFrames)

	for t := range nFrames {
		start := t * s.Hop
		for i := range s.NFFT {
			s.frame[i] = padded[start+i] * s.window[i]
		}
		s.coeffs = s.fft.Coefficients(s.coeffs, s.frame)

		row := make([]float64, len(s.coeffs))
		for k, c := range s.coeffs {
			row[k] = mag(c)
		}
		out[t] = row
	}
	return out
}

// FFTFrequencies returns the centre frequency of each rfft bin
func FFTFrequencies(sampleRate, nfft int) []float64 {
	freqs := make([]float64, nfft/2+1)
	for k := range freqs {
		freqs[k] = float64(k) * float64(sampleRate) / float64(nfft)
	}
	return freqs
}

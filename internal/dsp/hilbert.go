package dsp

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Envelope returns |analytic(y)|, the amplitude envelope obtained from a
// single full-length FFT with negative frequencies zeroed.
func Envelope(y []float64) []float64 {
	n := len(y)
	if n == 0 {
		return nil
	}

	seq := make([]complex128, n)
	for i, v := range y {
		seq[i] = complex(v, 0)
	}

	fft := fourier.NewCmplxFFT(n)
	spec := fft.Coefficients(nil, seq)

	// h multiplier: DC (and Nyquist for even n) kept, positive frequencies doubled
	half := (n + 1) / 2
	for k := 1; k < half; k++ {
		spec[k] *= 2
	}
	for k := n/2 + 1; k < n; k++ {
		spec[k] = 0
	}

	analytic := fft.Sequence(nil, spec)
	env := make([]float64, n)
	scale := 1.0 / float64(n)
	for i, c := range analytic {
		env[i] = cmplx.Abs(c) * scale
	}
	return env
}

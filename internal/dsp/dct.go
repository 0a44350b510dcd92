package dsp

import "math"

// DCT is an orthonormal DCT-II truncated to the first K coefficients.
// The basis is precomputed; an instance is safe for concurrent use.
type DCT struct {
	N, K  int
	basis [][]float64
}

// NewDCT builds the basis for inputs of length n keeping k outputs
func NewDCT(n, k int) *DCT {
	k = min(k, n)
	basis := make([][]float64, k)
	for j := range k {
		scale := math.Sqrt(2.0 / float64(n))
		if j == 0 {
			scale = math.Sqrt(1.0 / float64(n))
		}
		row := make([]float64, n)
		for i := range n {
			row[i] = scale * math.Cos(math.Pi*float64(j)*(2*float64(i)+1)/(2*float64(n)))
		}
		basis[j] = row
	}
	return &DCT{N: n, K: k, basis: basis}
}

// Transform writes the K coefficients of x into dst and returns it
func (d *DCT) Transform(dst, x []float64) []float64 {
	if len(dst) != d.K {
		dst = make([]float64, d.K)
	}
	for j, row := range d.basis {
		var acc float64
		for i, b := range row {
			acc += b * x[i]
		}
		dst[j] = acc
	}
	return dst
}

package dsp

// PadMode selects how a signal is extended past its edges
type PadMode int

const (
	// PadZero extends with zeros
	PadZero PadMode = iota
	// PadReflect mirrors the signal without repeating the edge sample
	PadReflect
	// PadEdge repeats the edge sample
	PadEdge
)

// PadCenter returns a copy of x with pad samples added on both sides
func PadCenter(x []float64, pad int, mode PadMode) []float64 {
	n := len(x)
	out := make([]float64, n+2*pad)
	copy(out[pad:], x)
	if n == 0 || pad == 0 {
		return out
	}

	for i := range pad {
		out[pad-1-i] = sampleAt(x, -1-i, mode)
		out[pad+n+i] = sampleAt(x, n+i, mode)
	}
	return out
}

// sampleAt returns the value of the extended signal at index i
func sampleAt(x []float64, i int, mode PadMode) float64 {
	n := len(x)
	if i >= 0 && i < n {
		return x[i]
	}
	switch mode {
	case PadEdge:
		if i < 0 {
			return x[0]
		}
		return x[n-1]
	case PadReflect:
		return x[reflectIndex(i, n)]
	default:
		return 0
	}
}

// reflectIndex folds i into [0, n) by repeated mirroring about the end samples
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}

// FrameCount returns how many frames of length frameLen fit at the given hop
func FrameCount(n, frameLen, hop int) int {
	if n < frameLen || hop <= 0 {
		return 0
	}
	return 1 + (n-frameLen)/hop
}

// ToFloat64 widens a float32 signal
func ToFloat64(x []float32) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(v)
	}
	return out
}

package dsp

import "math"

const (
	// DefaultAmin floors power values before taking logarithms
	DefaultAmin = 1e-10
	// DefaultTopDB limits dynamic range below the loudest value
	DefaultTopDB = 80.0
)

// PowerToDB converts a power matrix to decibels relative to 1.0 in place.
// Values are floored at amin; when topDB > 0 the whole matrix is clipped
// to at most topDB below its maximum.
func PowerToDB(s [][]float64, amin, topDB float64) [][]float64 {
	maxDB := math.Inf(-1)
	for _, row := range s {
		for i, v := range row {
			db := 10 * math.Log10(math.Max(amin, v))
			row[i] = db
			if db > maxDB {
				maxDB = db
			}
		}
	}
	if topDB <= 0 {
		return s
	}

	floor := maxDB - topDB
	for _, row := range s {
		for i, v := range row {
			if v < floor {
				row[i] = floor
			}
		}
	}
	return s
}

// PowerToDBVector is PowerToDB for a single row
func PowerToDBVector(v []float64, amin, topDB float64) []float64 {
	PowerToDB([][]float64{v}, amin, topDB)
	return v
}

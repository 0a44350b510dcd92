package cpuspec

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeterminePerformanceCores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		brand string
		want  int
	}{
		{"12th Gen Intel(R) Core(TM) i9-12900K", 8},
		{"13th Gen Intel(R) Core(TM) i5-13600KF", 6},
		{"Intel(R) Core(TM) i3-14100", 4},
		{"Intel(R) Core(TM) Ultra 7 265K", 8},
		{"Intel(R) Core(TM) Ultra 5 Processor 225", 4},
		{"Apple M1", 4},
		{"Apple M2 Max", 12},
		{"Apple M3 Ultra", 24},
		{"Intel(R) Core(TM) i7-8700K", 0},
		{"AMD Ryzen 9 7950X 16-Core Processor", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.brand, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, determinePerformanceCores(tt.brand))
		})
	}
}

func TestGetOptimalThreadCount(t *testing.T) {
	t.Parallel()

	available := runtime.NumCPU()

	assert.Equal(t, 1, CPUSpec{LogicalCores: 8, PerformanceCores: 1}.GetOptimalThreadCount())
	assert.Equal(t, available, CPUSpec{LogicalCores: available + 64}.GetOptimalThreadCount())
	assert.Equal(t, available, CPUSpec{}.GetOptimalThreadCount())

	got := GetCPUSpec().GetOptimalThreadCount()
	assert.GreaterOrEqual(t, got, 1)
	assert.LessOrEqual(t, got, available)
}

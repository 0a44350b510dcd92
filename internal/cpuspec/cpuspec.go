// Package cpuspec reports CPU capabilities used to size worker pools and
// describe the host in health responses.
package cpuspec

import (
	"regexp"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// CPUSpec contains information about CPU specifications
type CPUSpec struct {
	BrandName        string
	PhysicalCores    int
	LogicalCores     int
	PerformanceCores int // 0 when the CPU is not a known hybrid design
	AVX2             bool
}

// GetCPUSpec returns CPU specifications for the running host
func GetCPUSpec() CPUSpec {
	brandName := cpuid.CPU.BrandName

	return CPUSpec{
		BrandName:        brandName,
		PhysicalCores:    cpuid.CPU.PhysicalCores,
		LogicalCores:     cpuid.CPU.LogicalCores,
		PerformanceCores: determinePerformanceCores(brandName),
		AVX2:             cpuid.CPU.Supports(cpuid.AVX2),
	}
}

// GetOptimalThreadCount returns the recommended number of concurrent
// detections. Hybrid CPUs are limited to their performance cores; the result
// never exceeds the CPUs available to the process.
func (c CPUSpec) GetOptimalThreadCount() int {
	// NumCPU honours affinity masks and container limits
	available := runtime.NumCPU()

	threads := c.LogicalCores
	if c.PerformanceCores > 0 {
		threads = c.PerformanceCores
	}
	if threads <= 0 || threads > available {
		return available
	}
	return threads
}

var (
	intelCoreRegex = regexp.MustCompile(`intel.*(?:core.*i[3579]-(\d{5})|core.*ultra\s+([579])\s+(?:processor\s+)?(\d{3}))`)
	appleRegex     = regexp.MustCompile(`apple\s+(m[1-4](?:\s*(?:pro|max|ultra))?)`)
)

// Performance core counts of hybrid Intel desktop parts, keyed by model number
var intelPerformanceCores = map[string]int{
	"12900": 8, "12700": 8, "12600": 6, "12400": 6, "12100": 4,
	"13900": 8, "13700": 8, "13600": 6, "13500": 6, "13400": 6, "13100": 4,
	"14900": 8, "14700": 8, "14600": 6, "14400": 6, "14100": 4,
}

// Core Ultra parts keyed by "<series> <model>"
var coreUltraPerformanceCores = map[string]int{
	"9 285": 8,
	"7 265": 8,
	"7 255": 8,
	"5 235": 6,
	"5 225": 4,
}

// Apple silicon; Pro variants ship with two core counts and the larger is used
var applePerformanceCores = map[string]int{
	"m1": 4, "m1 pro": 8, "m1 max": 8, "m1 ultra": 16,
	"m2": 4, "m2 pro": 8, "m2 max": 12, "m2 ultra": 24,
	"m3": 4, "m3 pro": 8, "m3 max": 12, "m3 ultra": 24,
	"m4": 6, "m4 pro": 8, "m4 max": 12,
}

func determinePerformanceCores(brandName string) int {
	brandName = strings.ToLower(brandName)

	if m := intelCoreRegex.FindStringSubmatch(brandName); m != nil {
		if m[1] != "" {
			return intelPerformanceCores[m[1]]
		}
		return coreUltraPerformanceCores[m[2]+" "+m[3]]
	}

	if m := appleRegex.FindStringSubmatch(brandName); m != nil {
		chip := strings.Join(strings.Fields(m[1]), " ")
		return applePerformanceCores[chip]
	}

	return 0
}

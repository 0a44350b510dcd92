package api

import (
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/tphakala/voicedetect/internal/cpuspec"
	"github.com/tphakala/voicedetect/internal/logger"
)

// CPUInfo describes the host the detector runs on
type CPUInfo struct {
	Platform string `json:"platform"`
	Go       string `json:"go"`
	Threads  int    `json:"threads"`
	PID      int    `json:"pid"`
	Model    string `json:"model"`
	Cores    int    `json:"cores"`
	AVX2     bool   `json:"avx2"`
}

// GPUInfo reports accelerator availability. Inference always runs on the CPU.
type GPUInfo struct {
	Available bool `json:"available"`
}

// HealthResponse is returned by GET /api/v1/health
type HealthResponse struct {
	Status        string  `json:"status"`
	CPU           CPUInfo `json:"cpu"`
	GPU           GPUInfo `json:"gpu"`
	Detector      string  `json:"detector"`
	Device        string  `json:"device"`
	MemoryUsedPct float64 `json:"memoryUsedPercent,omitempty"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// staticHostInfo is gathered once; none of it changes while the process runs
type staticHostInfo struct {
	platform string
	model    string
	cores    int
	avx2     bool
}

var hostInfoOnce = sync.OnceValue(func() staticHostInfo {
	spec := cpuspec.GetCPUSpec()
	info := staticHostInfo{
		platform: runtime.GOOS + "-" + runtime.GOARCH,
		model:    spec.BrandName,
		cores:    spec.PhysicalCores,
		avx2:     spec.AVX2,
	}
	if info.cores <= 0 {
		info.cores = spec.LogicalCores
	}

	hi, err := host.Info()
	if err != nil {
		GetLogger().Debug("host info unavailable", logger.Error(err))
		return info
	}
	parts := []string{hi.OS}
	for _, p := range []string{hi.Platform, hi.PlatformVersion, hi.KernelArch} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	info.platform = strings.Join(parts, "-")
	return info
})

// health handles GET /api/v1/health
func (s *Server) health(c echo.Context) error {
	info := hostInfoOnce()

	resp := HealthResponse{
		Status: "healthy",
		CPU: CPUInfo{
			Platform: info.platform,
			Go:       runtime.Version(),
			Threads:  runtime.GOMAXPROCS(0),
			PID:      os.Getpid(),
			Model:    info.model,
			Cores:    info.cores,
			AVX2:     info.avx2,
		},
		GPU:           GPUInfo{Available: false},
		Detector:      s.classifier.DetectorName(),
		Device:        s.config.Device,
		UptimeSeconds: time.Since(s.startTime).Seconds(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		resp.MemoryUsedPct = vm.UsedPercent
	}

	return c.JSON(http.StatusOK, resp)
}

package resource

import (
	"runtime"
	"time"

	"github.com/c9s/goprocinfo/linux"
)

// HostStats representa las estadísticas de recursos del host que respalda
// un fabric de cómputo.
type HostStats struct {
	CPUStats    CPUStats    `json:"cpu_stats"`
	MemoryStats MemoryStats `json:"memory_stats"`
	LoadAvg     float64     `json:"load_avg"`
}

// CPUStats representa las estadísticas de CPU
type CPUStats struct {
	AvailableCores int `json:"available_cores"`
}

// MemoryStats representa las estadísticas de memoria en KB
type MemoryStats struct {
	TotalKb uint64 `json:"total_kb"`
	FreeKb  uint64 `json:"free_kb"`
}

// HealthStatus representa el estado de salud del fabric
type HealthStatus struct {
	IsHealthy bool      `json:"is_healthy"`
	LastCheck time.Time `json:"last_check"`
	Message   string    `json:"message,omitempty"`
}

// NewHealthStatus crea una nueva instancia de HealthStatus con valores por defecto
func NewHealthStatus() HealthStatus {
	return HealthStatus{
		IsHealthy: true,
		LastCheck: time.Now(),
	}
}

// NewHostStats lee /proc vía goprocinfo; si no está disponible (no Linux)
// degrada a la información del runtime.
func NewHostStats() HostStats {
	stats := HostStats{
		CPUStats: CPUStats{AvailableCores: runtime.NumCPU()},
	}

	if mem, err := linux.ReadMemInfo("/proc/meminfo"); err == nil {
		stats.MemoryStats = MemoryStats{
			TotalKb: mem.MemTotal,
			FreeKb:  mem.MemAvailable,
		}
	} else {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		stats.MemoryStats = MemoryStats{
			TotalKb: m.Sys / 1024,
			FreeKb:  m.HeapIdle / 1024,
		}
	}

	if load, err := linux.ReadLoadAvg("/proc/loadavg"); err == nil {
		stats.LoadAvg = load.Last1Min
	}

	return stats
}

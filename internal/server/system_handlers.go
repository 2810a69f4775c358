package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/riskd/internal/database"
	"github.com/aristath/riskd/internal/reliability"
)

// SystemHandlers provides system monitoring and operations endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	databases []*database.DB
	backups   *reliability.BackupService // nil when backups are not configured
	startedAt time.Time
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	databases []*database.DB,
	backups *reliability.BackupService,
) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		databases: databases,
		backups:   backups,
		startedAt: time.Now(),
	}
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPct, ramPct := h.getSystemStats()

	healthy := true
	databases := make(map[string]string, len(h.databases))
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	for _, db := range h.databases {
		if err := db.HealthCheck(ctx); err != nil {
			databases[db.Name()] = "unhealthy"
			healthy = false
			continue
		}
		databases[db.Name()] = "ok"
	}

	status := "ok"
	if !healthy {
		status = "degraded"
	}

	h.writeJSON(w, map[string]interface{}{
		"data": map[string]interface{}{
			"status":         status,
			"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
			"cpu_percent":    cpuPct,
			"ram_percent":    ramPct,
			"goroutines":     runtime.NumGoroutine(),
			"go_version":     runtime.Version(),
			"databases":      databases,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleDatabaseStats handles GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]interface{}, len(h.databases))
	for _, db := range h.databases {
		dbStats, err := db.GetStats()
		if err != nil {
			h.log.Error().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
			stats[db.Name()] = map[string]interface{}{"error": err.Error()}
			continue
		}
		stats[db.Name()] = map[string]interface{}{
			"size_bytes":     dbStats.SizeBytes,
			"wal_size_bytes": dbStats.WALSizeBytes,
			"page_count":     dbStats.PageCount,
			"page_size":      dbStats.PageSize,
			"freelist_count": dbStats.FreelistCount,
		}
	}

	h.writeJSON(w, map[string]interface{}{
		"data": map[string]interface{}{
			"databases": stats,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleDiskUsage handles GET /api/system/disk
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]interface{}{
		"data": map[string]interface{}{
			"data_dir":     h.dataDir,
			"data_size_mb": h.getDirSize(h.dataDir),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleTriggerBackup handles POST /api/system/backups
func (h *SystemHandlers) HandleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		http.Error(w, "Backups are not configured", http.StatusServiceUnavailable)
		return
	}

	h.log.Info().Msg("Manual backup triggered")
	if err := h.backups.RunBackup(); err != nil {
		h.log.Error().Err(err).Msg("Manual backup failed")
		http.Error(w, "Backup failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"data": map[string]string{
			"status": "success",
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleListBackups handles GET /api/system/backups
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		http.Error(w, "Backups are not configured", http.StatusServiceUnavailable)
		return
	}

	backups, err := h.backups.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		http.Error(w, "Failed to list backups", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"data": map[string]interface{}{
			"backups": backups,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(backups),
		},
	})
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getSystemStats returns CPU and RAM usage percentages.
// A 100ms sampling interval keeps the status endpoint responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

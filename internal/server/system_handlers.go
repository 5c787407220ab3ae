package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/insights/internal/modules/identifiers"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Job is a background job that can be triggered manually
type Job interface {
	Run() error
	Name() string
}

// SnapshotSource exposes the live registry snapshot
type SnapshotSource interface {
	Current() *identifiers.Snapshot
	Freshness() time.Duration
}

// DatabaseChecker runs a cheap integrity check
type DatabaseChecker interface {
	QuickCheck(ctx context.Context) error
}

// SystemHandlers handles system monitoring and operations endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	snapshots SnapshotSource
	db        DatabaseChecker
	jobs      map[string]Job
	startedAt time.Time
	now       func() time.Time
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, snapshots SnapshotSource, db DatabaseChecker) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		snapshots: snapshots,
		db:        db,
		jobs:      make(map[string]Job),
		startedAt: time.Now(),
		now:       time.Now,
	}
}

// SetJobs registers jobs for manual triggering, keyed by job name
func (h *SystemHandlers) SetJobs(jobs ...Job) {
	for _, job := range jobs {
		if job != nil {
			h.jobs[job.Name()] = job
		}
	}
}

// RegistryStatus describes the live identifier snapshot
type RegistryStatus struct {
	Loaded      bool    `json:"loaded"`
	Version     uint64  `json:"version"`
	RetrievedAt string  `json:"retrieved_at,omitempty"`
	AgeSeconds  float64 `json:"age_seconds"`
	Entries     int     `json:"entries"`
	Fresh       bool    `json:"fresh"`
}

// SystemStatusResponse represents system status
type SystemStatusResponse struct {
	Status        string         `json:"status"` // "healthy", "degraded" or "unhealthy"
	UptimeSeconds float64        `json:"uptime_seconds"`
	CPUPercent    float64        `json:"cpu_percent"`
	MemoryPercent float64        `json:"memory_percent"`
	Database      string         `json:"database"` // "ok" or the failure
	Registry      RegistryStatus `json:"registry"`
	Timestamp     string         `json:"timestamp"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	now := h.now()
	cpuPercent, memPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: now.Sub(h.startedAt).Seconds(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Database:      "ok",
		Timestamp:     now.Format(time.RFC3339),
	}

	if h.db != nil {
		if err := h.db.QuickCheck(r.Context()); err != nil {
			h.log.Warn().Err(err).Msg("Database check failed")
			response.Database = err.Error()
			response.Status = "unhealthy"
		}
	}

	snap := h.snapshots.Current()
	if snap == nil {
		response.Status = "unhealthy"
	} else {
		response.Registry = RegistryStatus{
			Loaded:      true,
			Version:     snap.Version(),
			RetrievedAt: snap.RetrievedAt().Format(time.RFC3339),
			AgeSeconds:  snap.Age(now).Seconds(),
			Entries:     snap.Len(),
			Fresh:       snap.FreshAt(now, h.snapshots.Freshness()),
		}
		if !response.Registry.Fresh && response.Status == "healthy" {
			response.Status = "degraded"
		}
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleTriggerJob handles POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request, name string) {
	job, ok := h.jobs[name]
	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "Unknown job"})
		return
	}

	start := time.Now()
	if err := job.Run(); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"job":   name,
			"error": err.Error(),
		})
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job run completed")
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"job":         name,
		"status":      "completed",
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

// getSystemStats returns CPU and RAM usage percentages.
// CPU is sampled over 100ms so the endpoint stays responsive.
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

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

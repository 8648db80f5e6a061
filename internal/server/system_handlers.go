package server

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/aristath/avgdown/internal/database"
	"github.com/aristath/avgdown/internal/modules/currency"
	"github.com/aristath/avgdown/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// DBInspector reports database health and size.
type DBInspector interface {
	QuickCheck(ctx context.Context) error
	GetStats() (*database.Stats, error)
}

// JobScheduler reports and triggers background jobs.
type JobScheduler interface {
	Status() []scheduler.JobStatus
	RunNow(job scheduler.Job) error
}

// RateReader exposes the exchange rate in effect.
type RateReader interface {
	Snapshot() currency.RateSnapshot
}

// SystemHandlers handles system-wide monitoring and operations
type SystemHandlers struct {
	log       zerolog.Logger
	db        DBInspector
	scheduler JobScheduler
	rates     RateReader
	jobs      map[string]scheduler.Job
	startedAt time.Time
}

// NewSystemHandlers creates a new system handlers instance. Any dependency may be
// nil; the matching part of the status is then omitted.
func NewSystemHandlers(log zerolog.Logger, db DBInspector, sched JobScheduler, rates RateReader, jobs []scheduler.Job) *SystemHandlers {
	byName := make(map[string]scheduler.Job, len(jobs))
	for _, j := range jobs {
		byName[j.Name()] = j
	}
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		db:        db,
		scheduler: sched,
		rates:     rates,
		jobs:      byName,
		startedAt: time.Now(),
	}
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status        string                 `json:"status"` // "healthy" or "degraded"
	UptimeSeconds int64                  `json:"uptime_seconds"`
	CPUPercent    float64                `json:"cpu_percent"`
	MemPercent    float64                `json:"mem_percent"`
	Goroutines    int                    `json:"goroutines"`
	Database      *database.Stats        `json:"database,omitempty"`
	DatabaseError string                 `json:"database_error,omitempty"`
	ExchangeRate  *currency.RateSnapshot `json:"exchange_rate,omitempty"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		CPUPercent:    cpuPercent,
		MemPercent:    memPercent,
		Goroutines:    runtime.NumGoroutine(),
	}

	if h.db != nil {
		if err := h.db.QuickCheck(r.Context()); err != nil {
			response.Status = "degraded"
			response.DatabaseError = err.Error()
		} else if stats, err := h.db.GetStats(); err != nil {
			h.log.Warn().Err(err).Msg("Failed to get database stats")
		} else {
			response.Database = stats
		}
	}

	if h.rates != nil {
		snap := h.rates.Snapshot()
		response.ExchangeRate = &snap
		if snap.Stale {
			response.Status = "degraded"
		}
	}

	writeJSON(w, h.log, http.StatusOK, response)
}

// HandleJobsStatus handles GET /api/system/jobs
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	var jobs []scheduler.JobStatus
	if h.scheduler != nil {
		jobs = h.scheduler.Status()
	}
	if jobs == nil {
		jobs = []scheduler.JobStatus{}
	}

	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// HandleRunJob handles POST /api/system/jobs/{name}/run
func (h *SystemHandlers) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok || h.scheduler == nil {
		http.Error(w, "Unknown job", http.StatusNotFound)
		return
	}

	start := time.Now()
	err := h.scheduler.RunNow(job)

	response := map[string]interface{}{
		"job":         name,
		"success":     err == nil,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		h.log.Warn().Err(err).Str("job", name).Msg("Manually triggered job failed")
		response["error"] = err.Error()
	}

	writeJSON(w, h.log, http.StatusOK, response)
}

// getSystemStats returns CPU and RAM usage percentages.
// CPU is sampled over 100ms to keep the request fast.
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

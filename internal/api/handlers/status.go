package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/squeeze/internal/contracts"
	"github.com/wonny/squeeze/internal/pipeline"
	"github.com/wonny/squeeze/internal/scheduler"
	"github.com/wonny/squeeze/pkg/logger"
)

// defaultHistoryLimit is how many runs the history endpoint returns
// unless the caller asks for more.
const defaultHistoryLimit = 20

// Jobs exposes scheduler state to the read-only status API.
type Jobs interface {
	Stats() map[string]scheduler.JobStats
	JobHistoryFor(jobName string) (*scheduler.JobHistory, error)
}

// LastRun exposes the most recent scan outcome.
type LastRun interface {
	LastResult() *pipeline.RunResult
}

// StatusHandler serves the daemon's status endpoints
// ⭐ SSOT: 상태 API 핸들러는 여기서만
type StatusHandler struct {
	jobs    Jobs
	lastRun LastRun
	started time.Time
	logger  *logger.Logger
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(jobs Jobs, lastRun LastRun, log *logger.Logger) *StatusHandler {
	return &StatusHandler{
		jobs:    jobs,
		lastRun: lastRun,
		started: time.Now(),
		logger:  log,
	}
}

// StatusResponse summarizes the daemon and its scheduled jobs.
type StatusResponse struct {
	UptimeSeconds float64                       `json:"uptimeSeconds"`
	Jobs          map[string]scheduler.JobStats `json:"jobs"`
}

// GetStatus returns aggregate job statistics.
// GET /api/v1/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, StatusResponse{
		UptimeSeconds: time.Since(h.started).Seconds(),
		Jobs:          h.jobs.Stats(),
	})
}

// LastRunResponse describes the most recent scan run.
type LastRunResponse struct {
	RunID           string                      `json:"runId"`
	StartedAt       time.Time                   `json:"startedAt"`
	DurationSeconds float64                     `json:"durationSeconds"`
	Success         bool                        `json:"success"`
	Error           string                      `json:"error,omitempty"`
	CompletedStages []string                    `json:"completedStages"`
	UniverseSize    int                         `json:"universeSize"`
	Collected       int                         `json:"collected"`
	Skipped         map[string]string           `json:"skipped,omitempty"`
	Survivors       int                         `json:"survivors"`
	FilterCounts    map[string]int              `json:"filterCounts,omitempty"`
	Top             []contracts.ScoredCandidate `json:"top"`
}

// GetLastRun returns the most recent scan result.
// GET /api/v1/last-run
func (h *StatusHandler) GetLastRun(w http.ResponseWriter, r *http.Request) {
	result := h.lastRun.LastResult()
	if result == nil {
		respondError(w, http.StatusNotFound, "No scan has run yet")
		return
	}

	resp := LastRunResponse{
		RunID:           result.RunID,
		StartedAt:       result.StartedAt,
		DurationSeconds: result.Duration.Seconds(),
		Success:         result.Success,
		CompletedStages: result.CompletedStages,
		UniverseSize:    result.UniverseSize,
		Collected:       result.Collected,
		Skipped:         result.Skipped,
		Survivors:       result.Survivors,
		FilterCounts:    result.FilterCounts,
		Top:             result.Top,
	}
	if result.Error != nil {
		resp.Error = result.Error.Error()
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetHistory returns recent executions of a scheduled job.
// GET /api/v1/history?job=daily_scan&limit=20
func (h *StatusHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	jobName := r.URL.Query().Get("job")
	if jobName == "" {
		jobName = "daily_scan"
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = n
	}

	history, err := h.jobs.JobHistoryFor(jobName)
	if err != nil {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}

	respondJSON(w, http.StatusOK, history.LatestResults(limit))
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

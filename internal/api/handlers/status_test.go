package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wonny/squeeze/internal/contracts"
	"github.com/wonny/squeeze/internal/pipeline"
	"github.com/wonny/squeeze/internal/scheduler"
	"github.com/wonny/squeeze/pkg/config"
	"github.com/wonny/squeeze/pkg/logger"
)

type fakeJobs struct {
	stats   map[string]scheduler.JobStats
	history *scheduler.JobHistory
}

func (f *fakeJobs) Stats() map[string]scheduler.JobStats {
	return f.stats
}

func (f *fakeJobs) JobHistoryFor(jobName string) (*scheduler.JobHistory, error) {
	if f.history == nil {
		return nil, errors.New("job not found")
	}
	return f.history, nil
}

type fakeLastRun struct {
	result *pipeline.RunResult
}

func (f *fakeLastRun) LastResult() *pipeline.RunResult {
	return f.result
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error"})
}

func TestGetStatus(t *testing.T) {
	jobs := &fakeJobs{
		stats: map[string]scheduler.JobStats{
			"daily_scan": {
				JobName:      "daily_scan",
				Schedule:     "0 0 18 * * 1-5",
				TotalRuns:    4,
				SuccessCount: 3,
				FailureCount: 1,
				SuccessRate:  0.75,
			},
		},
	}
	handler := NewStatusHandler(jobs, &fakeLastRun{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	handler.GetStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}

	var resp StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	jobStats, ok := resp.Jobs["daily_scan"]
	if !ok {
		t.Fatal("Response missing daily_scan stats")
	}
	if jobStats.TotalRuns != 4 || jobStats.SuccessRate != 0.75 {
		t.Errorf("Stats = %+v, want 4 runs at 0.75 success", jobStats)
	}
}

func TestGetLastRunBeforeFirstScan(t *testing.T) {
	handler := NewStatusHandler(&fakeJobs{}, &fakeLastRun{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/last-run", nil)
	rec := httptest.NewRecorder()
	handler.GetLastRun(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", rec.Code)
	}
}

func TestGetLastRun(t *testing.T) {
	result := &pipeline.RunResult{
		RunID:           "run_20260821_180000",
		StartedAt:       time.Date(2026, 8, 21, 18, 0, 0, 0, time.UTC),
		Duration:        90 * time.Second,
		Success:         true,
		CompletedStages: []string{"universe", "collect", "screen", "rank", "notify"},
		UniverseSize:    312,
		Collected:       280,
		Skipped:         map[string]string{"ZZZZ": "no quote data"},
		Survivors:       2,
		FilterCounts:    map[string]int{"market_cap": 120, "short_interest": 90},
		Top: []contracts.ScoredCandidate{
			{Candidate: contracts.CandidateRecord{Symbol: "GME"}, Rank: 1, CompositeScore: 91.2},
		},
	}
	handler := NewStatusHandler(&fakeJobs{}, &fakeLastRun{result: result}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/last-run", nil)
	rec := httptest.NewRecorder()
	handler.GetLastRun(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}

	var resp LastRunResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.RunID != "run_20260821_180000" {
		t.Errorf("RunID = %s, want run_20260821_180000", resp.RunID)
	}
	if resp.DurationSeconds != 90 {
		t.Errorf("DurationSeconds = %f, want 90", resp.DurationSeconds)
	}
	if !resp.Success || resp.Error != "" {
		t.Errorf("Success/Error = %v/%q, want success with no error", resp.Success, resp.Error)
	}
	if resp.UniverseSize != 312 || resp.Collected != 280 || resp.Survivors != 2 {
		t.Errorf("Counts = %d/%d/%d, want 312/280/2", resp.UniverseSize, resp.Collected, resp.Survivors)
	}
	if len(resp.Top) != 1 || resp.Top[0].Candidate.Symbol != "GME" {
		t.Errorf("Top = %v, want [GME]", resp.Top)
	}
	if resp.Skipped["ZZZZ"] != "no quote data" {
		t.Errorf("Skipped = %v, want ZZZZ reason", resp.Skipped)
	}
}

func TestGetLastRunFailedRun(t *testing.T) {
	result := &pipeline.RunResult{
		RunID:           "run_20260821_180000",
		Success:         false,
		Error:           errors.New("notify failed: telegram: delivery rejected (code 403)"),
		CompletedStages: []string{"universe", "collect", "screen", "rank"},
	}
	handler := NewStatusHandler(&fakeJobs{}, &fakeLastRun{result: result}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/last-run", nil)
	rec := httptest.NewRecorder()
	handler.GetLastRun(rec, req)

	var resp LastRunResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Success {
		t.Error("Success should be false")
	}
	if resp.Error == "" {
		t.Error("Error message should be set for failed runs")
	}
}

func TestGetHistory(t *testing.T) {
	history := &scheduler.JobHistory{}
	for i := 0; i < 30; i++ {
		history.AddResult(scheduler.JobResult{JobName: "daily_scan", Success: true})
	}
	handler := NewStatusHandler(&fakeJobs{history: history}, &fakeLastRun{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=5", nil)
	rec := httptest.NewRecorder()
	handler.GetHistory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}

	var results []scheduler.JobResult
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("Got %d results, want 5", len(results))
	}
}

func TestGetHistoryBadLimit(t *testing.T) {
	handler := NewStatusHandler(&fakeJobs{history: &scheduler.JobHistory{}}, &fakeLastRun{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=abc", nil)
	rec := httptest.NewRecorder()
	handler.GetHistory(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", rec.Code)
	}
}

func TestGetHistoryUnknownJob(t *testing.T) {
	handler := NewStatusHandler(&fakeJobs{}, &fakeLastRun{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history?job=nope", nil)
	rec := httptest.NewRecorder()
	handler.GetHistory(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", rec.Code)
	}
}

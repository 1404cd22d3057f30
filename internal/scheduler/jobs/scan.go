package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/squeeze/internal/pipeline"
	"github.com/wonny/squeeze/pkg/logger"
)

// Runner abstracts the scan pipeline for scheduling.
type Runner interface {
	Run(ctx context.Context) (*pipeline.RunResult, error)
}

// ScanJob runs the full squeeze scan on a cron schedule
// ⭐ SSOT: 스캔 스케줄은 이 Job에서만
type ScanJob struct {
	runner   Runner
	schedule string
	logger   *logger.Logger

	mu   sync.RWMutex
	last *pipeline.RunResult
}

// NewScanJob creates a new scan job.
func NewScanJob(runner Runner, schedule string, log *logger.Logger) *ScanJob {
	return &ScanJob{
		runner:   runner,
		schedule: schedule,
		logger:   log.WithField("module", "scan_job"),
	}
}

// Name returns the job name.
func (j *ScanJob) Name() string {
	return "daily_scan"
}

// Schedule returns the configured cron expression.
func (j *ScanJob) Schedule() string {
	return j.schedule
}

// Run executes one scan and records its result, failed runs included.
func (j *ScanJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled squeeze scan")

	result, err := j.runner.Run(ctx)
	if result != nil {
		j.mu.Lock()
		j.last = result
		j.mu.Unlock()
	}
	if err != nil {
		return fmt.Errorf("scan run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":    result.RunID,
		"universe":  result.UniverseSize,
		"survivors": result.Survivors,
	}).Info("Scheduled scan completed")

	return nil
}

// LastResult returns the most recent run outcome, nil before the first run.
func (j *ScanJob) LastResult() *pipeline.RunResult {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.last
}

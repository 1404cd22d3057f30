package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/squeeze/internal/collector"
	"github.com/wonny/squeeze/internal/contracts"
	"github.com/wonny/squeeze/pkg/config"
	"github.com/wonny/squeeze/pkg/logger"
)

// UniverseBuilder produces the symbol universe for one run.
type UniverseBuilder interface {
	Build(ctx context.Context) (*contracts.Universe, error)
}

// Collector pulls market data for every universe symbol.
type Collector interface {
	Collect(ctx context.Context, universe *contracts.Universe) ([]contracts.CandidateRecord, *collector.Stats, error)
}

// Screener applies the squeeze filters.
type Screener interface {
	Screen(ctx context.Context, records []contracts.CandidateRecord) ([]contracts.CandidateRecord, map[string]int)
}

// Ranker scores and orders the survivors.
type Ranker interface {
	Rank(records []contracts.CandidateRecord) []contracts.ScoredCandidate
}

// Notifier delivers the alert for the ranked candidates.
type Notifier interface {
	Notify(ctx context.Context, scored []contracts.ScoredCandidate, scanDate time.Time) error
}

// Runner coordinates the scan pipeline
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Runner struct {
	cfg       *config.Config
	logger    *logger.Logger
	universe  UniverseBuilder
	collector Collector
	screener  Screener
	ranker    Ranker
	notifier  Notifier
}

// RunResult holds the results of one complete scan run.
type RunResult struct {
	RunID           string
	StartedAt       time.Time
	Duration        time.Duration
	Success         bool
	Error           error
	CompletedStages []string
	UniverseSize    int
	Collected       int
	Skipped         map[string]string
	FilterCounts    map[string]int
	Survivors       int
	Top             []contracts.ScoredCandidate
}

// NewRunner creates a new pipeline runner.
func NewRunner(
	cfg *config.Config,
	log *logger.Logger,
	universe UniverseBuilder,
	collector Collector,
	screener Screener,
	ranker Ranker,
	notifier Notifier,
) *Runner {
	return &Runner{
		cfg:       cfg,
		logger:    log.WithField("module", "pipeline"),
		universe:  universe,
		collector: collector,
		screener:  screener,
		ranker:    ranker,
		notifier:  notifier,
	}
}

// Run executes universe → collect → screen → rank → notify under the
// configured wall-clock budget. A stage failure aborts the run; the
// returned RunResult records how far it got either way.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	startTime := time.Now()

	if r.cfg.Run.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Run.Timeout)
		defer cancel()
	}

	result := &RunResult{
		RunID:           GenerateRunID(),
		StartedAt:       startTime,
		Success:         false,
		CompletedStages: make([]string, 0),
	}
	defer func() {
		result.Duration = time.Since(startTime)
	}()

	r.logger.WithFields(map[string]interface{}{
		"run_id":  result.RunID,
		"date":    startTime.Format("2006-01-02"),
		"timeout": r.cfg.Run.Timeout.String(),
	}).Info("Starting scan run")

	// Universe
	universe, err := r.runUniverse(ctx)
	if err != nil {
		result.Error = fmt.Errorf("universe failed: %w", err)
		return result, result.Error
	}
	result.UniverseSize = len(universe.Symbols)
	result.CompletedStages = append(result.CompletedStages, "universe")

	// Collect
	records, stats, err := r.runCollect(ctx, universe)
	if err != nil {
		result.Error = fmt.Errorf("collect failed: %w", err)
		return result, result.Error
	}
	result.Collected = stats.Fetched
	result.Skipped = stats.Skipped
	result.CompletedStages = append(result.CompletedStages, "collect")

	// Screen
	passed, filterCounts := r.runScreen(ctx, records)
	result.Survivors = len(passed)
	result.FilterCounts = filterCounts
	result.CompletedStages = append(result.CompletedStages, "screen")

	// Rank
	scored := r.runRank(passed)
	result.Top = topCandidates(scored, r.cfg.Screen.TopN)
	result.CompletedStages = append(result.CompletedStages, "rank")

	// Notify
	if err := r.runNotify(ctx, scored, startTime); err != nil {
		result.Error = fmt.Errorf("notify failed: %w", err)
		return result, result.Error
	}
	result.CompletedStages = append(result.CompletedStages, "notify")

	result.Success = true

	r.logger.WithFields(map[string]interface{}{
		"run_id":    result.RunID,
		"universe":  result.UniverseSize,
		"collected": result.Collected,
		"survivors": result.Survivors,
		"duration":  time.Since(startTime).Seconds(),
	}).Info("Scan run completed successfully")

	return result, nil
}

// runUniverse builds the symbol universe. An empty universe is fatal:
// screening nothing and reporting "no candidates" would mask a broken
// upstream.
func (r *Runner) runUniverse(ctx context.Context) (*contracts.Universe, error) {
	r.logger.Info("Running universe stage")

	universe, err := r.universe.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("universe build: %w", err)
	}

	if len(universe.Symbols) == 0 {
		return nil, fmt.Errorf("universe is empty after exclusions")
	}

	r.logger.WithFields(map[string]interface{}{
		"symbols":  len(universe.Symbols),
		"excluded": len(universe.Excluded),
	}).Info("Universe stage completed")

	return universe, nil
}

// runCollect fetches market data for the universe. Per-symbol failures
// are recorded as skips, not errors; zero fetched records is a valid
// outcome that flows through to the no-candidates alert.
func (r *Runner) runCollect(ctx context.Context, universe *contracts.Universe) ([]contracts.CandidateRecord, *collector.Stats, error) {
	r.logger.Info("Running collect stage")

	records, stats, err := r.collector.Collect(ctx, universe)
	if err != nil {
		return nil, nil, fmt.Errorf("collect market data: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"requested": stats.Requested,
		"fetched":   stats.Fetched,
		"skipped":   len(stats.Skipped),
	}).Info("Collect stage completed")

	return records, stats, nil
}

func (r *Runner) runScreen(ctx context.Context, records []contracts.CandidateRecord) ([]contracts.CandidateRecord, map[string]int) {
	r.logger.Info("Running screen stage")

	passed, filterCounts := r.screener.Screen(ctx, records)

	r.logger.WithFields(map[string]interface{}{
		"input":  len(records),
		"passed": len(passed),
	}).Info("Screen stage completed")

	return passed, filterCounts
}

func (r *Runner) runRank(passed []contracts.CandidateRecord) []contracts.ScoredCandidate {
	r.logger.Info("Running rank stage")

	scored := r.ranker.Rank(passed)

	r.logger.WithField("ranked", len(scored)).Info("Rank stage completed")

	return scored
}

func (r *Runner) runNotify(ctx context.Context, scored []contracts.ScoredCandidate, scanDate time.Time) error {
	r.logger.Info("Running notify stage")

	if err := r.notifier.Notify(ctx, scored, scanDate); err != nil {
		return fmt.Errorf("deliver alert: %w", err)
	}

	r.logger.Info("Notify stage completed")
	return nil
}

// topCandidates returns the reported slice of the ranked list.
func topCandidates(scored []contracts.ScoredCandidate, topN int) []contracts.ScoredCandidate {
	if topN > 0 && len(scored) > topN {
		return scored[:topN]
	}
	return scored
}

// GenerateRunID generates a unique run ID.
func GenerateRunID() string {
	return fmt.Sprintf("run_%s", time.Now().Format("20060102_150405"))
}

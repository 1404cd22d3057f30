package screener

import (
	"context"

	"github.com/wonny/squeeze/internal/contracts"
	"github.com/wonny/squeeze/pkg/config"
	"github.com/wonny/squeeze/pkg/logger"
)

// Filter rejection reasons. An empty string means the record passed.
const (
	reasonMarketCap   = "market_cap"
	reasonShortInt    = "short_interest"
	reasonDaysToCover = "days_to_cover"
	reasonFloat       = "float"
	reasonVolumeSpike = "volume_spike"
)

// Screener applies the hard threshold filters
// ⭐ SSOT: 스퀴즈 필터링 로직은 여기서만
//
// Records missing a field needed by a filter are excluded outright; a
// missing value never counts as passing.
type Screener struct {
	config config.ScreenConfig
	logger *logger.Logger
}

// NewScreener creates a new screener.
func NewScreener(cfg config.ScreenConfig, log *logger.Logger) *Screener {
	return &Screener{
		config: cfg,
		logger: log.WithField("module", "screener"),
	}
}

// Screen filters candidate records, preserving input order. It returns
// the survivors and a per-reason rejection count.
func (s *Screener) Screen(ctx context.Context, records []contracts.CandidateRecord) ([]contracts.CandidateRecord, map[string]int) {
	passed := make([]contracts.CandidateRecord, 0, len(records))
	filtered := make(map[string]int)

	for _, record := range records {
		reason := s.checkFilters(record)
		if reason == "" {
			passed = append(passed, record)
			continue
		}
		filtered[reason]++
		s.logger.WithFields(map[string]interface{}{
			"symbol": record.Symbol,
			"filter": reason,
		}).Debug("Candidate filtered out")
	}

	s.logger.WithFields(map[string]interface{}{
		"total_input":  len(records),
		"passed":       len(passed),
		"filtered_out": len(records) - len(passed),
		"filters":      filtered,
	}).Info("Screening completed")

	return passed, filtered
}

// checkFilters checks the thresholds in their fixed order and returns
// the name of the first failing filter, or "" when all pass. A missing
// field fails the filter that needs it.
func (s *Screener) checkFilters(record contracts.CandidateRecord) string {
	// 1. Market cap band
	if record.MarketCap == nil ||
		*record.MarketCap < s.config.MinMarketCap ||
		*record.MarketCap > s.config.MaxMarketCap {
		return reasonMarketCap
	}

	// 2. Short interest floor
	if record.ShortInterestPct == nil || *record.ShortInterestPct < s.config.MinShortInterest {
		return reasonShortInt
	}

	// 3. Days-to-cover floor
	if record.DaysToCover == nil || *record.DaysToCover < s.config.MinDaysToCover {
		return reasonDaysToCover
	}

	// 4. Float ceiling
	if record.FloatShares == nil || *record.FloatShares > s.config.MaxFloatShares {
		return reasonFloat
	}

	// 5. Volume spike floor
	spike, ok := record.VolumeSpike()
	if !ok || spike < s.config.MinVolumeSpike {
		return reasonVolumeSpike
	}

	return "" // 통과
}

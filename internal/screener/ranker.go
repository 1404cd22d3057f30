package screener

import (
	"sort"

	"github.com/wonny/squeeze/internal/contracts"
	"github.com/wonny/squeeze/pkg/config"
	"github.com/wonny/squeeze/pkg/logger"
)

// Ranker computes weighted squeeze scores and orders the survivors
// ⭐ SSOT: 스퀴즈 점수/랭킹 로직은 여기서만
//
// Sub-scores are min-max normalized within the survivor pool, so a
// score only means "relative to today's candidates". The float
// sub-score is inverted: a smaller float squeezes harder.
type Ranker struct {
	weights config.WeightsConfig
	logger  *logger.Logger
}

// NewRanker creates a new ranker.
func NewRanker(weights config.WeightsConfig, log *logger.Logger) *Ranker {
	return &Ranker{
		weights: weights,
		logger:  log.WithField("module", "ranker"),
	}
}

// Rank scores and sorts filter survivors. Input records must carry
// every screening field; the filter stage guarantees that. Ordering is
// composite score descending, ties broken by symbol ascending.
func (r *Ranker) Rank(records []contracts.CandidateRecord) []contracts.ScoredCandidate {
	scored := make([]contracts.ScoredCandidate, 0, len(records))
	if len(records) == 0 {
		return scored
	}

	si := make([]float64, len(records))
	dtc := make([]float64, len(records))
	spike := make([]float64, len(records))
	flt := make([]float64, len(records))
	for i, record := range records {
		si[i] = *record.ShortInterestPct
		dtc[i] = *record.DaysToCover
		spike[i], _ = record.VolumeSpike()
		flt[i] = float64(*record.FloatShares)
	}

	siMin, siMax := minMax(si)
	dtcMin, dtcMax := minMax(dtc)
	spikeMin, spikeMax := minMax(spike)
	fltMin, fltMax := minMax(flt)

	for i, record := range records {
		detail := contracts.ScoreDetail{
			ShortInterest: normalize(si[i], siMin, siMax),
			DaysToCover:   normalize(dtc[i], dtcMin, dtcMax),
			VolumeSpike:   normalize(spike[i], spikeMin, spikeMax),
			Float:         100 - normalize(flt[i], fltMin, fltMax), // inverted
		}

		scored = append(scored, contracts.ScoredCandidate{
			Candidate:      record,
			CompositeScore: r.compositeScore(detail),
			Scores:         detail,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].CompositeScore != scored[j].CompositeScore {
			return scored[i].CompositeScore > scored[j].CompositeScore
		}
		return scored[i].Candidate.Symbol < scored[j].Candidate.Symbol
	})

	for i := range scored {
		scored[i].Rank = i + 1
	}

	r.logger.WithFields(map[string]interface{}{
		"candidates": len(scored),
		"top_symbol": scored[0].Candidate.Symbol,
		"top_score":  scored[0].CompositeScore,
	}).Info("Ranking completed")

	return scored
}

// compositeScore is the weighted sum of the sub-scores. Weights sum to
// 1 (validated at startup), keeping the result in [0,100].
func (r *Ranker) compositeScore(detail contracts.ScoreDetail) float64 {
	return r.weights.ShortInterest*detail.ShortInterest +
		r.weights.DaysToCover*detail.DaysToCover +
		r.weights.VolumeSpike*detail.VolumeSpike +
		r.weights.Float*detail.Float
}

// normalize min-max scales value into [0,100] against the pool range.
// No variance in the pool means no signal either way: midpoint.
func normalize(value, min, max float64) float64 {
	if max == min {
		return 50
	}
	return (value - min) / (max - min) * 100
}

func minMax(values []float64) (float64, float64) {
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

package screener

import (
	"math"
	"reflect"
	"testing"

	"github.com/wonny/squeeze/internal/contracts"
	"github.com/wonny/squeeze/pkg/config"
)

func defaultWeights() config.WeightsConfig {
	return config.WeightsConfig{
		ShortInterest: 0.30,
		DaysToCover:   0.25,
		VolumeSpike:   0.25,
		Float:         0.20,
	}
}

func rankRecord(symbol string, si, dtc float64, floatShares, avgVolume, latestVolume int64) contracts.CandidateRecord {
	return contracts.CandidateRecord{
		Symbol:           symbol,
		Name:             symbol + " Corp",
		Price:            contracts.Float64Ptr(10.0),
		MarketCap:        contracts.Int64Ptr(1_000_000_000),
		FloatShares:      contracts.Int64Ptr(floatShares),
		ShortInterestPct: contracts.Float64Ptr(si),
		DaysToCover:      contracts.Float64Ptr(dtc),
		AverageVolume20d: contracts.Int64Ptr(avgVolume),
		LatestVolume:     contracts.Int64Ptr(latestVolume),
	}
}

func TestRankEmpty(t *testing.T) {
	r := NewRanker(defaultWeights(), testLogger())

	scored := r.Rank(nil)
	if len(scored) != 0 {
		t.Errorf("Rank(nil) = %v, want empty", scored)
	}
}

func TestRankSingleCandidate(t *testing.T) {
	r := NewRanker(defaultWeights(), testLogger())

	scored := r.Rank([]contracts.CandidateRecord{
		rankRecord("GME", 0.25, 6.0, 30_000_000, 10_000_000, 30_000_000),
	})

	if len(scored) != 1 {
		t.Fatalf("Rank() got %d results, want 1", len(scored))
	}

	// Alone in the pool there is no relative signal: midpoint everywhere
	s := scored[0]
	if s.CompositeScore != 50 {
		t.Errorf("CompositeScore = %v, want 50", s.CompositeScore)
	}
	for name, sub := range map[string]float64{
		"short_interest": s.Scores.ShortInterest,
		"days_to_cover":  s.Scores.DaysToCover,
		"volume_spike":   s.Scores.VolumeSpike,
		"float":          s.Scores.Float,
	} {
		if sub != 50 {
			t.Errorf("%s sub-score = %v, want 50", name, sub)
		}
	}
	if s.Rank != 1 {
		t.Errorf("Rank = %d, want 1", s.Rank)
	}
}

func TestRankOrdering(t *testing.T) {
	r := NewRanker(defaultWeights(), testLogger())

	records := []contracts.CandidateRecord{
		// weak: lowest on every metric, largest float
		rankRecord("WEAK", 0.20, 5.0, 50_000_000, 10_000_000, 20_000_000),
		// strong: highest on every metric, smallest float
		rankRecord("STRN", 0.50, 10.0, 10_000_000, 10_000_000, 50_000_000),
		// middle of the pool
		rankRecord("MIDL", 0.30, 7.0, 30_000_000, 10_000_000, 30_000_000),
	}

	scored := r.Rank(records)
	if len(scored) != 3 {
		t.Fatalf("Rank() got %d results, want 3", len(scored))
	}

	wantOrder := []string{"STRN", "MIDL", "WEAK"}
	for i, want := range wantOrder {
		if scored[i].Candidate.Symbol != want {
			t.Errorf("scored[%d] = %s, want %s", i, scored[i].Candidate.Symbol, want)
		}
		if scored[i].Rank != i+1 {
			t.Errorf("scored[%d].Rank = %d, want %d", i, scored[i].Rank, i+1)
		}
	}

	// Extremes of the pool pin the scale
	if scored[0].CompositeScore != 100 {
		t.Errorf("Top composite = %v, want 100", scored[0].CompositeScore)
	}
	if scored[2].CompositeScore != 0 {
		t.Errorf("Bottom composite = %v, want 0", scored[2].CompositeScore)
	}

	weights := defaultWeights()
	for _, s := range scored {
		if s.CompositeScore < 0 || s.CompositeScore > 100 {
			t.Errorf("%s composite %v outside [0,100]", s.Candidate.Symbol, s.CompositeScore)
		}

		weighted := weights.ShortInterest*s.Scores.ShortInterest +
			weights.DaysToCover*s.Scores.DaysToCover +
			weights.VolumeSpike*s.Scores.VolumeSpike +
			weights.Float*s.Scores.Float
		if math.Abs(s.CompositeScore-weighted) > 1e-9 {
			t.Errorf("%s composite %v != weighted sum %v", s.Candidate.Symbol, s.CompositeScore, weighted)
		}
	}
}

func TestRankTieBreakBySymbol(t *testing.T) {
	r := NewRanker(defaultWeights(), testLogger())

	// Identical metrics tie on score; symbols break the tie ascending
	records := []contracts.CandidateRecord{
		rankRecord("ZZZ", 0.25, 6.0, 30_000_000, 10_000_000, 30_000_000),
		rankRecord("AAA", 0.25, 6.0, 30_000_000, 10_000_000, 30_000_000),
	}

	scored := r.Rank(records)

	if scored[0].Candidate.Symbol != "AAA" || scored[1].Candidate.Symbol != "ZZZ" {
		t.Errorf("Tie order = %s, %s, want AAA, ZZZ",
			scored[0].Candidate.Symbol, scored[1].Candidate.Symbol)
	}
	if scored[0].Rank != 1 || scored[1].Rank != 2 {
		t.Errorf("Ranks = %d, %d, want 1, 2", scored[0].Rank, scored[1].Rank)
	}
}

func TestRankFloatInverted(t *testing.T) {
	r := NewRanker(defaultWeights(), testLogger())

	// Only the float differs: the smaller float must score higher
	records := []contracts.CandidateRecord{
		rankRecord("BIGF", 0.25, 6.0, 45_000_000, 10_000_000, 30_000_000),
		rankRecord("SMLF", 0.25, 6.0, 15_000_000, 10_000_000, 30_000_000),
	}

	scored := r.Rank(records)

	if scored[0].Candidate.Symbol != "SMLF" {
		t.Errorf("Top candidate = %s, want SMLF (smaller float)", scored[0].Candidate.Symbol)
	}
	if scored[0].Scores.Float != 100 || scored[1].Scores.Float != 0 {
		t.Errorf("Float sub-scores = %v, %v, want 100, 0",
			scored[0].Scores.Float, scored[1].Scores.Float)
	}
}

func TestRankIdempotent(t *testing.T) {
	r := NewRanker(defaultWeights(), testLogger())

	records := []contracts.CandidateRecord{
		rankRecord("AAA", 0.22, 5.5, 40_000_000, 10_000_000, 25_000_000),
		rankRecord("BBB", 0.35, 8.0, 20_000_000, 10_000_000, 40_000_000),
		rankRecord("CCC", 0.28, 6.5, 35_000_000, 10_000_000, 30_000_000),
	}

	first := r.Rank(records)
	second := r.Rank(records)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Rank() not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name            string
		value, min, max float64
		want            float64
	}{
		{"no variance", 7, 7, 7, 50},
		{"at minimum", 10, 10, 20, 0},
		{"at maximum", 20, 10, 20, 100},
		{"midpoint", 15, 10, 20, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalize(tt.value, tt.min, tt.max); got != tt.want {
				t.Errorf("normalize(%v, %v, %v) = %v, want %v", tt.value, tt.min, tt.max, got, tt.want)
			}
		})
	}
}

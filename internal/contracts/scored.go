package contracts

// ScoredCandidate wraps a filter survivor with its ranking result.
// ⭐ SSOT: 랭킹 → 알림 단계 전달 타입
type ScoredCandidate struct {
	Candidate      CandidateRecord `json:"candidate"`
	Rank           int             `json:"rank"`            // 1-based after sorting
	CompositeScore float64         `json:"composite_score"` // 0-100
	Scores         ScoreDetail     `json:"scores"`
}

// ScoreDetail contains the four normalized sub-scores, each in [0,100].
type ScoreDetail struct {
	ShortInterest float64 `json:"short_interest"`
	DaysToCover   float64 `json:"days_to_cover"`
	VolumeSpike   float64 `json:"volume_spike"`
	Float         float64 `json:"float"` // inverted: smaller float scores higher
}

// IsTopRanked checks if the candidate is in the top N ranks.
func (s *ScoredCandidate) IsTopRanked(n int) bool {
	return s.Rank <= n && s.Rank > 0
}

// Symbol is a convenience accessor for the wrapped record's symbol.
func (s *ScoredCandidate) Symbol() string {
	return s.Candidate.Symbol
}

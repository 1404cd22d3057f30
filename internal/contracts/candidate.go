package contracts

// CandidateRecord is the normalized per-symbol snapshot produced by the
// collector and consumed by the filter and ranking stages.
// ⭐ SSOT: 수집 → 필터/랭킹 단계 전달 타입
//
// Screening fields are pointers: nil means the provider had no value for
// this run. Absent is never substituted with zero; downstream filters
// treat nil as an automatic exclusion.
type CandidateRecord struct {
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name,omitempty"`
	Price            *float64 `json:"price,omitempty"`
	MarketCap        *int64   `json:"market_cap,omitempty"`
	FloatShares      *int64   `json:"float_shares,omitempty"`
	ShortInterestPct *float64 `json:"short_interest_pct,omitempty"` // ratio of float, 0.24 = 24%
	DaysToCover      *float64 `json:"days_to_cover,omitempty"`
	AverageVolume20d *int64   `json:"average_volume_20d,omitempty"`
	LatestVolume     *int64   `json:"latest_volume,omitempty"`
}

// VolumeSpike returns latestVolume / averageVolume20d. The second return
// is false when either side is absent or the average is zero.
func (c *CandidateRecord) VolumeSpike() (float64, bool) {
	if c.LatestVolume == nil || c.AverageVolume20d == nil || *c.AverageVolume20d <= 0 {
		return 0, false
	}
	return float64(*c.LatestVolume) / float64(*c.AverageVolume20d), true
}

// MissingFields lists the screening fields the providers could not fill.
func (c *CandidateRecord) MissingFields() []string {
	var missing []string
	if c.MarketCap == nil {
		missing = append(missing, "market_cap")
	}
	if c.ShortInterestPct == nil {
		missing = append(missing, "short_interest_pct")
	}
	if c.DaysToCover == nil {
		missing = append(missing, "days_to_cover")
	}
	if c.FloatShares == nil {
		missing = append(missing, "float_shares")
	}
	if c.AverageVolume20d == nil {
		missing = append(missing, "average_volume_20d")
	}
	if c.LatestVolume == nil {
		missing = append(missing, "latest_volume")
	}
	return missing
}

// Complete reports whether every screening field is populated.
func (c *CandidateRecord) Complete() bool {
	return len(c.MissingFields()) == 0
}

// Float64Ptr returns a pointer to v. Convenience for building records.
func Float64Ptr(v float64) *float64 { return &v }

// Int64Ptr returns a pointer to v. Convenience for building records.
func Int64Ptr(v int64) *int64 { return &v }

package contracts

// Quote is the normalized quote-API snapshot for one symbol.
// Pointer fields are nil when the provider omitted the value.
type Quote struct {
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name,omitempty"`
	QuoteType    string   `json:"quote_type,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	MarketCap    *int64   `json:"market_cap,omitempty"`
	LatestVolume *int64   `json:"latest_volume,omitempty"`
	AvgVolume3M  *int64   `json:"avg_volume_3m,omitempty"` // fallback when volume history is unavailable
}

// IsEquity reports whether the quote describes a common stock.
func (q *Quote) IsEquity() bool {
	return q.QuoteType == "EQUITY"
}

// ShortStats is the normalized key-statistics snapshot for one symbol
// (float, short interest, days to cover).
type ShortStats struct {
	Symbol           string   `json:"symbol"`
	FloatShares      *int64   `json:"float_shares,omitempty"`
	ShortInterestPct *float64 `json:"short_interest_pct,omitempty"`
	DaysToCover      *float64 `json:"days_to_cover,omitempty"`
	SharesShort      *int64   `json:"shares_short,omitempty"`
}

// ShortEntry is one row of the HighShortInterest.com table, used to fill
// short-interest fields the primary provider omitted.
type ShortEntry struct {
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name,omitempty"`
	ShortInterestPct  *float64 `json:"short_interest_pct,omitempty"`
	FloatShares       *int64   `json:"float_shares,omitempty"`
	OutstandingShares *int64   `json:"outstanding_shares,omitempty"`
}

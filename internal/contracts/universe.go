package contracts

import "time"

// Universe represents the symbols a run will screen
// ⭐ SSOT: 유니버스 → 수집 단계 전달
type Universe struct {
	Date     time.Time         `json:"date"`
	Symbols  []string          `json:"symbols"`
	Excluded map[string]string `json:"excluded"`          // symbol: reason
	Sources  []string          `json:"sources,omitempty"` // screener ids or "config"
}

// Contains checks if a symbol is in the universe
func (u *Universe) Contains(symbol string) bool {
	for _, s := range u.Symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// IsExcluded checks if a symbol is excluded with reason
func (u *Universe) IsExcluded(symbol string) (bool, string) {
	reason, exists := u.Excluded[symbol]
	return exists, reason
}

// Count returns the number of screenable symbols
func (u *Universe) Count() int {
	return len(u.Symbols)
}

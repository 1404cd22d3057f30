package universe

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/wonny/squeeze/internal/contracts"
	"github.com/wonny/squeeze/internal/external/yahoo"
	"github.com/wonny/squeeze/pkg/config"
	"github.com/wonny/squeeze/pkg/logger"
)

// screenerCount is how many symbols to request from each predefined
// screener. The union is capped by SQUEEZE_MAX_SYMBOLS afterwards.
const screenerCount = 100

// SymbolSource lists symbols for one predefined screener.
type SymbolSource interface {
	ScreenerSymbols(ctx context.Context, screenerID string, count int) ([]string, error)
}

// Builder constructs the run's symbol universe
// ⭐ SSOT: 유니버스 생성은 여기서만
//
// A configured symbol list takes precedence; otherwise the union of the
// predefined screeners is used. Either way the result is deduplicated,
// exclusion-checked, sorted, and capped.
type Builder struct {
	cfg    *config.Config
	logger *logger.Logger
	source SymbolSource
}

// NewBuilder creates a new universe Builder.
func NewBuilder(cfg *config.Config, log *logger.Logger, source SymbolSource) *Builder {
	return &Builder{
		cfg:    cfg,
		logger: log.WithField("module", "universe"),
		source: source,
	}
}

// Build resolves the universe for this run.
func (b *Builder) Build(ctx context.Context) (*contracts.Universe, error) {
	universe := &contracts.Universe{
		Date:     time.Now(),
		Symbols:  make([]string, 0),
		Excluded: make(map[string]string),
	}

	var candidates []string
	if len(b.cfg.Run.Symbols) > 0 {
		candidates = b.cfg.Run.Symbols
		universe.Sources = []string{"config"}
		b.logger.WithField("symbols", len(candidates)).Info("Using configured symbol list")
	} else {
		for _, id := range yahoo.PredefinedScreeners {
			symbols, err := b.source.ScreenerSymbols(ctx, id, screenerCount)
			if err != nil {
				// One bad screener should not sink the run
				b.logger.WithError(err).WithField("screener", id).Warn("Screener failed, skipping")
				continue
			}
			candidates = append(candidates, symbols...)
			universe.Sources = append(universe.Sources, id)
		}
	}

	seen := make(map[string]bool)
	for _, symbol := range candidates {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true

		if reason := checkExclusion(symbol); reason != "" {
			universe.Excluded[symbol] = reason
			continue
		}
		universe.Symbols = append(universe.Symbols, symbol)
	}

	sort.Strings(universe.Symbols)

	if max := b.cfg.Run.MaxSymbols; max > 0 && len(universe.Symbols) > max {
		b.logger.WithFields(map[string]interface{}{
			"total": len(universe.Symbols),
			"cap":   max,
		}).Info("Universe capped")
		universe.Symbols = universe.Symbols[:max]
	}

	b.logger.WithFields(map[string]interface{}{
		"symbols":  len(universe.Symbols),
		"excluded": len(universe.Excluded),
		"sources":  len(universe.Sources),
	}).Info("Universe built")

	return universe, nil
}

// checkExclusion returns a non-empty reason for symbols that are not
// plain US equities.
func checkExclusion(symbol string) string {
	// 우선순위 순서로 체크

	// 1. 지수 심볼 (^GSPC 등)
	if strings.Contains(symbol, "^") {
		return "index symbol"
	}

	// 2. 통화/선물 페어 (EURUSD=X 등)
	if strings.Contains(symbol, "=") {
		return "currency or futures pair"
	}

	// 3. 비정상적으로 긴 심볼
	if len(symbol) > 10 {
		return "malformed symbol"
	}

	return "" // 통과
}

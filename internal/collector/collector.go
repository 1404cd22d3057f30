package collector

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/wonny/squeeze/internal/contracts"
	"github.com/wonny/squeeze/internal/external/yahoo"
	"github.com/wonny/squeeze/pkg/config"
	"github.com/wonny/squeeze/pkg/logger"
)

// chartRange covers enough closed sessions for a 20-day average.
const chartRange = "3mo"

// Skip reasons recorded per symbol.
const (
	skipNoQuote     = "no quote data"
	skipNotEquity   = "not an equity"
	skipBudget      = "call budget exhausted"
	skipTransient   = "transient fetch failure"
	skipPermanent   = "permanent fetch failure"
	skipFetchFailed = "fetch failed"
)

// QuoteSource fetches batch quotes.
type QuoteSource interface {
	Quotes(ctx context.Context, symbols []string) (map[string]contracts.Quote, error)
}

// StatsSource fetches per-symbol short statistics and volume history.
type StatsSource interface {
	KeyStats(ctx context.Context, symbol string) (contracts.ShortStats, error)
	DailyVolumes(ctx context.Context, symbol, rng string) ([]int64, error)
}

// ShortTableSource serves the scraped short-interest fallback table.
type ShortTableSource interface {
	ShortTable(ctx context.Context) (map[string]contracts.ShortEntry, error)
}

// Collector merges quotes, key statistics, volume history, and the
// short-interest fallback table into candidate records
// ⭐ SSOT: 데이터 수집 오케스트레이션은 이 패키지에서만
//
// Per-symbol failures skip that symbol; missing fields stay nil. The
// result is sorted by symbol so downstream stages see a deterministic
// order regardless of fetch concurrency.
type Collector struct {
	cfg    *config.Config
	logger *logger.Logger
	quotes QuoteSource
	stats  StatsSource
	shorts ShortTableSource // nil when the fallback is disabled
}

// NewCollector creates a new Collector instance.
func NewCollector(cfg *config.Config, log *logger.Logger, quotes QuoteSource, stats StatsSource, shorts ShortTableSource) *Collector {
	return &Collector{
		cfg:    cfg,
		logger: log.WithField("module", "collector"),
		quotes: quotes,
		stats:  stats,
		shorts: shorts,
	}
}

// Stats summarizes one collection pass.
type Stats struct {
	Requested int
	Fetched   int
	Skipped   map[string]string // symbol → reason
}

// fetchResult carries one symbol's outcome out of the worker pool.
type fetchResult struct {
	symbol string
	record *contracts.CandidateRecord
	skip   string
	err    error // fatal: aborts the whole collection
}

// Collect fetches candidate records for every symbol in the universe.
func (c *Collector) Collect(ctx context.Context, universe *contracts.Universe) ([]contracts.CandidateRecord, *Stats, error) {
	stats := &Stats{
		Requested: len(universe.Symbols),
		Skipped:   make(map[string]string),
	}
	if len(universe.Symbols) == 0 {
		return nil, stats, nil
	}

	c.logger.WithFields(map[string]interface{}{
		"symbols": len(universe.Symbols),
		"workers": c.cfg.Run.FetchWorkers,
	}).Info("Starting collection")

	shortTable := c.shortTable(ctx)

	quotes, err := c.fetchQuotes(ctx, universe.Symbols)
	if err != nil {
		return nil, stats, err
	}

	// Only listed equities move on to the per-symbol stage
	eligible := make([]string, 0, len(universe.Symbols))
	for _, symbol := range universe.Symbols {
		quote, ok := quotes[symbol]
		if !ok {
			stats.Skipped[symbol] = skipNoQuote
			continue
		}
		if !quote.IsEquity() {
			stats.Skipped[symbol] = skipNotEquity
			continue
		}
		eligible = append(eligible, symbol)
	}

	var records []contracts.CandidateRecord
	if c.cfg.Run.FetchWorkers > 1 {
		records, err = c.collectParallel(ctx, eligible, quotes, shortTable, stats)
	} else {
		records, err = c.collectSequential(ctx, eligible, quotes, shortTable, stats)
	}
	if err != nil {
		return nil, stats, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Symbol < records[j].Symbol
	})
	stats.Fetched = len(records)

	c.logger.WithFields(map[string]interface{}{
		"fetched": stats.Fetched,
		"skipped": len(stats.Skipped),
		"total":   stats.Requested,
	}).Info("Collection completed")

	return records, stats, nil
}

// shortTable fetches the fallback table once; a failure just disables
// the fallback for this run.
func (c *Collector) shortTable(ctx context.Context) map[string]contracts.ShortEntry {
	if c.shorts == nil {
		return nil
	}

	table, err := c.shorts.ShortTable(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("Short interest fallback unavailable")
		return nil
	}
	return table
}

// fetchQuotes pulls batch quotes for all symbols. A failed batch only
// loses that batch's symbols; context cancellation aborts.
func (c *Collector) fetchQuotes(ctx context.Context, symbols []string) (map[string]contracts.Quote, error) {
	quotes := make(map[string]contracts.Quote, len(symbols))

	batchSize := c.cfg.Run.BatchSize
	if batchSize <= 0 {
		batchSize = len(symbols)
	}

	for start := 0; start < len(symbols); start += batchSize {
		end := start + batchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		batch := symbols[start:end]

		fetched, err := c.quotes.Quotes(ctx, batch)
		switch {
		case err == nil:
			for symbol, quote := range fetched {
				quotes[symbol] = quote
			}
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(err, yahoo.ErrBudgetExhausted):
			c.logger.Warn("Call budget exhausted during quote fetch")
			return quotes, nil
		default:
			c.logger.WithError(err).WithField("batch_size", len(batch)).Warn("Quote batch failed, skipping")
		}

		if end < len(symbols) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.Run.BatchDelay):
			}
		}
	}

	return quotes, nil
}

// collectSequential processes symbols one at a time in batches with an
// inter-batch delay, the throttle-friendly default.
func (c *Collector) collectSequential(ctx context.Context, symbols []string, quotes map[string]contracts.Quote, shortTable map[string]contracts.ShortEntry, stats *Stats) ([]contracts.CandidateRecord, error) {
	records := make([]contracts.CandidateRecord, 0, len(symbols))

	batchSize := c.cfg.Run.BatchSize
	if batchSize <= 0 {
		batchSize = len(symbols)
	}

	for start := 0; start < len(symbols); start += batchSize {
		end := start + batchSize
		if end > len(symbols) {
			end = len(symbols)
		}

		for _, symbol := range symbols[start:end] {
			result := c.fetchSymbol(ctx, symbol, quotes[symbol], shortTable)
			if result.err != nil {
				return nil, result.err
			}
			if result.skip != "" {
				stats.Skipped[symbol] = result.skip
				continue
			}
			records = append(records, *result.record)
		}

		if end < len(symbols) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.Run.BatchDelay):
			}
		}
	}

	return records, nil
}

// collectParallel fans symbols out to a bounded worker pool. The rate
// limiter inside the source still paces the actual calls.
func (c *Collector) collectParallel(ctx context.Context, symbols []string, quotes map[string]contracts.Quote, shortTable map[string]contracts.ShortEntry, stats *Stats) ([]contracts.CandidateRecord, error) {
	symbolCh := make(chan string, len(symbols))
	resultCh := make(chan fetchResult, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < c.cfg.Run.FetchWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for symbol := range symbolCh {
				select {
				case <-ctx.Done():
					resultCh <- fetchResult{symbol: symbol, err: ctx.Err()}
					return
				default:
				}

				result := c.fetchSymbol(ctx, symbol, quotes[symbol], shortTable)
				resultCh <- result

				c.logger.WithFields(map[string]interface{}{
					"worker": workerID,
					"symbol": symbol,
				}).Debug("Symbol processed")
			}
		}(i)
	}

	for _, symbol := range symbols {
		symbolCh <- symbol
	}
	close(symbolCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	records := make([]contracts.CandidateRecord, 0, len(symbols))
	var fatal error
	for result := range resultCh {
		switch {
		case result.err != nil:
			fatal = result.err
		case result.skip != "":
			stats.Skipped[result.symbol] = result.skip
		default:
			records = append(records, *result.record)
		}
	}

	if fatal != nil {
		return nil, fatal
	}
	return records, nil
}

// fetchSymbol assembles one candidate record from the per-symbol
// sources, merging in the fallback table for fields still absent.
func (c *Collector) fetchSymbol(ctx context.Context, symbol string, quote contracts.Quote, shortTable map[string]contracts.ShortEntry) fetchResult {
	short, err := c.stats.KeyStats(ctx, symbol)
	if err != nil {
		skip, fatal := classifyFetchError(ctx, err)
		if fatal != nil {
			return fetchResult{symbol: symbol, err: fatal}
		}
		c.logger.WithError(err).WithField("symbol", symbol).Warn("Key statistics fetch failed, skipping")
		return fetchResult{symbol: symbol, skip: skip}
	}

	// Volume history is an enhancement: failures fall back to the
	// quote's trailing average instead of skipping the symbol
	volumes, err := c.stats.DailyVolumes(ctx, symbol, chartRange)
	if err != nil {
		if _, fatal := classifyFetchError(ctx, err); fatal != nil {
			return fetchResult{symbol: symbol, err: fatal}
		}
		c.logger.WithError(err).WithField("symbol", symbol).Debug("Volume history unavailable")
		volumes = nil
	}

	record := buildRecord(symbol, quote, short, volumes, shortTable)
	return fetchResult{symbol: symbol, record: &record}
}

// classifyFetchError splits per-symbol skips from run-fatal errors.
func classifyFetchError(ctx context.Context, err error) (skip string, fatal error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if errors.Is(err, yahoo.ErrBudgetExhausted) {
		return skipBudget, nil
	}

	var apiErr *yahoo.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Transient() {
			return skipTransient, nil
		}
		return skipPermanent, nil
	}
	return skipFetchFailed, nil
}

// buildRecord merges the source snapshots into one candidate record.
// Absent fields stay nil; the filter stage decides what that means.
func buildRecord(symbol string, quote contracts.Quote, short contracts.ShortStats, volumes []int64, shortTable map[string]contracts.ShortEntry) contracts.CandidateRecord {
	record := contracts.CandidateRecord{
		Symbol:           symbol,
		Name:             quote.Name,
		Price:            quote.Price,
		MarketCap:        quote.MarketCap,
		LatestVolume:     quote.LatestVolume,
		FloatShares:      short.FloatShares,
		ShortInterestPct: short.ShortInterestPct,
		DaysToCover:      short.DaysToCover,
	}

	record.AverageVolume20d = averageVolume(volumes)
	if record.AverageVolume20d == nil {
		record.AverageVolume20d = quote.AvgVolume3M
	}

	// Fallback table fills only what the primary source left absent
	if entry, ok := shortTable[symbol]; ok {
		if record.ShortInterestPct == nil {
			record.ShortInterestPct = entry.ShortInterestPct
		}
		if record.FloatShares == nil {
			record.FloatShares = entry.FloatShares
		}
		if record.Name == "" {
			record.Name = entry.Name
		}
	}

	// Days to cover is derivable when the provider omits the ratio
	if record.DaysToCover == nil && short.SharesShort != nil && record.AverageVolume20d != nil && *record.AverageVolume20d > 0 {
		dtc := float64(*short.SharesShort) / float64(*record.AverageVolume20d)
		record.DaysToCover = &dtc
	}

	return record
}

// averageVolume computes the trailing 20-session average. The final bar
// is the current session and may be partial, so it is dropped. Fewer
// than 5 usable sessions means no meaningful average.
func averageVolume(volumes []int64) *int64 {
	if len(volumes) == 0 {
		return nil
	}
	closed := volumes[:len(volumes)-1]

	var usable []int64
	for i := len(closed) - 1; i >= 0 && len(usable) < 20; i-- {
		if closed[i] > 0 {
			usable = append(usable, closed[i])
		}
	}
	if len(usable) < 5 {
		return nil
	}

	var sum int64
	for _, v := range usable {
		sum += v
	}
	avg := sum / int64(len(usable))
	return &avg
}

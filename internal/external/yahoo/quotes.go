package yahoo

import (
	"context"
	"fmt"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"

	"github.com/wonny/squeeze/internal/contracts"
	"github.com/wonny/squeeze/pkg/logger"
)

// QuoteService fetches batch quotes through the piquette client.
// It shares the owning Client's rate limiter and call budget so batch
// quote calls count against the same per-run quota.
type QuoteService struct {
	client *Client
	logger *logger.Logger
}

// NewQuoteService creates a quote service bound to the client's budget.
func NewQuoteService(client *Client, log *logger.Logger) *QuoteService {
	return &QuoteService{
		client: client,
		logger: log.WithField("module", "yahoo_quotes"),
	}
}

// Quotes fetches real-time quotes for a batch of symbols. Symbols the
// provider does not know are simply absent from the result map.
func (s *QuoteService) Quotes(ctx context.Context, symbols []string) (map[string]contracts.Quote, error) {
	if len(symbols) == 0 {
		return map[string]contracts.Quote{}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// One batch call, one unit of budget
	if err := s.client.spendCall(); err != nil {
		return nil, err
	}
	if err := s.client.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	out := make(map[string]contracts.Quote, len(symbols))

	iter := equity.List(symbols)
	for iter.Next() {
		q := iter.Equity()
		if q == nil || q.Symbol == "" {
			continue
		}
		out[q.Symbol] = convertQuote(q)
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("batch quote fetch failed: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"requested": len(symbols),
		"returned":  len(out),
	}).Debug("Quote batch fetched")

	return out, nil
}

// convertQuote maps the provider struct onto the normalized contract.
// Zero values mean the provider had no data: no listed equity trades at
// a zero market cap or zero price, so zeros become nil.
func convertQuote(q *finance.Equity) contracts.Quote {
	cq := contracts.Quote{
		Symbol:    q.Symbol,
		Name:      q.ShortName,
		QuoteType: string(q.QuoteType),
	}

	if q.RegularMarketPrice > 0 {
		price := q.RegularMarketPrice
		cq.Price = &price
	}
	if q.MarketCap > 0 {
		mc := q.MarketCap
		cq.MarketCap = &mc
	}
	if q.RegularMarketVolume > 0 {
		vol := int64(q.RegularMarketVolume)
		cq.LatestVolume = &vol
	}
	if q.AverageDailyVolume3Month > 0 {
		avg := int64(q.AverageDailyVolume3Month)
		cq.AvgVolume3M = &avg
	}

	return cq
}

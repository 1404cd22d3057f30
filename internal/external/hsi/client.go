package hsi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/squeeze/internal/contracts"
	"github.com/wonny/squeeze/pkg/config"
	"github.com/wonny/squeeze/pkg/httputil"
	"github.com/wonny/squeeze/pkg/logger"
)

// tickerRe matches the symbols listed in the table (letters, digits,
// class suffixes like BRK.A).
var tickerRe = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)

// Client scrapes the HighShortInterest.com ticker table
// ⭐ SSOT: HighShortInterest 조회는 이 클라이언트에서만
//
// The table is one page covering the most-shorted US names, so the
// client fetches it at most once per run and answers lookups from the
// cached result. Entries only fill fields the primary source left
// absent.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string

	mu      sync.Mutex
	loaded  bool
	entries map[string]contracts.ShortEntry
}

// NewClient creates a new HighShortInterest client.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		httpClient: httputil.New(cfg, log),
		logger:     log.WithField("module", "hsi"),
		baseURL:    cfg.HSI.BaseURL,
	}
}

// ShortTable returns the scraped table keyed by symbol. The first call
// fetches the page; later calls reuse the cached result.
func (c *Client) ShortTable(ctx context.Context) (map[string]contracts.ShortEntry, error) {
	c.mu.Lock()
	if c.loaded {
		entries := c.entries
		c.mu.Unlock()
		return entries, nil
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch short interest table: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("short interest table returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	entries, err := c.parseShortTable(string(body))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.loaded = true
	c.entries = entries
	c.mu.Unlock()

	c.logger.WithField("entries", len(entries)).Debug("Short interest table fetched")
	return entries, nil
}

// parseShortTable extracts ticker rows from the page HTML.
// Column layout: Ticker | Company | Exchange | ShortInt | Float | Outstd | Industry
func (c *Client) parseShortTable(html string) (map[string]contracts.ShortEntry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	entries := make(map[string]contracts.ShortEntry)

	doc.Find("table.stocks tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 6 {
			return
		}

		symbol := strings.TrimSpace(cells.Eq(0).Text())
		if !tickerRe.MatchString(symbol) {
			return
		}

		entries[symbol] = contracts.ShortEntry{
			Symbol:            symbol,
			Name:              strings.TrimSpace(cells.Eq(1).Text()),
			ShortInterestPct:  parsePercent(cells.Eq(3).Text()),
			FloatShares:       parseShares(cells.Eq(4).Text()),
			OutstandingShares: parseShares(cells.Eq(5).Text()),
		}
	})

	if len(entries) == 0 {
		return nil, fmt.Errorf("no ticker rows found (page layout changed?)")
	}

	return entries, nil
}

// parsePercent converts "24.51%" to a 0.2451 ratio, nil when absent.
func parsePercent(s string) *float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	if s == "" || s == "-" || strings.EqualFold(s, "n/a") {
		return nil
	}

	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil
	}

	ratio := f / 100
	return &ratio
}

// parseShares converts "12.34M" / "1.2B" / "450K" share counts to a
// plain count, nil when absent.
func parseShares(s string) *int64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" || strings.EqualFold(s, "n/a") {
		return nil
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "B"):
		multiplier = 1e9
		s = strings.TrimSuffix(s, "B")
	case strings.HasSuffix(s, "M"):
		multiplier = 1e6
		s = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "K"):
		multiplier = 1e3
		s = strings.TrimSuffix(s, "K")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}

	n := int64(f * multiplier)
	return &n
}

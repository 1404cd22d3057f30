package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// PredefinedScreeners are the saved screener ids the default universe is
// built from. Together they cover the liquid small/mid-cap names where
// squeeze setups occur.
var PredefinedScreeners = []string{
	"most_actives",
	"small_cap_gainers",
	"undervalued_growth_stocks",
	"aggressive_small_caps",
	"growth_technology_stocks",
	"undervalued_large_caps",
}

type screenerResponse struct {
	Finance struct {
		Result []struct {
			ID     string `json:"id"`
			Quotes []struct {
				Symbol string `json:"symbol"`
			} `json:"quotes"`
		} `json:"result"`
		Error *apiErrorDetail `json:"error"`
	} `json:"finance"`
}

// ScreenerSymbols fetches the symbol list of one predefined screener.
func (c *Client) ScreenerSymbols(ctx context.Context, screenerID string, count int) ([]string, error) {
	params := url.Values{}
	params.Set("scrIds", screenerID)
	params.Set("count", strconv.Itoa(count))
	params.Set("formatted", "false")

	var resp screenerResponse
	if err := c.getJSON(ctx, "/v1/finance/screener/predefined/saved", params, &resp); err != nil {
		return nil, fmt.Errorf("screener %s: %w", screenerID, err)
	}

	if resp.Finance.Error != nil {
		return nil, fmt.Errorf("screener %s: %s", screenerID, resp.Finance.Error.Description)
	}

	if len(resp.Finance.Result) == 0 {
		return nil, fmt.Errorf("screener %s: empty result", screenerID)
	}

	symbols := make([]string, 0, len(resp.Finance.Result[0].Quotes))
	for _, q := range resp.Finance.Result[0].Quotes {
		if q.Symbol != "" {
			symbols = append(symbols, q.Symbol)
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"screener": screenerID,
		"symbols":  len(symbols),
	}).Debug("Screener list fetched")

	return symbols, nil
}

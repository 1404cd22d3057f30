package yahoo

import (
	"context"
	"fmt"
	"net/url"

	"github.com/wonny/squeeze/internal/contracts"
)

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			DefaultKeyStatistics struct {
				FloatShares         rawValue `json:"floatShares"`
				SharesOutstanding   rawValue `json:"sharesOutstanding"`
				SharesShort         rawValue `json:"sharesShort"`
				ShortRatio          rawValue `json:"shortRatio"`
				ShortPercentOfFloat rawValue `json:"shortPercentOfFloat"`
			} `json:"defaultKeyStatistics"`
		} `json:"result"`
		Error *apiErrorDetail `json:"error"`
	} `json:"quoteSummary"`
}

// KeyStats fetches float and short-interest statistics for one symbol
// from the quoteSummary defaultKeyStatistics module. Fields the provider
// omits come back nil; that is not an error.
func (c *Client) KeyStats(ctx context.Context, symbol string) (contracts.ShortStats, error) {
	params := url.Values{}
	params.Set("modules", "defaultKeyStatistics")

	path := fmt.Sprintf("/v10/finance/quoteSummary/%s", url.PathEscape(symbol))

	var resp quoteSummaryResponse
	if err := c.getJSON(ctx, path, params, &resp); err != nil {
		return contracts.ShortStats{}, err
	}

	if resp.QuoteSummary.Error != nil {
		return contracts.ShortStats{}, fmt.Errorf("key statistics for %s: %s", symbol, resp.QuoteSummary.Error.Description)
	}

	if len(resp.QuoteSummary.Result) == 0 {
		return contracts.ShortStats{}, fmt.Errorf("key statistics for %s: empty result", symbol)
	}

	stats := resp.QuoteSummary.Result[0].DefaultKeyStatistics

	return contracts.ShortStats{
		Symbol:           symbol,
		FloatShares:      stats.FloatShares.int64Ptr(),
		ShortInterestPct: stats.ShortPercentOfFloat.float64Ptr(),
		DaysToCover:      stats.ShortRatio.float64Ptr(),
		SharesShort:      stats.SharesShort.int64Ptr(),
	}, nil
}

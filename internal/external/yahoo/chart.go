package yahoo

import (
	"context"
	"fmt"
	"net/url"
)

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Volume []*int64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiErrorDetail `json:"error"`
	} `json:"chart"`
}

// DailyVolumes fetches daily bar volumes for a symbol over the given
// range (e.g. "3mo"), oldest first. Null bars (halts, holidays) are
// dropped. The final entry is the current session and may be partial.
func (c *Client) DailyVolumes(ctx context.Context, symbol string, rng string) ([]int64, error) {
	params := url.Values{}
	params.Set("range", rng)
	params.Set("interval", "1d")
	params.Set("includePrePost", "false")

	path := fmt.Sprintf("/v8/finance/chart/%s", url.PathEscape(symbol))

	var resp chartResponse
	if err := c.getJSON(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart for %s: %s", symbol, resp.Chart.Error.Description)
	}

	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart for %s: empty result", symbol)
	}

	raw := resp.Chart.Result[0].Indicators.Quote[0].Volume
	volumes := make([]int64, 0, len(raw))
	for _, v := range raw {
		if v != nil {
			volumes = append(volumes, *v)
		}
	}

	return volumes, nil
}

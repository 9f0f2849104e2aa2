package backends

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"omnisearch/internal/config"
)

// Finance fetches a quote for a ticker symbol from a Yahoo-chart-compatible
// endpoint. The query is treated as the symbol.
func Finance(ctx context.Context, query string, cfg config.BackendConfig) (string, error) {
	symbol := strings.ToUpper(strings.ReplaceAll(query, " ", ""))

	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", "1d")

	var data struct {
		Chart struct {
			Result []struct {
				Meta struct {
					RegularMarketPrice *float64 `json:"regularMarketPrice"`
					PreviousClose      *float64 `json:"previousClose"`
				} `json:"meta"`
			} `json:"result"`
		} `json:"chart"`
	}
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/") + "/" + url.PathEscape(symbol)
	if err := getJSON(ctx, endpoint, params, nil, &data); err != nil {
		return "", &TransportError{Backend: cfg.Name, Err: err}
	}

	if len(data.Chart.Result) > 0 {
		meta := data.Chart.Result[0].Meta
		if meta.RegularMarketPrice != nil && meta.PreviousClose != nil {
			price := *meta.RegularMarketPrice
			change := price - *meta.PreviousClose
			changePct := change / *meta.PreviousClose * 100
			return fmt.Sprintf("%s: $%.2f (%+.2f, %+.2f%%)", symbol, price, change, changePct), nil
		}
	}
	return fmt.Sprintf("No financial data found for %q", query), nil
}

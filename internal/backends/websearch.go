package backends

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"omnisearch/internal/config"
)

// WebSearch queries the DuckDuckGo instant-answer API. No API key required.
func WebSearch(ctx context.Context, query string, cfg config.BackendConfig) (string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	var data struct {
		Abstract      string `json:"Abstract"`
		RelatedTopics []struct {
			Text string `json:"Text"`
		} `json:"RelatedTopics"`
	}
	if err := getJSON(ctx, cfg.Endpoint, params, nil, &data); err != nil {
		return "", &TransportError{Backend: cfg.Name, Err: err}
	}

	var parts []string
	if data.Abstract != "" {
		parts = append(parts, "Summary: "+data.Abstract)
	}

	var related []string
	for _, topic := range data.RelatedTopics {
		if topic.Text == "" {
			continue
		}
		related = append(related, topic.Text)
		if len(related) == 3 {
			break
		}
	}
	if len(related) > 0 {
		parts = append(parts, fmt.Sprintf("Related: %s", strings.Join(related, "; ")))
	}

	if len(parts) == 0 {
		return "No specific instant answer found.", nil
	}
	return strings.Join(parts, "\n"), nil
}

package backends

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"omnisearch/internal/config"
)

// News queries a NewsAPI-compatible service. Requires an API key; the key
// check runs before any network traffic.
func News(ctx context.Context, query string, cfg config.BackendConfig) (string, error) {
	if !cfg.CredentialConfigured() {
		return "", &CredentialError{Backend: cfg.Name, EnvHint: "NEWS_API_KEY"}
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("apiKey", cfg.APIKey)
	params.Set("pageSize", fmt.Sprintf("%d", resultLimit(cfg, 5)))
	params.Set("sortBy", "publishedAt")

	var data struct {
		Articles []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/") + "/everything"
	if err := getJSON(ctx, endpoint, params, nil, &data); err != nil {
		return "", &TransportError{Backend: cfg.Name, Err: err}
	}

	var lines []string
	for _, article := range data.Articles {
		if len(lines) == 3 {
			break
		}
		source := article.Source.Name
		if source == "" {
			source = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("%s: %s - %s", source, article.Title, article.Description))
	}

	if len(lines) == 0 {
		return "No recent news found for this query.", nil
	}
	return strings.Join(lines, "\n"), nil
}

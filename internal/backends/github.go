package backends

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"omnisearch/internal/config"
)

// GitHub searches repositories by stars. The token is optional; without one
// the call runs against the anonymous rate limit.
func GitHub(ctx context.Context, query string, cfg config.BackendConfig) (string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "stars")
	params.Set("order", "desc")
	params.Set("per_page", fmt.Sprintf("%d", resultLimit(cfg, 5)))

	header := http.Header{}
	if cfg.CredentialConfigured() {
		header.Set("Authorization", "token "+cfg.APIKey)
	}

	var data struct {
		Items []struct {
			FullName    string `json:"full_name"`
			Description string `json:"description"`
			Stars       int    `json:"stargazers_count"`
		} `json:"items"`
	}
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/") + "/search/repositories"
	if err := getJSON(ctx, endpoint, params, header, &data); err != nil {
		return "", &TransportError{Backend: cfg.Name, Err: err}
	}

	var lines []string
	for _, repo := range data.Items {
		if len(lines) == 3 {
			break
		}
		description := repo.Description
		if description == "" {
			description = "No description"
		}
		lines = append(lines, fmt.Sprintf("%s (%d stars): %s", repo.FullName, repo.Stars, description))
	}

	if len(lines) == 0 {
		return "No repositories found for this query.", nil
	}
	return strings.Join(lines, "\n"), nil
}

package backends

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"omnisearch/internal/config"
)

// Arxiv searches the arXiv Atom API for preprints matching the query.
func Arxiv(ctx context.Context, query string, cfg config.BackendConfig) (string, error) {
	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprintf("%d", resultLimit(cfg, 5)))
	params.Set("sortBy", "relevance")
	params.Set("sortOrder", "descending")

	body, err := getRaw(ctx, cfg.Endpoint, params)
	if err != nil {
		return "", &TransportError{Backend: cfg.Name, Err: err}
	}

	var feed struct {
		Entries []struct {
			Title   string `xml:"title"`
			Summary string `xml:"summary"`
		} `xml:"entry"`
	}
	if err := xml.Unmarshal(body, &feed); err != nil {
		return "", &TransportError{Backend: cfg.Name, Err: fmt.Errorf("failed to parse feed: %w", err)}
	}

	var lines []string
	for _, entry := range feed.Entries {
		if len(lines) == 3 {
			break
		}
		title := collapseSpace(entry.Title)
		summary := truncate(collapseSpace(entry.Summary), 200)
		if title == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", title, summary))
	}

	if len(lines) == 0 {
		return "No arXiv papers found for this query.", nil
	}
	return strings.Join(lines, "\n"), nil
}

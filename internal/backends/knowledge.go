package backends

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"omnisearch/internal/config"
)

// Wikidata runs an entity search against a Wikidata SPARQL endpoint and
// normalizes the top matches into labeled one-liners.
func Wikidata(ctx context.Context, query string, cfg config.BackendConfig) (string, error) {
	escaped := strings.ReplaceAll(query, `"`, `\"`)
	sparql := fmt.Sprintf(`
SELECT ?item ?itemLabel ?itemDescription WHERE {
  SERVICE wikibase:mwapi {
    bd:serviceParam wikibase:api "EntitySearch" .
    bd:serviceParam wikibase:endpoint "www.wikidata.org" .
    bd:serviceParam mwapi:search "%s" .
    bd:serviceParam mwapi:language "en" .
    ?item wikibase:apiOutputItem mwapi:item .
  }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}
LIMIT %d`, escaped, resultLimit(cfg, 3))

	params := url.Values{}
	params.Set("query", sparql)
	params.Set("format", "json")

	var data struct {
		Results struct {
			Bindings []map[string]struct {
				Value string `json:"value"`
			} `json:"bindings"`
		} `json:"results"`
	}
	if err := getJSON(ctx, cfg.Endpoint, params, nil, &data); err != nil {
		return "", &TransportError{Backend: cfg.Name, Err: err}
	}

	var lines []string
	for _, binding := range data.Results.Bindings {
		label := "Unknown"
		if v, ok := binding["itemLabel"]; ok && v.Value != "" {
			label = v.Value
		}
		description := "No description"
		if v, ok := binding["itemDescription"]; ok && v.Value != "" {
			description = v.Value
		}
		id := ""
		if v, ok := binding["item"]; ok {
			segments := strings.Split(v.Value, "/")
			id = segments[len(segments)-1]
		}
		lines = append(lines, fmt.Sprintf("%s (%s): %s", label, id, description))
	}

	if len(lines) == 0 {
		return "No Wikidata entities found for this query.", nil
	}
	return "Wikidata entities:\n" + strings.Join(lines, "\n"), nil
}

// DBpedia queries the DBpedia Lookup service for structured Wikipedia data.
func DBpedia(ctx context.Context, query string, cfg config.BackendConfig) (string, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("maxResults", fmt.Sprintf("%d", resultLimit(cfg, 3)))
	params.Set("format", "json")

	var data struct {
		Docs []struct {
			Label   []string `json:"label"`
			Comment []string `json:"comment"`
		} `json:"docs"`
	}
	if err := getJSON(ctx, cfg.Endpoint, params, nil, &data); err != nil {
		return "", &TransportError{Backend: cfg.Name, Err: err}
	}

	var lines []string
	for _, doc := range data.Docs {
		label := "Unknown"
		if len(doc.Label) > 0 {
			label = stripTags(doc.Label[0])
		}
		description := "No description"
		if len(doc.Comment) > 0 {
			description = truncate(stripTags(doc.Comment[0]), 300)
		}
		lines = append(lines, fmt.Sprintf("%s: %s", label, description))
	}

	if len(lines) == 0 {
		return "No DBpedia resources found for this query.", nil
	}
	return "DBpedia results:\n" + strings.Join(lines, "\n"), nil
}

// resultLimit returns the configured result cap, or a default.
func resultLimit(cfg config.BackendConfig, fallback int) int {
	if cfg.ResultLimit > 0 {
		return cfg.ResultLimit
	}
	return fallback
}

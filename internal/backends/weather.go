package backends

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"omnisearch/internal/config"
)

// Weather fetches current conditions from an OpenWeatherMap-compatible
// endpoint. The query is treated as the location. Requires an API key.
func Weather(ctx context.Context, query string, cfg config.BackendConfig) (string, error) {
	if !cfg.CredentialConfigured() {
		return "", &CredentialError{Backend: cfg.Name, EnvHint: "WEATHER_API_KEY"}
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("appid", cfg.APIKey)
	params.Set("units", "metric")

	var data struct {
		Name string `json:"name"`
		Sys  struct {
			Country string `json:"country"`
		} `json:"sys"`
		Main struct {
			Temp *float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	}
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/") + "/weather"
	if err := getJSON(ctx, endpoint, params, nil, &data); err != nil {
		return "", &TransportError{Backend: cfg.Name, Err: err}
	}

	city := data.Name
	if city == "" {
		city = "Unknown"
	}
	temp := "N/A"
	if data.Main.Temp != nil {
		temp = fmt.Sprintf("%.1f°C", *data.Main.Temp)
	}
	description := "no description"
	if len(data.Weather) > 0 && data.Weather[0].Description != "" {
		description = data.Weather[0].Description
	}

	return fmt.Sprintf("%s, %s: %s, %s", city, data.Sys.Country, temp, description), nil
}

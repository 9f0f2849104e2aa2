package backends

import (
	"context"
	"strings"

	"omnisearch/internal/config"
)

const defaultOllamaModel = "llama2"

// Ollama queries a local generative model through the Ollama generate API.
func Ollama(ctx context.Context, query string, cfg config.BackendConfig) (string, error) {
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}

	options := map[string]any{}
	if cfg.Temperature != nil {
		options["temperature"] = *cfg.Temperature
	}
	if cfg.MaxTokens > 0 {
		options["num_predict"] = cfg.MaxTokens
	}
	if cfg.ContextLength > 0 {
		options["num_ctx"] = cfg.ContextLength
	}

	payload := map[string]any{
		"model":   model,
		"prompt":  "Please provide comprehensive information about: " + query,
		"stream":  false,
		"options": options,
	}

	var out struct {
		Response string `json:"response"`
	}
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/") + "/api/generate"
	if err := postJSON(ctx, endpoint, payload, &out); err != nil {
		return "", &TransportError{Backend: cfg.Name, Err: err}
	}

	if out.Response == "" {
		return "No response from generative model", nil
	}
	return out.Response, nil
}

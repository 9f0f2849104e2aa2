// Package backends implements one stateless adapter per backend kind. An
// adapter translates a query plus its BackendConfig into a backend-specific
// request and normalizes the response into a short human-readable string.
// Adapters never retry and never decide policy; timeouts and fan-out belong
// to the executor.
package backends

import (
	"context"

	"omnisearch/internal/config"
)

// Adapter is the uniform backend invocation contract.
type Adapter func(ctx context.Context, query string, cfg config.BackendConfig) (string, error)

// adapters is the closed dispatch table. Every config.Kind has exactly one
// entry; an unknown kind cannot reach an adapter because the loader rejects
// it at validation time.
var adapters = map[config.Kind]Adapter{
	config.KindOllama:    Ollama,
	config.KindWebSearch: WebSearch,
	config.KindWikidata:  Wikidata,
	config.KindDBpedia:   DBpedia,
	config.KindArxiv:     Arxiv,
	config.KindNews:      News,
	config.KindGitHub:    GitHub,
	config.KindFinance:   Finance,
	config.KindWeather:   Weather,
	config.KindBrowser:   Browser,
}

// ForKind returns the adapter for a backend kind.
func ForKind(kind config.Kind) (Adapter, bool) {
	a, ok := adapters[kind]
	return a, ok
}

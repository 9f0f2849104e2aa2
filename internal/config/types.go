// Package config holds the typed backend and routing configuration for
// omnisearch. Configuration is loaded once, validated, and treated as an
// immutable snapshot; reloads construct a new RoutingConfig and swap it
// atomically through a Handle.
package config

import (
	"sort"
	"strings"
	"time"
)

// Kind identifies the protocol a backend speaks.
type Kind string

const (
	KindOllama    Kind = "ollama"
	KindWebSearch Kind = "web_search"
	KindWikidata  Kind = "wikidata"
	KindDBpedia   Kind = "dbpedia"
	KindArxiv     Kind = "arxiv"
	KindNews      Kind = "news"
	KindGitHub    Kind = "github"
	KindFinance   Kind = "finance"
	KindWeather   Kind = "weather"
	KindBrowser   Kind = "browser"
)

// Kinds lists every supported backend kind.
var Kinds = []Kind{
	KindOllama, KindWebSearch, KindWikidata, KindDBpedia, KindArxiv,
	KindNews, KindGitHub, KindFinance, KindWeather, KindBrowser,
}

// Valid reports whether k is a known backend kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Strategy selects how the router picks backends for a query.
type Strategy string

const (
	StrategyAuto   Strategy = "auto"   // router picks the single best backend
	StrategyManual Strategy = "manual" // caller names backends explicitly
	StrategyMulti  Strategy = "multi"  // router picks several, queried concurrently
)

// Strategies lists every valid routing strategy.
var Strategies = []Strategy{StrategyAuto, StrategyManual, StrategyMulti}

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	return s == StrategyAuto || s == StrategyManual || s == StrategyMulti
}

// BackendConfig describes a single information backend.
type BackendConfig struct {
	Name              string   `json:"name" yaml:"name" toml:"name"`
	Kind              Kind     `json:"type" yaml:"type" toml:"type"`
	Endpoint          string   `json:"url" yaml:"url" toml:"url"`
	Enabled           bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	TimeoutSeconds    int      `json:"timeout" yaml:"timeout" toml:"timeout"`
	MaxTokens         int      `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" toml:"max_tokens,omitempty"`
	Temperature       *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" toml:"temperature,omitempty"`
	Model             string   `json:"model,omitempty" yaml:"model,omitempty" toml:"model,omitempty"`
	ContextLength     int      `json:"context_length,omitempty" yaml:"context_length,omitempty" toml:"context_length,omitempty"`
	APIKey            string   `json:"api_key,omitempty" yaml:"api_key,omitempty" toml:"api_key,omitempty"`
	ResultLimit       int      `json:"max_results,omitempty" yaml:"max_results,omitempty" toml:"max_results,omitempty"`
	RequestsPerSecond float64  `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty" toml:"requests_per_second,omitempty"`
	Capabilities      []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty" toml:"capabilities,omitempty"`
	Description       string   `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
}

// Timeout returns the per-call timeout as a duration.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// CredentialConfigured reports whether the backend's API key was resolved.
// A key that still looks like an unexpanded ${VAR} placeholder counts as
// missing: the backend stays loaded but every call to it fails.
func (b BackendConfig) CredentialConfigured() bool {
	return b.APIKey != "" && !IsPlaceholder(b.APIKey)
}

// IsPlaceholder reports whether s is an unresolved ${VAR} reference.
func IsPlaceholder(s string) bool {
	return strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}")
}

// RoutingConfig is the full validated backend set plus routing tables.
type RoutingConfig struct {
	Backends         map[string]BackendConfig `json:"servers" yaml:"servers" toml:"servers"`
	DefaultBackend   string                   `json:"default_server" yaml:"default_server" toml:"default_server"`
	Strategy         Strategy                 `json:"server_selection_strategy" yaml:"server_selection_strategy" toml:"server_selection_strategy"`
	FallbackBackends []string                 `json:"fallback_servers,omitempty" yaml:"fallback_servers,omitempty" toml:"fallback_servers,omitempty"`
	RoutingRules     map[string][]string      `json:"routing_rules,omitempty" yaml:"routing_rules,omitempty" toml:"routing_rules,omitempty"`

	// Warnings collected during load (e.g. unresolved credentials).
	// Soft: the config is usable, the named backends are not.
	Warnings []string `json:"-" yaml:"-" toml:"-"`
}

// Backend looks up a backend by name.
func (c *RoutingConfig) Backend(name string) (BackendConfig, bool) {
	b, ok := c.Backends[name]
	return b, ok
}

// EnabledBackends returns the names of all enabled backends, sorted.
func (c *RoutingConfig) EnabledBackends() []string {
	var names []string
	for name, b := range c.Backends {
		if b.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// BackendsByCapability returns enabled backends carrying the given tag, sorted.
func (c *RoutingConfig) BackendsByCapability(capability string) []string {
	var names []string
	for name, b := range c.Backends {
		if !b.Enabled {
			continue
		}
		for _, tag := range b.Capabilities {
			if tag == capability {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

// BackendsByKind returns enabled backends of the given kind, sorted.
func (c *RoutingConfig) BackendsByKind(kind Kind) []string {
	var names []string
	for name, b := range c.Backends {
		if b.Enabled && b.Kind == kind {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultPaths is the ordered list of locations searched when Load is
// called without an explicit path.
var DefaultPaths = []string{
	"config/omnisearch.json",
	"config/omnisearch.yaml",
	"config/omnisearch.toml",
	"omnisearch.json",
	"omnisearch.yaml",
	"omnisearch.toml",
}

// NotFoundError is returned when no configuration file could be located.
type NotFoundError struct {
	Searched []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("config file not found; searched: %s", strings.Join(e.Searched, ", "))
}

// ParseError is returned when a configuration file is structurally malformed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError is returned when a parsed configuration violates a hard
// invariant (unknown kind, dangling reference, bad numeric field). It aborts
// startup; soft problems are collected as RoutingConfig.Warnings instead.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration:\n  %s", strings.Join(e.Problems, "\n  "))
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// SubstituteEnv replaces every ${NAME} occurrence with the value of the
// environment variable NAME. Unset variables are left verbatim so that
// validation can detect unresolved placeholders. The operation is
// idempotent: a string without set placeholders passes through unchanged.
func SubstituteEnv(content string) string {
	return envPattern.ReplaceAllStringFunc(content, func(match string) string {
		name := match[2 : len(match)-1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}

// rawBackend mirrors BackendConfig with pointer fields so that absent keys
// can take the original defaults (enabled=true, timeout=30).
type rawBackend struct {
	Kind              string   `json:"type" yaml:"type" toml:"type"`
	Endpoint          string   `json:"url" yaml:"url" toml:"url"`
	Enabled           *bool    `json:"enabled" yaml:"enabled" toml:"enabled"`
	Timeout           *int     `json:"timeout" yaml:"timeout" toml:"timeout"`
	MaxTokens         int      `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	Temperature       *float64 `json:"temperature" yaml:"temperature" toml:"temperature"`
	Model             string   `json:"model" yaml:"model" toml:"model"`
	ContextLength     int      `json:"context_length" yaml:"context_length" toml:"context_length"`
	APIKey            string   `json:"api_key" yaml:"api_key" toml:"api_key"`
	ResultLimit       int      `json:"max_results" yaml:"max_results" toml:"max_results"`
	RequestsPerSecond float64  `json:"requests_per_second" yaml:"requests_per_second" toml:"requests_per_second"`
	Capabilities      []string `json:"capabilities" yaml:"capabilities" toml:"capabilities"`
	Description       string   `json:"description" yaml:"description" toml:"description"`
}

type rawConfig struct {
	Servers         map[string]rawBackend `json:"servers" yaml:"servers" toml:"servers"`
	DefaultServer   string                `json:"default_server" yaml:"default_server" toml:"default_server"`
	Strategy        string                `json:"server_selection_strategy" yaml:"server_selection_strategy" toml:"server_selection_strategy"`
	FallbackServers []string              `json:"fallback_servers" yaml:"fallback_servers" toml:"fallback_servers"`
	RoutingRules    map[string][]string   `json:"routing_rules" yaml:"routing_rules" toml:"routing_rules"`
}

// Load reads, substitutes, parses and validates a routing configuration.
// An empty path searches DefaultPaths and uses the first existing file.
// The format is chosen by file extension: .yaml/.yml, .toml, or JSON.
func Load(path string) (*RoutingConfig, error) {
	if path == "" {
		found := ""
		for _, candidate := range DefaultPaths {
			if _, err := os.Stat(candidate); err == nil {
				found = candidate
				break
			}
		}
		if found == "" {
			return nil, &NotFoundError{Searched: DefaultPaths}
		}
		path = found
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Searched: []string{path}}
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	content := SubstituteEnv(string(data))

	var raw rawConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal([]byte(content), &raw)
	case ".toml":
		err = toml.Unmarshal([]byte(content), &raw)
	default:
		err = json.Unmarshal([]byte(content), &raw)
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	return buildConfig(raw)
}

// buildConfig normalizes a raw decode into a RoutingConfig, splitting
// problems into hard validation errors and soft warnings.
func buildConfig(raw rawConfig) (*RoutingConfig, error) {
	var problems []string
	var warnings []string

	if len(raw.Servers) == 0 {
		problems = append(problems, "missing required field 'servers'")
		return nil, &ValidationError{Problems: problems}
	}

	backends := make(map[string]BackendConfig, len(raw.Servers))
	for name, rb := range raw.Servers {
		kind := Kind(rb.Kind)
		if rb.Kind == "" {
			// The original lets the map key double as the type.
			kind = Kind(name)
		}
		if !kind.Valid() {
			problems = append(problems, fmt.Sprintf("backend %q: invalid type %q", name, string(kind)))
		}
		if rb.Endpoint == "" {
			problems = append(problems, fmt.Sprintf("backend %q: missing required field 'url'", name))
		}

		enabled := true
		if rb.Enabled != nil {
			enabled = *rb.Enabled
		}
		timeout := 30
		if rb.Timeout != nil {
			timeout = *rb.Timeout
		}
		if timeout < 0 {
			problems = append(problems, fmt.Sprintf("backend %q: 'timeout' must be non-negative", name))
		}
		for field, v := range map[string]int{
			"max_tokens":     rb.MaxTokens,
			"context_length": rb.ContextLength,
			"max_results":    rb.ResultLimit,
		} {
			if v < 0 {
				problems = append(problems, fmt.Sprintf("backend %q: '%s' must be non-negative", name, field))
			}
		}
		if rb.Temperature != nil && (*rb.Temperature < 0 || *rb.Temperature > 2) {
			problems = append(problems, fmt.Sprintf("backend %q: temperature should be between 0 and 2", name))
		}
		if rb.RequestsPerSecond < 0 {
			problems = append(problems, fmt.Sprintf("backend %q: 'requests_per_second' must be non-negative", name))
		}
		if IsPlaceholder(rb.APIKey) {
			warnings = append(warnings, fmt.Sprintf(
				"backend %q: API key environment variable %q is not set; the backend will return errors until configured",
				name, rb.APIKey[2:len(rb.APIKey)-1]))
		}

		backends[name] = BackendConfig{
			Name:              name,
			Kind:              kind,
			Endpoint:          rb.Endpoint,
			Enabled:           enabled,
			TimeoutSeconds:    timeout,
			MaxTokens:         rb.MaxTokens,
			Temperature:       rb.Temperature,
			Model:             rb.Model,
			ContextLength:     rb.ContextLength,
			APIKey:            rb.APIKey,
			ResultLimit:       rb.ResultLimit,
			RequestsPerSecond: rb.RequestsPerSecond,
			Capabilities:      rb.Capabilities,
			Description:       rb.Description,
		}
	}

	if raw.DefaultServer == "" {
		problems = append(problems, "missing required field 'default_server'")
	} else if _, ok := backends[raw.DefaultServer]; !ok {
		problems = append(problems, fmt.Sprintf("default_server %q not found in servers", raw.DefaultServer))
	}

	strategy := Strategy(raw.Strategy)
	if raw.Strategy == "" {
		strategy = StrategyAuto
	} else if !strategy.Valid() {
		problems = append(problems, fmt.Sprintf("invalid server_selection_strategy %q", raw.Strategy))
	}

	for _, name := range raw.FallbackServers {
		if _, ok := backends[name]; !ok {
			problems = append(problems, fmt.Sprintf("fallback server %q not found in servers", name))
		}
	}
	for topic, names := range raw.RoutingRules {
		for _, name := range names {
			if _, ok := backends[name]; !ok {
				problems = append(problems, fmt.Sprintf("routing rule %q: server %q not found in servers", topic, name))
			}
		}
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	return &RoutingConfig{
		Backends:         backends,
		DefaultBackend:   raw.DefaultServer,
		Strategy:         strategy,
		FallbackBackends: raw.FallbackServers,
		RoutingRules:     raw.RoutingRules,
		Warnings:         warnings,
	}, nil
}

// Save writes the configuration back out as JSON.
func (c *RoutingConfig) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

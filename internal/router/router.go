// Package router selects which backends serve a query. Selection is flat,
// stateless and deterministic: keyword rules, then the fallback chain, then
// the default backend. No health tracking, no learning.
package router

import (
	"sort"
	"strings"

	"omnisearch/internal/config"
)

// Router resolves queries to backend names against the current config
// snapshot.
type Router struct {
	handle *config.Handle
}

// New creates a router reading from the given config handle.
func New(handle *config.Handle) *Router {
	return &Router{handle: handle}
}

// SelectBackends returns the backends to query, order-preserving and
// de-duplicated. The result is never empty: every path bottoms out at the
// default backend.
//
//   - manual: explicit names filtered to those present and enabled; if that
//     filters to nothing, the default backend.
//   - auto: the first backend multi selection would pick.
//   - multi: every enabled backend named by a matching routing rule, else
//     the enabled fallback chain, else the default backend.
func (r *Router) SelectBackends(query string, strategy config.Strategy, explicit []string) []string {
	cfg := r.handle.Snapshot()

	switch strategy {
	case config.StrategyManual:
		var selected []string
		seen := make(map[string]bool)
		for _, name := range explicit {
			b, ok := cfg.Backend(name)
			if !ok || !b.Enabled || seen[name] {
				continue
			}
			seen[name] = true
			selected = append(selected, name)
		}
		if len(selected) == 0 {
			return []string{cfg.DefaultBackend}
		}
		return selected

	case config.StrategyMulti:
		return r.multiSelect(cfg, query)

	default: // auto
		selected := r.multiSelect(cfg, query)
		if len(selected) == 0 {
			return []string{cfg.DefaultBackend}
		}
		return selected[:1]
	}
}

// multiSelect matches routing-rule topics against the lower-cased query.
// A topic like "current_events" splits into keywords; any keyword appearing
// as a substring of the query selects that rule's enabled backends. Topics
// are visited in sorted order so selection is stable across runs.
func (r *Router) multiSelect(cfg *config.RoutingConfig, query string) []string {
	lowered := strings.ToLower(query)

	topics := make([]string, 0, len(cfg.RoutingRules))
	for topic := range cfg.RoutingRules {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	var selected []string
	seen := make(map[string]bool)
	appendEnabled := func(name string) {
		b, ok := cfg.Backend(name)
		if !ok || !b.Enabled || seen[name] {
			return
		}
		seen[name] = true
		selected = append(selected, name)
	}

	for _, topic := range topics {
		if !topicMatches(topic, lowered) {
			continue
		}
		for _, name := range cfg.RoutingRules[topic] {
			appendEnabled(name)
		}
	}

	if len(selected) == 0 {
		for _, name := range cfg.FallbackBackends {
			appendEnabled(name)
		}
	}
	if len(selected) == 0 {
		selected = []string{cfg.DefaultBackend}
	}
	return selected
}

// topicMatches reports whether any keyword of the topic occurs in the
// lower-cased query. A topic with no keywords never matches.
func topicMatches(topic, loweredQuery string) bool {
	for _, keyword := range strings.Fields(strings.ReplaceAll(topic, "_", " ")) {
		if strings.Contains(loweredQuery, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// BackendInfo describes one backend for control surfaces.
type BackendInfo struct {
	Name         string   `json:"name"`
	Kind         string   `json:"type"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
	Enabled      bool     `json:"enabled"`
}

// Hints is the read-only routing surface exposed to UIs and APIs so that
// control surfaces stay in lock-step with actual routing behavior.
type Hints struct {
	AvailableBackends []BackendInfo       `json:"available_backends"`
	RoutingRules      map[string][]string `json:"routing_rules"`
	Strategies        []string            `json:"strategies"`
	DefaultStrategy   string              `json:"default_strategy"`
	FallbackBackends  []string            `json:"fallback_backends"`
}

// RoutingHints reports the current routing configuration.
func (r *Router) RoutingHints() Hints {
	cfg := r.handle.Snapshot()

	names := make([]string, 0, len(cfg.Backends))
	for name := range cfg.Backends {
		names = append(names, name)
	}
	sort.Strings(names)

	backends := make([]BackendInfo, 0, len(names))
	for _, name := range names {
		b := cfg.Backends[name]
		backends = append(backends, BackendInfo{
			Name:         name,
			Kind:         string(b.Kind),
			Description:  b.Description,
			Capabilities: b.Capabilities,
			Enabled:      b.Enabled,
		})
	}

	strategies := make([]string, 0, len(config.Strategies))
	for _, s := range config.Strategies {
		strategies = append(strategies, string(s))
	}

	return Hints{
		AvailableBackends: backends,
		RoutingRules:      cfg.RoutingRules,
		Strategies:        strategies,
		DefaultStrategy:   string(cfg.Strategy),
		FallbackBackends:  cfg.FallbackBackends,
	}
}

package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omnisearch/internal/config"
)

// testHandle builds the scenario used throughout: an LLM default, a web
// backend wired to a current-events rule, and a disabled archive backend.
func testHandle() *config.Handle {
	return config.NewHandle(&config.RoutingConfig{
		Backends: map[string]config.BackendConfig{
			"llm":     {Name: "llm", Kind: config.KindOllama, Enabled: true},
			"web":     {Name: "web", Kind: config.KindWebSearch, Enabled: true},
			"archive": {Name: "archive", Kind: config.KindArxiv, Enabled: false},
		},
		DefaultBackend: "llm",
		Strategy:       config.StrategyAuto,
		RoutingRules: map[string][]string{
			"current_events":  {"web"},
			"research_papers": {"archive"},
		},
	})
}

func TestSelectBackendsAuto(t *testing.T) {
	r := New(testHandle())

	tests := []struct {
		query string
		want  []string
	}{
		{"current events in AI", []string{"web"}},
		{"what are the latest EVENTS", []string{"web"}}, // matching is case-insensitive
		{"tell me a fact", []string{"llm"}},             // no rule matches, default wins
		{"research papers on transformers", []string{"llm"}}, // rule hits only a disabled backend
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := r.SelectBackends(tt.query, config.StrategyAuto, nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectBackendsManual(t *testing.T) {
	r := New(testHandle())

	got := r.SelectBackends("anything", config.StrategyManual, []string{"web", "llm", "web"})
	assert.Equal(t, []string{"web", "llm"}, got, "order preserved, duplicates dropped")

	got = r.SelectBackends("anything", config.StrategyManual, []string{"archive", "ghost"})
	assert.Equal(t, []string{"llm"}, got, "disabled and unknown names fall back to default")

	got = r.SelectBackends("anything", config.StrategyManual, nil)
	assert.Equal(t, []string{"llm"}, got)
}

func TestSelectBackendsMulti(t *testing.T) {
	handle := config.NewHandle(&config.RoutingConfig{
		Backends: map[string]config.BackendConfig{
			"llm":  {Name: "llm", Kind: config.KindOllama, Enabled: true},
			"web":  {Name: "web", Kind: config.KindWebSearch, Enabled: true},
			"news": {Name: "news", Kind: config.KindNews, Enabled: true},
		},
		DefaultBackend:   "llm",
		FallbackBackends: []string{"web"},
		RoutingRules: map[string][]string{
			"breaking_news":  {"news", "web"},
			"current_events": {"web"},
		},
	})
	r := New(handle)

	// Both topics match; topics are visited in sorted order and the union is
	// de-duplicated.
	got := r.SelectBackends("breaking news on current events", config.StrategyMulti, nil)
	assert.Equal(t, []string{"news", "web"}, got)

	// No rule matches: the fallback chain serves the query.
	got = r.SelectBackends("abstract philosophy", config.StrategyMulti, nil)
	assert.Equal(t, []string{"web"}, got)
}

func TestSelectBackendsNeverEmpty(t *testing.T) {
	handle := config.NewHandle(&config.RoutingConfig{
		Backends: map[string]config.BackendConfig{
			"llm": {Name: "llm", Kind: config.KindOllama, Enabled: true},
		},
		DefaultBackend: "llm",
	})
	r := New(handle)

	for _, strategy := range config.Strategies {
		got := r.SelectBackends("anything at all", strategy, nil)
		require.NotEmpty(t, got, "strategy %s returned no backends", strategy)
	}
}

func TestSelectBackendsStableAcrossRuns(t *testing.T) {
	r := New(testHandle())
	first := r.SelectBackends("current events", config.StrategyMulti, nil)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, r.SelectBackends("current events", config.StrategyMulti, nil))
	}
}

func TestTopicMatches(t *testing.T) {
	assert.True(t, topicMatches("current_events", "what are current prices"))
	assert.True(t, topicMatches("current_events", "upcoming events in town"))
	assert.False(t, topicMatches("current_events", "tell me a joke"))
	assert.False(t, topicMatches("", "anything"), "empty topic never matches")
}

func TestRoutingHints(t *testing.T) {
	r := New(testHandle())
	hints := r.RoutingHints()

	require.Len(t, hints.AvailableBackends, 3)
	assert.Equal(t, "archive", hints.AvailableBackends[0].Name, "backends sorted by name")
	assert.Equal(t, "llm", hints.AvailableBackends[1].Name)
	assert.Equal(t, "web", hints.AvailableBackends[2].Name)
	assert.False(t, hints.AvailableBackends[0].Enabled)

	assert.Equal(t, []string{"auto", "manual", "multi"}, hints.Strategies)
	assert.Equal(t, "auto", hints.DefaultStrategy)
	assert.Contains(t, hints.RoutingRules, "current_events")
}

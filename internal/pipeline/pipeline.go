// Package pipeline drives the analyze → gather → synthesize sequence and
// makes it resumable: intermediate results are cached per query, so a retry
// after a mid-pipeline failure skips the stages that already completed.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"omnisearch/internal/config"
	"omnisearch/internal/executor"
	"omnisearch/internal/router"
)

// Analyzer produces a routing-hint analysis for a query. Implemented by the
// external reasoning stage.
type Analyzer interface {
	Analyze(ctx context.Context, query string) (string, error)
}

// Synthesizer turns the query, its analysis and the gathered backend text
// into a final answer. Implemented by the external reasoning stage.
type Synthesizer interface {
	Synthesize(ctx context.Context, query, analysis, gathered string) (string, error)
}

// noGatheredInfo stands in when every selected backend failed.
const noGatheredInfo = "No external information was successfully retrieved."

// Pipeline coordinates the three stages around the router and executor.
type Pipeline struct {
	router   *router.Router
	exec     *executor.Executor
	cache    *StepCache
	analyzer Analyzer
	synth    Synthesizer
	strategy config.Strategy
	log      *zap.Logger
}

// New creates a pipeline. The strategy governs backend selection during the
// gather stage.
func New(r *router.Router, exec *executor.Executor, analyzer Analyzer, synth Synthesizer, strategy config.Strategy, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		router:   r,
		exec:     exec,
		cache:    NewStepCache(),
		analyzer: analyzer,
		synth:    synth,
		strategy: strategy,
		log:      log,
	}
}

// Cache exposes the step cache, mainly for inspection in tests and callers
// that bound retries.
func (p *Pipeline) Cache() *StepCache {
	return p.cache
}

// Run executes analyze → gather → synthesize for a query. Completed stages
// are cached under the query key; when a later stage fails, a retry of the
// same query resumes from the first missing stage. The cache entry is
// deleted once the whole pipeline succeeds.
func (p *Pipeline) Run(ctx context.Context, query string) (string, error) {
	steps, cached := p.cache.Get(query)
	if cached {
		p.log.Debug("Resuming pipeline from cached steps",
			zap.Bool("analysis", steps.Analysis != ""),
			zap.Bool("gathered", steps.Gathered != ""))
	}

	analysis := steps.Analysis
	if analysis == "" {
		a, err := p.analyzer.Analyze(ctx, query)
		if err != nil {
			return "", fmt.Errorf("analyze: %w", err)
		}
		analysis = a
		p.cache.PutAnalysis(query, a)
	}

	gathered := steps.Gathered
	if gathered == "" {
		gathered = p.gather(ctx, query)
		p.cache.PutGathered(query, gathered)
	}

	answer, err := p.synth.Synthesize(ctx, query, analysis, gathered)
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}

	p.cache.Clear(query)
	return answer, nil
}

// gather selects backends for the query and combines their successful
// results. Backend failures are values, so gather itself cannot fail; when
// everything failed it returns a fixed placeholder.
func (p *Pipeline) gather(ctx context.Context, query string) string {
	names := p.router.SelectBackends(query, p.strategy, nil)
	results := p.exec.SearchMultiOrdered(ctx, query, names)

	var parts []string
	for _, r := range results {
		if strings.HasPrefix(r.Output, "Error:") {
			p.log.Debug("Skipping failed backend result",
				zap.String("backend", r.Backend),
				zap.String("error", r.Output))
			continue
		}
		parts = append(parts, fmt.Sprintf("From %s:\n%s", r.Backend, r.Output))
	}

	if len(parts) == 0 {
		return noGatheredInfo
	}
	return strings.Join(parts, "\n\n")
}

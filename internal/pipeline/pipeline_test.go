package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"omnisearch/internal/backends"
	"omnisearch/internal/config"
	"omnisearch/internal/executor"
	"omnisearch/internal/router"
)

type fakeAnalyzer struct {
	calls int32
	err   error
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, query string) (string, error) {
	atomic.AddInt32(&a.calls, 1)
	if a.err != nil {
		return "", a.err
	}
	return "analysis of " + query, nil
}

type fakeSynth struct {
	calls    int32
	failNext bool

	lastAnalysis string
	lastGathered string
}

func (s *fakeSynth) Synthesize(ctx context.Context, query, analysis, gathered string) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	s.lastAnalysis = analysis
	s.lastGathered = gathered
	if s.failNext {
		s.failNext = false
		return "", errors.New("model unavailable")
	}
	return "final answer for " + query, nil
}

// newTestPipeline wires a pipeline over a single enabled backend whose
// adapter is replaced by fn.
func newTestPipeline(analyzer Analyzer, synth Synthesizer, fn backends.Adapter) *Pipeline {
	handle := config.NewHandle(&config.RoutingConfig{
		Backends: map[string]config.BackendConfig{
			"llm": {Name: "llm", Kind: config.KindOllama, Enabled: true},
		},
		DefaultBackend: "llm",
	})
	exec := executor.New(handle, executor.WithAdapterLookup(
		func(config.Kind) (backends.Adapter, bool) { return fn, true }))
	return New(router.New(handle), exec, analyzer, synth, config.StrategyAuto, zap.NewNop())
}

func TestRunSuccess(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	synth := &fakeSynth{}
	var adapterCalls int32
	p := newTestPipeline(analyzer, synth, func(ctx context.Context, query string, cfg config.BackendConfig) (string, error) {
		atomic.AddInt32(&adapterCalls, 1)
		return "llm says hi", nil
	})

	answer, err := p.Run(context.Background(), "what is Go")
	require.NoError(t, err)
	assert.Equal(t, "final answer for what is Go", answer)

	assert.Equal(t, "analysis of what is Go", synth.lastAnalysis)
	assert.Equal(t, "From llm:\nllm says hi", synth.lastGathered)
	assert.Equal(t, int32(1), atomic.LoadInt32(&adapterCalls))
	assert.Equal(t, 0, p.Cache().Len(), "cache entry cleared on success")
}

func TestRunResumesAfterSynthesisFailure(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	synth := &fakeSynth{failNext: true}
	var adapterCalls int32
	p := newTestPipeline(analyzer, synth, func(ctx context.Context, query string, cfg config.BackendConfig) (string, error) {
		atomic.AddInt32(&adapterCalls, 1)
		return "gathered text", nil
	})

	_, err := p.Run(context.Background(), "flaky question")
	require.Error(t, err)
	assert.Equal(t, 1, p.Cache().Len(), "completed stages stay cached after a failure")

	answer, err := p.Run(context.Background(), "flaky question")
	require.NoError(t, err)
	assert.Equal(t, "final answer for flaky question", answer)

	assert.Equal(t, int32(1), atomic.LoadInt32(&analyzer.calls), "analysis not repeated on retry")
	assert.Equal(t, int32(1), atomic.LoadInt32(&adapterCalls), "gather not repeated on retry")
	assert.Equal(t, int32(2), atomic.LoadInt32(&synth.calls))
	assert.Equal(t, 0, p.Cache().Len())
}

func TestRunAnalysisFailureCachesNothing(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.New("analyzer offline")}
	synth := &fakeSynth{}
	p := newTestPipeline(analyzer, synth, func(ctx context.Context, query string, cfg config.BackendConfig) (string, error) {
		return "unused", nil
	})

	_, err := p.Run(context.Background(), "q")
	require.Error(t, err)
	assert.Equal(t, 0, p.Cache().Len())
	assert.Equal(t, int32(0), atomic.LoadInt32(&synth.calls))
}

func TestRunAllBackendsFailed(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	synth := &fakeSynth{}
	p := newTestPipeline(analyzer, synth, func(ctx context.Context, query string, cfg config.BackendConfig) (string, error) {
		return "", errors.New("connection refused")
	})

	answer, err := p.Run(context.Background(), "q")
	require.NoError(t, err, "backend failures are values, not pipeline errors")
	assert.Equal(t, "final answer for q", answer)
	assert.Equal(t, "No external information was successfully retrieved.", synth.lastGathered)
}

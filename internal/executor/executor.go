// Package executor dispatches queries to one or many backends. Backend
// failures are captured as "Error: ..." string values, never as errors
// crossing the executor boundary, so one failing backend can never abort
// its siblings or the caller.
package executor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"omnisearch/internal/backends"
	"omnisearch/internal/config"
	"omnisearch/internal/trace"
)

// DefaultConcurrency bounds how many backend calls may be in flight during
// a multi dispatch. Small on purpose: it caps sockets and outbound rate
// when a query fans out to many backends.
const DefaultConcurrency = 4

// lookupFunc resolves a backend kind to its adapter. Swappable in tests.
type lookupFunc func(config.Kind) (backends.Adapter, bool)

// Executor runs backend invocations under a shared concurrency bound.
type Executor struct {
	handle *config.Handle
	sem    *semaphore.Weighted
	lookup lookupFunc
	rec    trace.Recorder
	log    *zap.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// Option configures an Executor.
type Option func(*Executor)

// WithConcurrency overrides the fan-out bound.
func WithConcurrency(n int64) Option {
	return func(e *Executor) {
		if n > 0 {
			e.sem = semaphore.NewWeighted(n)
		}
	}
}

// WithRecorder sets the invocation trace recorder.
func WithRecorder(rec trace.Recorder) Option {
	return func(e *Executor) {
		if rec != nil {
			e.rec = rec
		}
	}
}

// WithLogger sets the executor logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Executor) {
		if log != nil {
			e.log = log
		}
	}
}

// WithAdapterLookup overrides adapter resolution. Tests use this to inject
// instrumented adapters.
func WithAdapterLookup(lookup func(config.Kind) (backends.Adapter, bool)) Option {
	return func(e *Executor) {
		if lookup != nil {
			e.lookup = lookup
		}
	}
}

// New creates an executor reading configuration from the given handle.
func New(handle *config.Handle, opts ...Option) *Executor {
	e := &Executor{
		handle:   handle,
		sem:      semaphore.NewWeighted(DefaultConcurrency),
		lookup:   backends.ForKind,
		rec:      trace.Nop(),
		log:      zap.NewNop(),
		limiters: make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search queries a single backend and returns its normalized payload, or an
// "Error: ..." string. It never returns a Go error; failures are values.
func (e *Executor) Search(ctx context.Context, query, backend string) string {
	return e.invoke(ctx, query, backend)
}

// SearchMulti queries several backends concurrently under the shared
// concurrency bound. The returned map holds exactly one entry per requested
// backend; failed backends carry "Error: ..." strings next to their
// successful siblings.
func (e *Executor) SearchMulti(ctx context.Context, query string, names []string) map[string]string {
	ordered := e.SearchMultiOrdered(ctx, query, names)
	out := make(map[string]string, len(ordered))
	for _, r := range ordered {
		out[r.Backend] = r.Output
	}
	return out
}

// Result pairs a backend name with its output in requested order.
type Result struct {
	Backend string
	Output  string
}

// SearchMultiOrdered is SearchMulti preserving the requested backend order.
func (e *Executor) SearchMultiOrdered(ctx context.Context, query string, names []string) []Result {
	results := make([]Result, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := e.sem.Acquire(gctx, 1); err != nil {
				results[i] = Result{Backend: name, Output: "Error: " + err.Error()}
				return nil
			}
			defer e.sem.Release(1)
			// Cancellation of one backend (its own timeout) must not
			// cancel siblings: each invocation derives its own context.
			results[i] = Result{Backend: name, Output: e.invoke(gctx, query, name)}
			return nil
		})
	}
	g.Wait() // worker funcs never return errors; failures are values

	return results
}

// invoke runs one backend call end to end: config lookup, credential and
// enablement checks, rate limiting, per-backend timeout, trace emission.
func (e *Executor) invoke(ctx context.Context, query, backend string) string {
	cfg, ok := e.handle.Snapshot().Backend(backend)
	if !ok {
		return "Error: backend not found"
	}
	if !cfg.Enabled {
		return "Error: backend disabled"
	}

	adapter, ok := e.lookup(cfg.Kind)
	if !ok {
		return "Error: no adapter for backend kind " + string(cfg.Kind)
	}

	if limiter := e.limiter(backend, cfg.RequestsPerSecond); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return "Error: " + err.Error()
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	start := time.Now()
	output, err := adapter(callCtx, query, cfg)
	latency := time.Since(start)

	errStr := ""
	if err != nil {
		errStr = backends.Redact(err.Error(), cfg)
		if errors.Is(err, context.DeadlineExceeded) {
			output = "Error: timeout after " + cfg.Timeout().String()
		} else {
			output = "Error: " + errStr
		}
	}

	e.record(backend, query, output, errStr, latency)
	e.log.Debug("Backend invocation",
		zap.String("backend", backend),
		zap.Duration("latency", latency),
		zap.Bool("failed", err != nil))

	return output
}

// record emits the observability tuple for one invocation.
func (e *Executor) record(backend, query, output, errStr string, latency time.Duration) {
	event := trace.Event{
		ID:      uuid.NewString(),
		Backend: backend,
		Query:   query,
		Output:  output,
		Err:     errStr,
		Latency: latency,
		At:      time.Now(),
	}
	if recErr := e.rec.Record(event); recErr != nil {
		e.log.Warn("Failed to record invocation trace", zap.Error(recErr))
	}
}

// limiter returns the per-backend rate limiter, creating it on first use.
// A zero rps disables limiting for that backend.
func (e *Executor) limiter(backend string, rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.limiters[backend]
	if !ok {
		l = rate.NewLimiter(rate.Limit(rps), 1)
		e.limiters[backend] = l
	}
	return l
}

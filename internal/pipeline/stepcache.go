package pipeline

import (
	"sync"
)

// cacheKeyLen is how many leading characters of the query form the cache
// key. Distinct queries sharing a 100-character prefix alias to the same
// entry; this is a known, accepted collision risk carried over from the
// original key derivation.
const cacheKeyLen = 100

// Steps holds the intermediate results of a partially completed pipeline
// run. An empty string means the stage has not completed yet.
type Steps struct {
	Analysis string
	Gathered string
}

// StepCache stores per-query intermediate results so a retried pipeline run
// resumes from the first missing stage instead of repeating completed ones.
// Entries live only in process memory and are deleted on pipeline success.
// Callers are expected to serialize updates per key (single writer per key);
// concurrent writers to the same key are not supported.
type StepCache struct {
	mu      sync.RWMutex
	entries map[string]Steps
}

// NewStepCache creates an empty step cache.
func NewStepCache() *StepCache {
	return &StepCache{entries: make(map[string]Steps)}
}

func cacheKey(query string) string {
	if len(query) > cacheKeyLen {
		return query[:cacheKeyLen]
	}
	return query
}

// Get returns the cached steps for a query and whether an entry exists.
func (c *StepCache) Get(query string) (Steps, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	steps, ok := c.entries[cacheKey(query)]
	return steps, ok
}

// PutAnalysis records a completed analysis stage.
func (c *StepCache) PutAnalysis(query, analysis string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey(query)
	steps := c.entries[key]
	steps.Analysis = analysis
	c.entries[key] = steps
}

// PutGathered records a completed gather stage.
func (c *StepCache) PutGathered(query, gathered string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey(query)
	steps := c.entries[key]
	steps.Gathered = gathered
	c.entries[key] = steps
}

// Clear deletes the entry for a query. Called on full pipeline success.
func (c *StepCache) Clear(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(query))
}

// Len reports how many queries currently have cached steps.
func (c *StepCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

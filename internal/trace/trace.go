// Package trace emits one tuple per backend invocation for external
// observability collaborators. The Recorder interface is the boundary; this
// package ships a no-op recorder and a local SQLite sink, not an exporter.
package trace

import (
	"time"
)

// Event is the per-invocation observability tuple.
type Event struct {
	ID      string
	Backend string
	Query   string
	Output  string
	Err     string
	Latency time.Duration
	At      time.Time
}

// Recorder receives invocation events. Implementations must be safe for
// concurrent use; the executor records from fan-out goroutines.
type Recorder interface {
	Record(event Event) error
}

type nopRecorder struct{}

func (nopRecorder) Record(Event) error { return nil }

// Nop returns a recorder that drops every event.
func Nop() Recorder { return nopRecorder{} }

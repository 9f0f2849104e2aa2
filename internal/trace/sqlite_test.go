package trace

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRecorderRoundTrip(t *testing.T) {
	rec, err := OpenSQLite(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	defer rec.Close()

	base := time.Now().UTC().Truncate(time.Second)
	first := Event{
		ID:      "evt-1",
		Backend: "web",
		Query:   "current events",
		Output:  "Summary: something happened",
		Latency: 120 * time.Millisecond,
		At:      base,
	}
	second := Event{
		ID:      "evt-2",
		Backend: "news",
		Query:   "current events",
		Output:  "Error: news API key not configured",
		Err:     "news API key not configured",
		Latency: 3 * time.Millisecond,
		At:      base.Add(time.Second),
	}
	require.NoError(t, rec.Record(first))
	require.NoError(t, rec.Record(second))

	events, err := rec.Events(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "evt-1", events[0].ID, "events come back oldest first")
	assert.Equal(t, "web", events[0].Backend)
	assert.Equal(t, 120*time.Millisecond, events[0].Latency)
	assert.Empty(t, events[0].Err)

	assert.Equal(t, "evt-2", events[1].ID)
	assert.Equal(t, "news API key not configured", events[1].Err)
}

func TestSQLiteRecorderRejectsDuplicateID(t *testing.T) {
	rec, err := OpenSQLite(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	defer rec.Close()

	event := Event{ID: "dup", Backend: "web", Query: "q", Output: "o", At: time.Now()}
	require.NoError(t, rec.Record(event))
	assert.Error(t, rec.Record(event))
}

func TestNopRecorder(t *testing.T) {
	assert.NoError(t, Nop().Record(Event{ID: "x"}))
}

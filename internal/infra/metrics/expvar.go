package metrics

import (
	"context"
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"saltapi/internal/dataloader"
)

var expvarSeq uint64

var _ dataloader.MetricsRecorder = (*ExpvarRecorder)(nil)

// ExpvarRecorder publishes per-entity batch totals through expvar.
type ExpvarRecorder struct {
	name    string
	mu      sync.Mutex
	entries map[string]*EntityTotals
}

// EntityTotals aggregates the batches observed for one entity.
type EntityTotals struct {
	Batches    int64   `json:"batches"`
	Failures   int64   `json:"failures"`
	Keys       int64   `json:"keys"`
	DurationMS float64 `json:"duration_ms_total"`
}

// ExpvarSnapshot is a read-only copy of the recorded totals.
type ExpvarSnapshot struct {
	Entities   map[string]EntityTotals `json:"entities"`
	RecordedAt time.Time               `json:"recorded_at"`
}

// NewExpvarRecorder publishes a recorder under name. An empty name gets a
// generated unique one, since expvar rejects duplicate names.
func NewExpvarRecorder(name string) *ExpvarRecorder {
	if name == "" {
		name = fmt.Sprintf("saltapi_loader_metrics_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	r := &ExpvarRecorder{name: name, entries: make(map[string]*EntityTotals)}
	expvar.Publish(name, expvar.Func(func() any { return r.Snapshot() }))
	return r
}

// Name returns the expvar export name.
func (r *ExpvarRecorder) Name() string { return r.name }

// ObserveBatch implements dataloader.MetricsRecorder.
func (r *ExpvarRecorder) ObserveBatch(_ context.Context, entity string, keys int, success bool, duration time.Duration) {
	if entity == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[entity]
	if !ok {
		e = &EntityTotals{}
		r.entries[entity] = e
	}
	e.Batches++
	e.Keys += int64(keys)
	e.DurationMS += float64(duration) / float64(time.Millisecond)
	if !success {
		e.Failures++
	}
}

// Snapshot copies the current totals.
func (r *ExpvarRecorder) Snapshot() ExpvarSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]EntityTotals, len(r.entries))
	for entity, e := range r.entries {
		out[entity] = *e
	}
	return ExpvarSnapshot{Entities: out, RecordedAt: time.Now().UTC()}
}

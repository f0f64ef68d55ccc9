// Package dataloader coalesces the keyed lookups issued while resolving one
// query into a single deduplicated fetch per loader.
//
// Loading is a two-phase protocol. Phase one: Load and LoadMany register keys
// with the loader's open batch and hand back futures without touching the
// backing store. Phase two: the first Future.Get (or an explicit Dispatch)
// closes the batch and runs one fetch for every key collected so far, then
// completes all of the batch's futures. Keys requested after that start a new
// batch. Results are never retained across batches.
//
// A Loader belongs to exactly one in-flight query; build a fresh one per request.
package dataloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"saltapi/pkg/domain"
)

// Result is the outcome of fetching a single key.
type Result[V any] struct {
	Value V
	Err   error
}

// Ok wraps a successfully decoded value.
func Ok[V any](v V) Result[V] { return Result[V]{Value: v} }

// Fail wraps a per-key failure such as an unrecognized status.
func Fail[V any](err error) Result[V] { return Result[V]{Err: err} }

// BatchFunc fetches one batch. Keys are unique and in first-request order.
// Keys missing from the returned map resolve with domain.ErrNotFound; a
// returned error fails every key of the batch.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]Result[V], error)

// Loader batches, deduplicates, and fulfils load requests for keys of type K.
type Loader[K comparable, V any] struct {
	entity   domain.EntityType
	fetch    BatchFunc[K, V]
	validate func(K) error
	logger   Logger
	metrics  MetricsRecorder

	mu      sync.Mutex
	pending *batch[K, V]
}

type batch[K comparable, V any] struct {
	keys    []K
	futures map[K]*Future[V]
	once    sync.Once
}

// New constructs a loader for the entity. validate may be nil; when set it
// rejects malformed keys before they join a batch.
func New[K comparable, V any](entity domain.EntityType, fetch BatchFunc[K, V], validate func(K) error, opts ...Option) *Loader[K, V] {
	o := options{logger: noopLogger{}, metrics: noopMetrics{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Loader[K, V]{
		entity:   entity,
		fetch:    fetch,
		validate: validate,
		logger:   o.logger,
		metrics:  o.metrics,
	}
}

// Load registers key with the open batch and returns its future. A key already
// pending in the open batch shares the existing future.
func (l *Loader[K, V]) Load(key K) *Future[V] {
	if l.validate != nil {
		if err := l.validate(key); err != nil {
			return Failed[V](err)
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending == nil {
		l.pending = &batch[K, V]{futures: make(map[K]*Future[V])}
	}
	b := l.pending
	if f, ok := b.futures[key]; ok {
		return f
	}
	f := &Future[V]{run: func(ctx context.Context) { l.execute(ctx, b) }}
	b.keys = append(b.keys, key)
	b.futures[key] = f
	return f
}

// LoadMany is Load for every key, preserving input order (duplicates included).
func (l *Loader[K, V]) LoadMany(keys []K) Many[V] {
	out := make(Many[V], len(keys))
	for i, key := range keys {
		out[i] = l.Load(key)
	}
	return out
}

// Dispatch closes and executes the open batch, if any. It is the explicit
// drain barrier between a resolution pass and the next.
func (l *Loader[K, V]) Dispatch(ctx context.Context) {
	l.mu.Lock()
	b := l.pending
	l.mu.Unlock()
	if b != nil {
		l.execute(ctx, b)
	}
}

// Pending returns the number of unique keys waiting in the open batch.
func (l *Loader[K, V]) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending == nil {
		return 0
	}
	return len(l.pending.keys)
}

func (l *Loader[K, V]) execute(ctx context.Context, b *batch[K, V]) {
	b.once.Do(func() {
		l.mu.Lock()
		if l.pending == b {
			l.pending = nil
		}
		l.mu.Unlock()
		// cancellation is not propagated into the core
		l.fulfil(context.WithoutCancel(ctx), b)
	})
}

func (l *Loader[K, V]) fulfil(ctx context.Context, b *batch[K, V]) {
	start := time.Now()
	results, err := l.safeFetch(ctx, b.keys)
	elapsed := time.Since(start)
	l.metrics.ObserveBatch(ctx, string(l.entity), len(b.keys), err == nil, elapsed)
	if err != nil {
		l.logger.Error("batch fetch failed", "entity", l.entity, "keys", len(b.keys), "error", err)
		failure := domain.StoreError{Entity: l.entity, Err: err}
		for _, f := range b.futures {
			f.err = failure
		}
		return
	}
	l.logger.Debug("batch fetched", "entity", l.entity, "keys", len(b.keys), "duration", elapsed)
	for key, f := range b.futures {
		res, ok := results[key]
		if !ok {
			f.err = domain.ErrNotFound{Entity: l.entity, Key: key}
			continue
		}
		f.value, f.err = res.Value, res.Err
	}
}

func (l *Loader[K, V]) safeFetch(ctx context.Context, keys []K) (results map[K]Result[V], err error) {
	defer func() {
		if r := recover(); r != nil {
			results, err = nil, fmt.Errorf("batch function panicked: %v", r)
		}
	}()
	return l.fetch(ctx, keys)
}

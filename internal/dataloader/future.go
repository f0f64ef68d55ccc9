package dataloader

import "context"

// Future is the deferred outcome of a single Load.
type Future[V any] struct {
	run   func(ctx context.Context)
	value V
	err   error
}

// Failed returns a future already holding err. It never joins a batch.
func Failed[V any](err error) *Future[V] { return &Future[V]{err: err} }

// Get waits for the future's batch, executing it on the calling goroutine if
// it is still open, and returns the key's value or failure.
func (f *Future[V]) Get(ctx context.Context) (V, error) {
	if f.run != nil {
		f.run(ctx)
	}
	return f.value, f.err
}

// Many is the ordered set of futures returned by LoadMany.
type Many[V any] []*Future[V]

// Get returns every value in request order, or the first failure.
func (m Many[V]) Get(ctx context.Context) ([]V, error) {
	values, errs := m.Results(ctx)
	for _, err := range errs {
		if err != nil {
			return values, err
		}
	}
	return values, nil
}

// Results returns per-position values and failures.
func (m Many[V]) Results(ctx context.Context) ([]V, []error) {
	values := make([]V, len(m))
	errs := make([]error, len(m))
	for i, f := range m {
		values[i], errs[i] = f.Get(ctx)
	}
	return values, errs
}

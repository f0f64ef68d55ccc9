package testutil

import (
	"context"
	"sync"

	"saltapi/internal/infra/rowstore"
)

// Call is one statement observed by a Recorder.
type Call struct {
	Stmt string
	Args []any
}

// Recorder wraps an Executor and records every statement it runs. When Err is
// set, statements are recorded but fail with Err instead of executing.
type Recorder struct {
	Exec rowstore.Executor
	Err  error

	mu    sync.Mutex
	calls []Call
}

// Query implements rowstore.Executor.
func (r *Recorder) Query(ctx context.Context, stmt string, args ...any) (rowstore.Rows, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Stmt: stmt, Args: args})
	failure := r.Err
	r.mu.Unlock()
	if failure != nil {
		return nil, failure
	}
	return r.Exec.Query(ctx, stmt, args...)
}

// Calls returns a copy of the recorded statements.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Count returns the number of recorded statements.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Reset forgets recorded statements.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

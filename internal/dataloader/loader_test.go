package dataloader_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"saltapi/internal/dataloader"
	"saltapi/pkg/domain"
)

// squares is a batch function resolving positive ints to their square and
// recording every batch it receives. Keys listed in missing are omitted.
type squares struct {
	mu      sync.Mutex
	batches [][]int
	missing map[int]bool
	failing map[int]bool
	err     error
}

func (s *squares) fetch(_ context.Context, keys []int) (map[int]dataloader.Result[int], error) {
	s.mu.Lock()
	s.batches = append(s.batches, append([]int(nil), keys...))
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[int]dataloader.Result[int], len(keys))
	for _, k := range keys {
		switch {
		case s.missing[k]:
		case s.failing[k]:
			out[k] = dataloader.Fail[int](fmt.Errorf("bad row for %d", k))
		default:
			out[k] = dataloader.Ok(k * k)
		}
	}
	return out, nil
}

func (s *squares) calls() [][]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]int(nil), s.batches...)
}

func positive(k int) error {
	if k <= 0 {
		return domain.ValidationError{Entity: domain.EntityBlock, Key: k, Reason: "id must be positive"}
	}
	return nil
}

func newSquares(opts ...dataloader.Option) (*squares, *dataloader.Loader[int, int]) {
	s := &squares{}
	return s, dataloader.New(domain.EntityBlock, s.fetch, positive, opts...)
}

func TestLoadCoalescesKeysIntoOneBatch(t *testing.T) {
	ctx := context.Background()
	src, l := newSquares()
	a, b, c := l.Load(3), l.Load(4), l.Load(3)
	if a != c {
		t.Fatalf("expected duplicate key to share a future")
	}
	if got := l.Pending(); got != 2 {
		t.Fatalf("expected 2 pending keys, got %d", got)
	}
	if len(src.calls()) != 0 {
		t.Fatalf("no fetch expected before the first Get")
	}
	for want, f := range map[int]*dataloader.Future[int]{9: a, 16: b} {
		got, err := f.Get(ctx)
		if err != nil || got != want {
			t.Fatalf("expected %d, got %d (%v)", want, got, err)
		}
	}
	if calls := src.calls(); !reflect.DeepEqual(calls, [][]int{{3, 4}}) {
		t.Fatalf("expected one batch [3 4], got %v", calls)
	}
	if l.Pending() != 0 {
		t.Fatalf("expected batch to be closed after Get")
	}
}

func TestLoadManyPreservesOrderAndDuplicates(t *testing.T) {
	src, l := newSquares()
	got, err := l.LoadMany([]int{5, 7, 5}).Get(context.Background())
	if err != nil {
		t.Fatalf("load many: %v", err)
	}
	if !reflect.DeepEqual(got, []int{25, 49, 25}) {
		t.Fatalf("unexpected values %v", got)
	}
	if calls := src.calls(); !reflect.DeepEqual(calls, [][]int{{5, 7}}) {
		t.Fatalf("expected a single fetch of [5 7], got %v", calls)
	}
}

func TestLoadManyEmpty(t *testing.T) {
	src, l := newSquares()
	got, err := l.LoadMany(nil).Get(context.Background())
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %v (%v)", got, err)
	}
	l.Dispatch(context.Background())
	if len(src.calls()) != 0 {
		t.Fatalf("empty load must not reach the store")
	}
}

func TestMissingKeyFailsOnlyThatKey(t *testing.T) {
	ctx := context.Background()
	src, l := newSquares()
	src.missing = map[int]bool{8: true}
	values, errs := l.LoadMany([]int{2, 8, 3}).Results(ctx)
	if errs[0] != nil || errs[2] != nil {
		t.Fatalf("siblings must resolve: %v", errs)
	}
	if values[0] != 4 || values[2] != 9 {
		t.Fatalf("unexpected values %v", values)
	}
	var nf domain.ErrNotFound
	if !errors.As(errs[1], &nf) {
		t.Fatalf("expected ErrNotFound, got %T %v", errs[1], errs[1])
	}
	if nf.Entity != domain.EntityBlock || nf.Key != 8 {
		t.Fatalf("unexpected not found detail %+v", nf)
	}
	if _, err := l.LoadMany([]int{2, 8}).Get(ctx); !errors.As(err, &nf) {
		t.Fatalf("Many.Get should surface the first failure, got %v", err)
	}
}

func TestPerKeyFailureIsolated(t *testing.T) {
	ctx := context.Background()
	src, l := newSquares()
	src.failing = map[int]bool{6: true}
	bad, good := l.Load(6), l.Load(2)
	if _, err := bad.Get(ctx); err == nil || err.Error() != "bad row for 6" {
		t.Fatalf("expected per-key failure, got %v", err)
	}
	if v, err := good.Get(ctx); err != nil || v != 4 {
		t.Fatalf("sibling should resolve, got %d (%v)", v, err)
	}
}

func TestStoreFailureFailsWholeBatch(t *testing.T) {
	ctx := context.Background()
	logger := &countingLogger{}
	metrics := &recordingMetrics{}
	src, l := newSquares(dataloader.WithLogger(logger), dataloader.WithMetrics(metrics))
	boom := errors.New("connection reset")
	src.err = boom
	futures := l.LoadMany([]int{1, 2, 3})
	for i, f := range futures {
		_, err := f.Get(ctx)
		var se domain.StoreError
		if !errors.As(err, &se) {
			t.Fatalf("key %d: expected StoreError, got %v", i, err)
		}
		if !errors.Is(err, boom) {
			t.Fatalf("key %d: expected wrapped cause, got %v", i, err)
		}
	}
	if logger.errors != 1 {
		t.Fatalf("expected one error log, got %d", logger.errors)
	}
	if len(metrics.batches) != 1 || metrics.batches[0].success || metrics.batches[0].keys != 3 {
		t.Fatalf("unexpected metrics %+v", metrics.batches)
	}

	// the loader stays usable for the next batch
	src.err = nil
	if v, err := l.Load(2).Get(ctx); err != nil || v != 4 {
		t.Fatalf("expected recovery, got %d (%v)", v, err)
	}
}

func TestInvalidKeyNeverJoinsBatch(t *testing.T) {
	ctx := context.Background()
	src, l := newSquares()
	bad := l.Load(-1)
	if l.Pending() != 0 {
		t.Fatalf("invalid key must not be pending")
	}
	var ve domain.ValidationError
	if _, err := bad.Get(ctx); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	values, errs := l.LoadMany([]int{0, 2}).Results(ctx)
	if !errors.As(errs[0], &ve) || errs[1] != nil || values[1] != 4 {
		t.Fatalf("unexpected results %v %v", values, errs)
	}
	if calls := src.calls(); !reflect.DeepEqual(calls, [][]int{{2}}) {
		t.Fatalf("expected fetch of [2] only, got %v", calls)
	}
}

func TestLoadAfterDispatchStartsNewBatch(t *testing.T) {
	ctx := context.Background()
	src, l := newSquares()
	first := l.Load(2)
	l.Dispatch(ctx)
	second := l.Load(2)
	if first == second {
		t.Fatalf("expected a fresh future after dispatch")
	}
	if _, err := second.Get(ctx); err != nil {
		t.Fatalf("get: %v", err)
	}
	if v, err := first.Get(ctx); err != nil || v != 4 {
		t.Fatalf("dispatched future: %d (%v)", v, err)
	}
	if calls := src.calls(); !reflect.DeepEqual(calls, [][]int{{2}, {2}}) {
		t.Fatalf("results must not be cached across batches, got %v", calls)
	}
}

func TestDispatchWithoutPendingIsNoop(t *testing.T) {
	src, l := newSquares()
	l.Dispatch(context.Background())
	if len(src.calls()) != 0 {
		t.Fatalf("unexpected fetch")
	}
}

func TestConcurrentWaitersShareOneFetch(t *testing.T) {
	ctx := context.Background()
	src, l := newSquares()
	futures := l.LoadMany([]int{1, 2, 3, 4})
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(f *dataloader.Future[int], want int) {
			defer wg.Done()
			got, err := f.Get(ctx)
			if err != nil || got != want {
				errs <- fmt.Errorf("want %d got %d (%v)", want, got, err)
			}
		}(futures[i%4], (i%4+1)*(i%4+1))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	if n := len(src.calls()); n != 1 {
		t.Fatalf("expected one fetch, got %d", n)
	}
}

func TestCancelledContextStillFulfils(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var seen error
	l := dataloader.New(domain.EntityProposal, func(ctx context.Context, keys []string) (map[string]dataloader.Result[string], error) {
		seen = ctx.Err()
		return map[string]dataloader.Result[string]{keys[0]: dataloader.Ok("ok")}, nil
	}, nil)
	if v, err := l.Load("x").Get(ctx); err != nil || v != "ok" {
		t.Fatalf("expected fulfilment, got %q (%v)", v, err)
	}
	if seen != nil {
		t.Fatalf("fetch context should not carry cancellation, got %v", seen)
	}
}

func TestPanickingFetchBecomesStoreError(t *testing.T) {
	l := dataloader.New(domain.EntityInvestigator, func(context.Context, []int64) (map[int64]dataloader.Result[int64], error) {
		panic("decoder exploded")
	}, nil)
	_, err := l.Load(1).Get(context.Background())
	var se domain.StoreError
	if !errors.As(err, &se) || se.Entity != domain.EntityInvestigator {
		t.Fatalf("expected StoreError, got %v", err)
	}
}

func TestSuccessfulBatchIsObserved(t *testing.T) {
	logger := &countingLogger{}
	metrics := &recordingMetrics{}
	_, l := newSquares(dataloader.WithLogger(logger), dataloader.WithMetrics(metrics), dataloader.WithLogger(nil))
	if _, err := l.LoadMany([]int{1, 2}).Get(context.Background()); err != nil {
		t.Fatalf("get: %v", err)
	}
	if logger.debugs != 1 {
		t.Fatalf("expected one debug log, got %d", logger.debugs)
	}
	want := observedBatch{entity: string(domain.EntityBlock), keys: 2, success: true}
	if len(metrics.batches) != 1 || metrics.batches[0] != want {
		t.Fatalf("unexpected metrics %+v", metrics.batches)
	}
}

type countingLogger struct {
	mu     sync.Mutex
	debugs int
	errors int
}

func (l *countingLogger) Debug(string, ...any) { l.mu.Lock(); l.debugs++; l.mu.Unlock() }
func (l *countingLogger) Info(string, ...any)  {}
func (l *countingLogger) Warn(string, ...any)  {}
func (l *countingLogger) Error(string, ...any) { l.mu.Lock(); l.errors++; l.mu.Unlock() }

type observedBatch struct {
	entity  string
	keys    int
	success bool
}

type recordingMetrics struct {
	mu      sync.Mutex
	batches []observedBatch
}

func (m *recordingMetrics) ObserveBatch(_ context.Context, entity string, keys int, success bool, _ time.Duration) {
	m.mu.Lock()
	m.batches = append(m.batches, observedBatch{entity: entity, keys: keys, success: success})
	m.mu.Unlock()
}

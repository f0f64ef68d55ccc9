package metrics_test

import (
	"context"
	"encoding/json"
	"expvar"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"saltapi/internal/infra/metrics"
)

func TestPrometheusRecorderCountsBatches(t *testing.T) {
	ctx := context.Background()
	r := metrics.NewPrometheusRecorder()
	r.ObserveBatch(ctx, "block", 3, true, 5*time.Millisecond)
	r.ObserveBatch(ctx, "block", 1, false, time.Millisecond)
	r.ObserveBatch(ctx, "proposal", 2, true, time.Millisecond)

	expected := `
# HELP saltapi_loader_batch_failures_total Loader batches that failed as a whole.
# TYPE saltapi_loader_batch_failures_total counter
saltapi_loader_batch_failures_total{entity="block"} 1
`
	if err := testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "saltapi_"+metrics.MetricBatchFailures); err != nil {
		t.Fatalf("failures: %v", err)
	}
	if n, err := testutil.GatherAndCount(r.Registry(), "saltapi_"+metrics.MetricBatchDuration); err != nil || n != 3 {
		t.Fatalf("expected 3 duration series (block success/error, proposal success), got %d (%v)", n, err)
	}
	if n, err := testutil.GatherAndCount(r.Registry(), "saltapi_"+metrics.MetricBatchKeys); err != nil || n != 2 {
		t.Fatalf("expected 2 key series, got %d (%v)", n, err)
	}
}

func TestPrometheusHandlerServesRegistry(t *testing.T) {
	r := metrics.NewPrometheusRecorder()
	r.ObserveBatch(context.Background(), "observation", 4, true, time.Millisecond)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `saltapi_loader_batch_keys_count{entity="observation"} 1`) {
		t.Fatalf("unexpected exposition:\n%s", body)
	}
}

func TestExpvarRecorderAggregates(t *testing.T) {
	ctx := context.Background()
	r := metrics.NewExpvarRecorder("")
	r.ObserveBatch(ctx, "investigator", 2, true, 2*time.Millisecond)
	r.ObserveBatch(ctx, "investigator", 5, false, 3*time.Millisecond)
	r.ObserveBatch(ctx, "", 1, true, time.Millisecond)

	snap := r.Snapshot()
	got := snap.Entities["investigator"]
	want := metrics.EntityTotals{Batches: 2, Failures: 1, Keys: 7, DurationMS: 5}
	if got != want || len(snap.Entities) != 1 {
		t.Fatalf("unexpected totals %+v", snap.Entities)
	}

	v := expvar.Get(r.Name())
	if v == nil {
		t.Fatalf("recorder %s not published", r.Name())
	}
	var decoded metrics.ExpvarSnapshot
	if err := json.Unmarshal([]byte(v.String()), &decoded); err != nil {
		t.Fatalf("decode expvar: %v", err)
	}
	if decoded.Entities["investigator"].Keys != 7 {
		t.Fatalf("unexpected published snapshot %+v", decoded)
	}
}

func TestExpvarRecorderNamesAreUnique(t *testing.T) {
	a, b := metrics.NewExpvarRecorder(""), metrics.NewExpvarRecorder("")
	if a.Name() == b.Name() {
		t.Fatalf("expected distinct names, got %s", a.Name())
	}
}

package loaders

import (
	"context"
	"errors"
	"testing"
	"time"

	"saltapi/internal/infra/rowstore"
	"saltapi/pkg/domain"
)

// cannedExecutor answers each statement with fixed rows.
type cannedExecutor map[string]rowstore.Rows

func (c cannedExecutor) Query(_ context.Context, stmt string, _ ...any) (rowstore.Rows, error) {
	return c[stmt], nil
}

func TestObservationNightKeepsDriverCalendarDay(t *testing.T) {
	sast := time.FixedZone("SAST", 2*3600)
	exec := cannedExecutor{
		observationSQL: {{
			"blockvisit_id":    int64(100),
			"block_id":         int64(5),
			"date":             time.Date(2021, 6, 13, 0, 0, 0, 0, sast),
			"blockvisitstatus": "Accepted",
			"rejectedreason":   nil,
		}},
	}
	o, err := NewObservationLoader(exec).Load(100).Get(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := time.Date(2021, 6, 13, 0, 0, 0, 0, time.UTC)
	if !o.Night.Equal(want) || o.Night.Location() != time.UTC {
		t.Fatalf("night = %v, want %v", o.Night, want)
	}
	if o.Start != nil {
		t.Fatalf("expected no start, got %v", o.Start)
	}
}

func TestObservingWindowUnmappedTypeFailsOnlyItsBlock(t *testing.T) {
	window := func(block int64, typ string) rowstore.Row {
		return rowstore.Row{
			"block_id":                  block,
			"visibilitystart":           "2021-06-15 20:00:00",
			"visibilityend":             "2021-06-15 21:00:00",
			"blockvisibilitywindowtype": typ,
		}
	}
	exec := cannedExecutor{
		observingWindowSQL: {window(5, "Strict"), window(7, "Bogus"), window(7, "Strict")},
	}
	now := time.Date(2021, 6, 15, 10, 0, 0, 0, time.UTC)
	l := NewObservingWindowLoader(exec, WithClock(ClockFunc(func() time.Time { return now })))
	ok := l.Load(domain.WindowKey{BlockID: 5, Type: domain.WindowStrict})
	bad := l.Load(domain.WindowKey{BlockID: 7, Type: domain.WindowStrict})
	l.Dispatch(context.Background())

	bucket, err := ok.Get(context.Background())
	if err != nil {
		t.Fatalf("block 5: %v", err)
	}
	if len(bucket.Tonight) != 1 {
		t.Fatalf("block 5: unexpected bucket %+v", bucket)
	}
	_, err = bad.Get(context.Background())
	var unrecognized domain.UnrecognizedValueError
	if !errors.As(err, &unrecognized) || unrecognized.Value != "Bogus" {
		t.Fatalf("block 7: expected unrecognized value, got %v", err)
	}
	var store domain.StoreError
	if errors.As(err, &store) {
		t.Fatalf("block 7: data error reported as store failure: %v", err)
	}
}

func TestNilClockFuncReadsSystemClock(t *testing.T) {
	var f ClockFunc
	before := time.Now()
	got := f.Now()
	if got.Location() != time.UTC || got.Before(before.Add(-time.Second)) {
		t.Fatalf("unexpected now %v", got)
	}
}

package loaders

import (
	"math/rand"
	"slices"
	"testing"
	"testing/quick"
	"time"

	"saltapi/pkg/domain"
)

// bounded keeps generated timestamps clear of int64 overflow when shifted by whole days.
func bounded(t int64) int64 { return t % 1_000_000_000_000 }

func TestStartOfNightContainsInstant(t *testing.T) {
	prop := func(raw int64) bool {
		ts := bounded(raw)
		start := StartOfNight(ts)
		return start <= ts && ts < start+SecondsPerDay && floorMod(start-NightStartOffset, SecondsPerDay) == 0
	}
	if err := quick.Check(prop, &quick.Config{MaxCount: 2000}); err != nil {
		t.Fatal(err)
	}
}

func TestStartOfNightShiftInvariant(t *testing.T) {
	prop := func(raw int64, days int16) bool {
		ts := bounded(raw)
		k := int64(days)
		return StartOfNight(ts+k*SecondsPerDay) == StartOfNight(ts)+k*SecondsPerDay
	}
	if err := quick.Check(prop, &quick.Config{MaxCount: 2000}); err != nil {
		t.Fatal(err)
	}
}

func TestStartOfNightBoundaries(t *testing.T) {
	day := time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC).Unix()
	cases := []struct {
		name string
		t    int64
		want int64
	}{
		{"six sharp", day + NightStartOffset, day + NightStartOffset},
		{"one second before six", day + NightStartOffset - 1, day - SecondsPerDay + NightStartOffset},
		{"midnight", day, day - SecondsPerDay + NightStartOffset},
		{"evening", day + 20*3600, day + NightStartOffset},
		{"epoch", 0, NightStartOffset - SecondsPerDay},
		{"before epoch", -1, NightStartOffset - SecondsPerDay},
		{"before epoch night", -SecondsPerDay + NightStartOffset, -SecondsPerDay + NightStartOffset},
	}
	for _, tc := range cases {
		if got := StartOfNight(tc.t); got != tc.want {
			t.Fatalf("%s: StartOfNight(%d) = %d, want %d", tc.name, tc.t, got, tc.want)
		}
	}
}

func window(start, end string, typ domain.WindowType) domain.ObservingWindow {
	s, _ := time.Parse(time.DateTime, start)
	e, _ := time.Parse(time.DateTime, end)
	return domain.ObservingWindow{VisibilityStart: s, VisibilityEnd: e, Duration: int64(e.Sub(s).Seconds()), WindowType: typ}
}

func starts(ws []domain.ObservingWindow) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.VisibilityStart.Format(time.DateTime)
	}
	return out
}

func TestBucketAroundNight(t *testing.T) {
	now := time.Date(2021, 6, 15, 10, 0, 0, 0, time.UTC)
	ws := []domain.ObservingWindow{
		window("2021-06-17 20:00:00", "2021-06-17 21:00:00", domain.WindowStrict),
		window("2021-06-16 03:00:00", "2021-06-16 04:00:00", domain.WindowStrict),
		window("2021-06-14 22:00:00", "2021-06-14 23:30:00", domain.WindowStrict),
		window("2021-06-15 05:59:59", "2021-06-15 06:30:00", domain.WindowStrict),
		window("2021-06-16 06:00:00", "2021-06-16 07:00:00", domain.WindowStrict),
		window("2021-06-15 20:00:00", "2021-06-15 21:00:00", domain.WindowStrict),
		window("2021-06-15 06:00:00", "2021-06-15 06:10:00", domain.WindowStrict),
	}
	b := Bucket(now, ws)
	if got, want := starts(b.Past), []string{"2021-06-14 22:00:00", "2021-06-15 05:59:59"}; !slices.Equal(got, want) {
		t.Fatalf("past = %v, want %v", got, want)
	}
	if got, want := starts(b.Tonight), []string{"2021-06-15 06:00:00", "2021-06-15 20:00:00", "2021-06-16 03:00:00"}; !slices.Equal(got, want) {
		t.Fatalf("tonight = %v, want %v", got, want)
	}
	if got, want := starts(b.Future), []string{"2021-06-16 06:00:00", "2021-06-17 20:00:00"}; !slices.Equal(got, want) {
		t.Fatalf("future = %v, want %v", got, want)
	}
	if b.Len() != len(ws) {
		t.Fatalf("windows lost: %d of %d", b.Len(), len(ws))
	}
}

func TestBucketEmpty(t *testing.T) {
	b := Bucket(time.Now(), nil)
	if b.Past == nil || b.Tonight == nil || b.Future == nil || b.Len() != 0 {
		t.Fatalf("expected three empty non-nil buckets, got %+v", b)
	}
}

func TestBucketPartitionProperty(t *testing.T) {
	now := time.Date(2021, 6, 15, 10, 0, 0, 0, time.UTC)
	today := StartOfNight(now.Unix())
	prop := func(offsets []int32) bool {
		ws := make([]domain.ObservingWindow, len(offsets))
		for i, off := range offsets {
			s := now.Add(time.Duration(off) * time.Second)
			ws[i] = domain.ObservingWindow{VisibilityStart: s, VisibilityEnd: s.Add(time.Hour), Duration: 3600, WindowType: domain.WindowStrict}
		}
		b := Bucket(now, ws)
		if b.Len() != len(ws) {
			return false
		}
		for _, w := range b.Past {
			if StartOfNight(w.VisibilityStart.Unix()) >= today {
				return false
			}
		}
		for _, w := range b.Tonight {
			if StartOfNight(w.VisibilityStart.Unix()) != today {
				return false
			}
		}
		for _, w := range b.Future {
			if StartOfNight(w.VisibilityStart.Unix()) <= today {
				return false
			}
		}
		sorted := func(ws []domain.ObservingWindow) bool {
			return slices.IsSortedFunc(ws, func(a, b domain.ObservingWindow) int { return a.VisibilityStart.Compare(b.VisibilityStart) })
		}
		return sorted(b.Past) && sorted(b.Tonight) && sorted(b.Future)
	}
	if err := quick.Check(prop, &quick.Config{MaxCount: 500}); err != nil {
		t.Fatal(err)
	}
}

// Ordering by formatted UTC timestamp and ordering by instant agree for
// four-digit years, so either can back the sort.
func TestWindowOrderMatchesTextualOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ws := make([]domain.ObservingWindow, 200)
	for i := range ws {
		s := time.Unix(rng.Int63n(4_000_000_000), 0).UTC()
		ws[i] = domain.ObservingWindow{VisibilityStart: s, VisibilityEnd: s.Add(time.Duration(rng.Intn(7200)+1) * time.Second), WindowType: domain.WindowTypes()[rng.Intn(3)]}
	}
	numeric := slices.Clone(ws)
	sortWindows(numeric)
	textual := slices.Clone(ws)
	slices.SortStableFunc(textual, func(a, b domain.ObservingWindow) int {
		ka := a.VisibilityStart.Format(time.DateTime) + a.VisibilityEnd.Format(time.DateTime) + string(a.WindowType)
		kb := b.VisibilityStart.Format(time.DateTime) + b.VisibilityEnd.Format(time.DateTime) + string(b.WindowType)
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return 0
	})
	for i := range numeric {
		if numeric[i] != textual[i] {
			t.Fatalf("order differs at %d: %v vs %v", i, numeric[i], textual[i])
		}
	}
}

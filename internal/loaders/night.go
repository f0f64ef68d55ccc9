package loaders

import (
	"cmp"
	"slices"
	"time"

	"saltapi/pkg/domain"
)

const (
	// SecondsPerDay is the length of a calendar day in the reference time scale.
	SecondsPerDay int64 = 24 * 3600
	// NightStartOffset is how far past midnight UT an observing night begins
	// (06:00 UT, 08:00 SAST).
	NightStartOffset int64 = 6 * 3600
)

// StartOfNight returns the unix time at which the night containing t began.
// It holds for negative timestamps: StartOfNight(t) <= t < StartOfNight(t)+SecondsPerDay.
func StartOfNight(t int64) int64 {
	r := floorMod(t, SecondsPerDay)
	if r >= NightStartOffset {
		return t - r + NightStartOffset
	}
	return t - r - SecondsPerDay + NightStartOffset
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// Bucket partitions windows into past, tonight's, and future windows by the
// night their visibility starts in, relative to the night containing now.
// Each bucket is sorted ascending by visibility start.
func Bucket(now time.Time, windows []domain.ObservingWindow) domain.BlockObservingWindowBucket {
	today := StartOfNight(now.Unix())
	b := domain.BlockObservingWindowBucket{
		Past:    []domain.ObservingWindow{},
		Tonight: []domain.ObservingWindow{},
		Future:  []domain.ObservingWindow{},
	}
	for _, w := range windows {
		night := StartOfNight(w.VisibilityStart.Unix())
		switch {
		case night < today:
			b.Past = append(b.Past, w)
		case night == today:
			b.Tonight = append(b.Tonight, w)
		default:
			b.Future = append(b.Future, w)
		}
	}
	sortWindows(b.Past)
	sortWindows(b.Tonight)
	sortWindows(b.Future)
	return b
}

func sortWindows(ws []domain.ObservingWindow) {
	slices.SortStableFunc(ws, func(a, b domain.ObservingWindow) int {
		if c := a.VisibilityStart.Compare(b.VisibilityStart); c != 0 {
			return c
		}
		if c := a.VisibilityEnd.Compare(b.VisibilityEnd); c != 0 {
			return c
		}
		return cmp.Compare(a.WindowType, b.WindowType)
	})
}

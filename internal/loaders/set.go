// Package loaders provides the batched entity loaders used while resolving a
// proposal query: proposals, blocks, observations, investigators, partner
// time shares, and block observing-window buckets.
//
// Build one Set per incoming request; its loaders hold per-request batch state
// and must not be shared between concurrent queries.
package loaders

import (
	"context"
	"time"

	"saltapi/internal/dataloader"
	"saltapi/internal/infra/rowstore"
	"saltapi/pkg/domain"
)

// Clock supplies the reference instant used for window bucketing.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock. A nil function reads the system clock in UTC.
func (f ClockFunc) Now() time.Time {
	if f == nil {
		return time.Now().UTC()
	}
	return f()
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type config struct {
	logger  dataloader.Logger
	metrics dataloader.MetricsRecorder
	clock   Clock
}

// Option customises the loaders of a Set.
type Option func(*config)

// WithLogger sets the logger shared by every loader.
func WithLogger(logger dataloader.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithMetrics sets the batch metrics recorder shared by every loader.
func WithMetrics(metrics dataloader.MetricsRecorder) Option {
	return func(c *config) { c.metrics = metrics }
}

// WithClock overrides the clock used to decide which windows are tonight's.
func WithClock(clock Clock) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func (c config) loaderOptions() []dataloader.Option {
	return []dataloader.Option{dataloader.WithLogger(c.logger), dataloader.WithMetrics(c.metrics)}
}

func newConfig(opts []Option) config {
	c := config{clock: systemClock{}}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Set bundles one loader per entity kind for a single query.
type Set struct {
	Proposals         *dataloader.Loader[string, domain.Proposal]
	Blocks            *dataloader.Loader[int64, domain.Block]
	Observations      *dataloader.Loader[int64, domain.Observation]
	Investigators     *dataloader.Loader[int64, domain.Investigator]
	PartnerTimeShares *dataloader.Loader[domain.PartnerSemesterKey, domain.PartnerTimeShare]
	ObservingWindows  *dataloader.Loader[domain.WindowKey, domain.BlockObservingWindowBucket]

	clock Clock
}

// NewSet constructs fresh loaders reading through exec.
func NewSet(exec rowstore.Executor, opts ...Option) *Set {
	cfg := newConfig(opts)
	return &Set{
		Proposals:         NewProposalLoader(exec, opts...),
		Blocks:            NewBlockLoader(exec, opts...),
		Observations:      NewObservationLoader(exec, opts...),
		Investigators:     NewInvestigatorLoader(exec, opts...),
		PartnerTimeShares: NewPartnerTimeShareLoader(exec, opts...),
		ObservingWindows:  NewObservingWindowLoader(exec, opts...),
		clock:             cfg.clock,
	}
}

// Now reads the clock the window loader buckets against.
func (s *Set) Now() time.Time { return s.clock.Now() }

// Dispatch executes every loader's open batch. Call it once the current
// resolution pass has registered all of its loads.
func (s *Set) Dispatch(ctx context.Context) {
	s.Proposals.Dispatch(ctx)
	s.Blocks.Dispatch(ctx)
	s.Observations.Dispatch(ctx)
	s.Investigators.Dispatch(ctx)
	s.PartnerTimeShares.Dispatch(ctx)
	s.ObservingWindows.Dispatch(ctx)
}

// groupBy collects item values per owner key across rows.
func groupBy[O comparable, T any](rows rowstore.Rows, owner func(*rowstore.Decoder) O, item func(*rowstore.Decoder) T) (map[O][]T, error) {
	out := make(map[O][]T)
	for _, row := range rows {
		d := row.Decode()
		o, v := owner(d), item(d)
		if err := d.Err(); err != nil {
			return nil, err
		}
		out[o] = append(out[o], v)
	}
	return out, nil
}

func int64Column(col string) func(*rowstore.Decoder) int64 {
	return func(d *rowstore.Decoder) int64 { return d.Int64(col) }
}

func stringColumn(col string) func(*rowstore.Decoder) string {
	return func(d *rowstore.Decoder) string { return d.String(col) }
}

// orEmpty keeps JSON output as [] rather than null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

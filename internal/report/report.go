// Package report assembles per-proposal observing reports by walking the
// proposal tree through a loaders.Set, one resolution pass per tree level.
package report

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"saltapi/internal/dataloader"
	"saltapi/internal/loaders"
	"saltapi/pkg/domain"
)

// Report is the observing summary of one proposal.
type Report struct {
	Proposal      domain.Proposal           `json:"proposal"`
	Investigators []domain.Investigator     `json:"investigators"`
	PartnerShares []domain.PartnerTimeShare `json:"partner_time_shares"`
	Blocks        []Block                   `json:"blocks"`
	Observations  []domain.Observation      `json:"observations"`
	WindowType    domain.WindowType         `json:"window_type"`
	GeneratedAt   time.Time                 `json:"generated_at"`
}

// Block pairs a block with its observing windows of the report's window type.
type Block struct {
	domain.Block
	Windows domain.BlockObservingWindowBucket `json:"observing_windows"`
}

// pending holds one proposal's futures between resolution passes.
type pending struct {
	proposal      domain.Proposal
	blocks        dataloader.Many[domain.Block]
	investigators dataloader.Many[domain.Investigator]
	shares        dataloader.Many[domain.PartnerTimeShare]
	observations  dataloader.Many[domain.Observation]
	windows       dataloader.Many[domain.BlockObservingWindowBucket]
	report        Report
}

// Build loads the reports for codes, in order. Proposals resolve in one pass;
// blocks, investigators, and partner shares in a second; window buckets and
// observations in a third. Partner shares that do not exist are omitted.
func Build(ctx context.Context, set *loaders.Set, codes []string, windowType domain.WindowType) ([]Report, error) {
	if !windowType.Valid() {
		return nil, fmt.Errorf("unknown window type %q", windowType)
	}
	proposals, err := set.Proposals.LoadMany(codes).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load proposals: %w", err)
	}
	generated := set.Now()

	work := make([]*pending, len(proposals))
	for i, p := range proposals {
		w := &pending{proposal: p}
		w.blocks = set.Blocks.LoadMany(p.BlockIDs)
		w.investigators = set.Investigators.LoadMany(people(p))
		w.shares = set.PartnerTimeShares.LoadMany(shareKeys(p))
		work[i] = w
	}
	set.Dispatch(ctx)

	for _, w := range work {
		code := w.proposal.Code
		blocks, err := w.blocks.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("proposal %s: load blocks: %w", code, err)
		}
		investigators, err := w.investigators.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("proposal %s: load investigators: %w", code, err)
		}
		shares, err := existing(ctx, w.shares)
		if err != nil {
			return nil, fmt.Errorf("proposal %s: load partner time shares: %w", code, err)
		}
		w.report = Report{
			Proposal:      w.proposal,
			Investigators: investigators,
			PartnerShares: shares,
			Blocks:        make([]Block, len(blocks)),
			WindowType:    windowType,
			GeneratedAt:   generated,
		}
		keys := make([]domain.WindowKey, len(blocks))
		for i, b := range blocks {
			w.report.Blocks[i].Block = b
			keys[i] = b.WindowKey(windowType)
		}
		w.windows = set.ObservingWindows.LoadMany(keys)
		w.observations = set.Observations.LoadMany(w.proposal.ObservationIDs)
	}
	set.Dispatch(ctx)

	out := make([]Report, len(work))
	for i, w := range work {
		code := w.proposal.Code
		buckets, err := w.windows.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("proposal %s: load observing windows: %w", code, err)
		}
		for j, b := range buckets {
			w.report.Blocks[j].Windows = b
		}
		if w.report.Observations, err = w.observations.Get(ctx); err != nil {
			return nil, fmt.Errorf("proposal %s: load observations: %w", code, err)
		}
		out[i] = w.report
	}
	return out, nil
}

// people lists the proposal's investigators without duplicates.
func people(p domain.Proposal) []int64 {
	ids := []int64{p.PrincipalInvestigator}
	if !slices.Contains(ids, p.PrincipalContact) {
		ids = append(ids, p.PrincipalContact)
	}
	if p.LiaisonAstronomer != nil && !slices.Contains(ids, *p.LiaisonAstronomer) {
		ids = append(ids, *p.LiaisonAstronomer)
	}
	return ids
}

// shareKeys lists the (partner, semester) pairs the proposal has time from.
func shareKeys(p domain.Proposal) []domain.PartnerSemesterKey {
	var keys []domain.PartnerSemesterKey
	for _, a := range p.TimeAllocations {
		k := domain.PartnerSemesterKey{PartnerCode: a.PartnerCode, Semester: a.Semester}
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func existing[V any](ctx context.Context, m dataloader.Many[V]) ([]V, error) {
	values, errs := m.Results(ctx)
	out := make([]V, 0, len(values))
	for i, err := range errs {
		var nf domain.ErrNotFound
		switch {
		case err == nil:
			out = append(out, values[i])
		case errors.As(err, &nf):
		default:
			return nil, err
		}
	}
	return out, nil
}

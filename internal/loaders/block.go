package loaders

import (
	"context"
	"fmt"

	"saltapi/internal/dataloader"
	"saltapi/internal/infra/rowstore"
	"saltapi/pkg/domain"
)

const blockSQL = `
SELECT b.Block_Id, bc.BlockCode, pc.Proposal_Code, b.Block_Name, bs.BlockStatus,
       b.BlockStatusReason, s.Year, s.Semester, b.ObsTime, b.Priority
FROM Block AS b
JOIN BlockCode AS bc ON b.BlockCode_Id = bc.BlockCode_Id
JOIN BlockStatus AS bs ON b.BlockStatus_Id = bs.BlockStatus_Id
JOIN ProposalCode AS pc ON b.ProposalCode_Id = pc.ProposalCode_Id
JOIN Semester AS s ON b.Semester_Id = s.Semester_Id
WHERE b.Block_Id IN (?)`

const blockVisitsSQL = `
SELECT Block_Id, BlockVisit_Id
FROM BlockVisit
WHERE Block_Id IN (?)
ORDER BY BlockVisit_Id`

// NewBlockLoader returns a loader keyed by block id.
func NewBlockLoader(exec rowstore.Executor, opts ...Option) *dataloader.Loader[int64, domain.Block] {
	cfg := newConfig(opts)
	validate := func(id int64) error { return domain.ValidateID(domain.EntityBlock, id) }
	return dataloader.New(domain.EntityBlock, blockBatch(exec), validate, cfg.loaderOptions()...)
}

func blockBatch(exec rowstore.Executor) dataloader.BatchFunc[int64, domain.Block] {
	return func(ctx context.Context, ids []int64) (map[int64]dataloader.Result[domain.Block], error) {
		params := rowstore.Int64s(ids)
		rows, err := exec.Query(ctx, blockSQL, params)
		if err != nil {
			return nil, fmt.Errorf("select blocks: %w", err)
		}
		visitRows, err := exec.Query(ctx, blockVisitsSQL, params)
		if err != nil {
			return nil, fmt.Errorf("select block visits: %w", err)
		}
		visits, err := groupBy(visitRows, int64Column("Block_Id"), int64Column("BlockVisit_Id"))
		if err != nil {
			return nil, fmt.Errorf("decode block visits: %w", err)
		}

		out := make(map[int64]dataloader.Result[domain.Block], len(rows))
		for _, row := range rows {
			d := row.Decode()
			id := d.Int64("Block_Id")
			if err := d.Err(); err != nil {
				return nil, fmt.Errorf("decode block id: %w", err)
			}
			b, err := decodeBlock(d)
			if err != nil {
				out[id] = dataloader.Fail[domain.Block](fmt.Errorf("block %d: %w", id, err))
				continue
			}
			b.ID = id
			b.ObservingWindows = id
			b.ObservationIDs = orEmpty(visits[id])
			out[id] = dataloader.Ok(b)
		}
		return out, nil
	}
}

func decodeBlock(d *rowstore.Decoder) (domain.Block, error) {
	b := domain.Block{
		Code:         d.String("BlockCode"),
		ProposalCode: d.String("Proposal_Code"),
		Name:         d.String("Block_Name"),
		StatusReason: d.NullString("BlockStatusReason"),
		Semester:     domain.Semester{Year: d.Int("Year"), Half: d.Int("Semester")},
		Length:       d.Int64("ObsTime"),
		Priority:     d.Int("Priority"),
	}
	rawStatus := d.String("BlockStatus")
	if err := d.Err(); err != nil {
		return domain.Block{}, err
	}
	var err error
	if b.Status, err = domain.ParseBlockStatus(rawStatus); err != nil {
		return domain.Block{}, err
	}
	return b, nil
}

package loaders

import (
	"context"
	"fmt"
	"time"

	"saltapi/internal/dataloader"
	"saltapi/internal/infra/rowstore"
	"saltapi/pkg/domain"
)

// Observations are stored as block visits.
const observationSQL = `
SELECT bv.BlockVisit_Id, bv.Block_Id, ni.Date, bvs.BlockVisitStatus, brr.RejectedReason
FROM BlockVisit AS bv
JOIN NightInfo AS ni ON bv.NightInfo_Id = ni.NightInfo_Id
JOIN BlockVisitStatus AS bvs ON bv.BlockVisitStatus_Id = bvs.BlockVisitStatus_Id
LEFT JOIN BlockRejectedReason AS brr ON bv.BlockRejectedReason_Id = brr.BlockRejectedReason_Id
WHERE bv.BlockVisit_Id IN (?)`

// The earliest acquisition tied to a visit marks its start.
const observationStartSQL = `
SELECT BlockVisit_Id, MIN(UTStart) AS StartTime
FROM FileData
WHERE BlockVisit_Id IN (?)
GROUP BY BlockVisit_Id`

// NewObservationLoader returns a loader keyed by block visit id.
func NewObservationLoader(exec rowstore.Executor, opts ...Option) *dataloader.Loader[int64, domain.Observation] {
	cfg := newConfig(opts)
	validate := func(id int64) error { return domain.ValidateID(domain.EntityObservation, id) }
	return dataloader.New(domain.EntityObservation, observationBatch(exec), validate, cfg.loaderOptions()...)
}

func observationBatch(exec rowstore.Executor) dataloader.BatchFunc[int64, domain.Observation] {
	return func(ctx context.Context, ids []int64) (map[int64]dataloader.Result[domain.Observation], error) {
		params := rowstore.Int64s(ids)
		rows, err := exec.Query(ctx, observationSQL, params)
		if err != nil {
			return nil, fmt.Errorf("select observations: %w", err)
		}
		startRows, err := exec.Query(ctx, observationStartSQL, params)
		if err != nil {
			return nil, fmt.Errorf("select observation starts: %w", err)
		}
		starts := make(map[int64]time.Time, len(startRows))
		for _, row := range startRows {
			d := row.Decode()
			id, start := d.Int64("BlockVisit_Id"), d.NullTime("StartTime")
			if err := d.Err(); err != nil {
				return nil, fmt.Errorf("decode observation start: %w", err)
			}
			if start != nil {
				starts[id] = *start
			}
		}

		out := make(map[int64]dataloader.Result[domain.Observation], len(rows))
		for _, row := range rows {
			d := row.Decode()
			id := d.Int64("BlockVisit_Id")
			if err := d.Err(); err != nil {
				return nil, fmt.Errorf("decode observation id: %w", err)
			}
			o, err := decodeObservation(d)
			if err != nil {
				out[id] = dataloader.Fail[domain.Observation](fmt.Errorf("observation %d: %w", id, err))
				continue
			}
			o.ID = id
			if start, ok := starts[id]; ok {
				o.Start = &start
			}
			out[id] = dataloader.Ok(o)
		}
		return out, nil
	}
}

func decodeObservation(d *rowstore.Decoder) (domain.Observation, error) {
	o := domain.Observation{
		BlockID:         d.Int64("Block_Id"),
		RejectionReason: d.NullString("RejectedReason"),
	}
	o.Night = d.Date("Date")
	rawStatus := d.String("BlockVisitStatus")
	if err := d.Err(); err != nil {
		return domain.Observation{}, err
	}
	var err error
	if o.Status, err = domain.ParseObservationStatus(rawStatus); err != nil {
		return domain.Observation{}, err
	}
	return o, nil
}

package loaders

import (
	"context"
	"fmt"
	"slices"

	"saltapi/internal/dataloader"
	"saltapi/internal/infra/rowstore"
	"saltapi/pkg/domain"
)

const observingWindowSQL = `
SELECT bvw.Block_Id, bvw.VisibilityStart, bvw.VisibilityEnd, bvwt.BlockVisibilityWindowType
FROM BlockVisibilityWindow AS bvw
JOIN BlockVisibilityWindowType AS bvwt ON bvw.BlockVisibilityWindowType_Id = bvwt.BlockVisibilityWindowType_Id
WHERE bvw.Block_Id IN (?) AND bvwt.BlockVisibilityWindowType IN (?)`

// NewObservingWindowLoader returns a loader keyed by block id and window
// type. Every valid key resolves to a bucket, empty when the block has no
// windows of that type; the reference instant is read from the configured
// clock once per batch.
func NewObservingWindowLoader(exec rowstore.Executor, opts ...Option) *dataloader.Loader[domain.WindowKey, domain.BlockObservingWindowBucket] {
	cfg := newConfig(opts)
	return dataloader.New(domain.EntityObservingWindow, observingWindowBatch(exec, cfg.clock), domain.ValidateWindowKey, cfg.loaderOptions()...)
}

func observingWindowBatch(exec rowstore.Executor, clock Clock) dataloader.BatchFunc[domain.WindowKey, domain.BlockObservingWindowBucket] {
	return func(ctx context.Context, keys []domain.WindowKey) (map[domain.WindowKey]dataloader.Result[domain.BlockObservingWindowBucket], error) {
		now := clock.Now()
		var blockIDs []int64
		var rawTypes []string
		for _, k := range keys {
			if !slices.Contains(blockIDs, k.BlockID) {
				blockIDs = append(blockIDs, k.BlockID)
			}
			if raw := k.Type.Raw(); !slices.Contains(rawTypes, raw) {
				rawTypes = append(rawTypes, raw)
			}
		}
		rows, err := exec.Query(ctx, observingWindowSQL, rowstore.Int64s(blockIDs), rowstore.Strings(rawTypes))
		if err != nil {
			return nil, fmt.Errorf("select observing windows: %w", err)
		}

		windows := make(map[domain.WindowKey][]domain.ObservingWindow, len(keys))
		// A window row with an unmapped type fails every key of its block.
		broken := make(map[int64]error)
		for _, row := range rows {
			d := row.Decode()
			blockID := d.Int64("Block_Id")
			start, end := d.Time("VisibilityStart"), d.Time("VisibilityEnd")
			rawType := d.String("BlockVisibilityWindowType")
			if err := d.Err(); err != nil {
				return nil, fmt.Errorf("decode observing window: %w", err)
			}
			typ, err := domain.ParseWindowType(rawType)
			if err != nil {
				if _, seen := broken[blockID]; !seen {
					broken[blockID] = fmt.Errorf("observing window of block %d: %w", blockID, err)
				}
				continue
			}
			key := domain.WindowKey{BlockID: blockID, Type: typ}
			windows[key] = append(windows[key], domain.ObservingWindow{
				VisibilityStart: start,
				VisibilityEnd:   end,
				Duration:        int64(end.Sub(start).Seconds()),
				WindowType:      typ,
			})
		}

		out := make(map[domain.WindowKey]dataloader.Result[domain.BlockObservingWindowBucket], len(keys))
		for _, k := range keys {
			if err, ok := broken[k.BlockID]; ok {
				out[k] = dataloader.Fail[domain.BlockObservingWindowBucket](err)
				continue
			}
			out[k] = dataloader.Ok(Bucket(now, windows[k]))
		}
		return out, nil
	}
}

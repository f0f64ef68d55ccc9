package loaders

import (
	"context"
	"fmt"

	"saltapi/internal/dataloader"
	"saltapi/internal/infra/rowstore"
	"saltapi/pkg/domain"
)

const investigatorSQL = `
SELECT Investigator_Id, FirstName, Surname, Email
FROM Investigator
WHERE Investigator_Id IN (?)`

// NewInvestigatorLoader returns a loader keyed by investigator id.
func NewInvestigatorLoader(exec rowstore.Executor, opts ...Option) *dataloader.Loader[int64, domain.Investigator] {
	cfg := newConfig(opts)
	validate := func(id int64) error { return domain.ValidateID(domain.EntityInvestigator, id) }
	return dataloader.New(domain.EntityInvestigator, investigatorBatch(exec), validate, cfg.loaderOptions()...)
}

func investigatorBatch(exec rowstore.Executor) dataloader.BatchFunc[int64, domain.Investigator] {
	return func(ctx context.Context, ids []int64) (map[int64]dataloader.Result[domain.Investigator], error) {
		rows, err := exec.Query(ctx, investigatorSQL, rowstore.Int64s(ids))
		if err != nil {
			return nil, fmt.Errorf("select investigators: %w", err)
		}
		out := make(map[int64]dataloader.Result[domain.Investigator], len(rows))
		for _, row := range rows {
			d := row.Decode()
			inv := domain.Investigator{
				ID:         d.Int64("Investigator_Id"),
				GivenName:  d.String("FirstName"),
				FamilyName: d.String("Surname"),
				Email:      d.NullString("Email"),
			}
			if err := d.Err(); err != nil {
				return nil, fmt.Errorf("decode investigator: %w", err)
			}
			out[inv.ID] = dataloader.Ok(inv)
		}
		return out, nil
	}
}

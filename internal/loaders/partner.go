package loaders

import (
	"context"
	"fmt"
	"slices"

	"saltapi/internal/dataloader"
	"saltapi/internal/infra/rowstore"
	"saltapi/pkg/domain"
)

// Filtering by partner code and year over-fetches; rows are matched to the
// exact (partner, semester) keys afterwards.
const partnerTimeShareSQL = `
SELECT partner.Partner_Code, pst.SharePercent, s.Year, s.Semester
FROM PartnerShareTimeDist AS pst
JOIN Semester AS s ON pst.Semester_Id = s.Semester_Id
JOIN Partner AS partner ON pst.Partner_Id = partner.Partner_Id
WHERE partner.Partner_Code IN (?) AND s.Year IN (?)`

// NewPartnerTimeShareLoader returns a loader keyed by partner code and semester.
func NewPartnerTimeShareLoader(exec rowstore.Executor, opts ...Option) *dataloader.Loader[domain.PartnerSemesterKey, domain.PartnerTimeShare] {
	cfg := newConfig(opts)
	return dataloader.New(domain.EntityPartnerTimeShare, partnerTimeShareBatch(exec), domain.ValidatePartnerSemesterKey, cfg.loaderOptions()...)
}

func partnerTimeShareBatch(exec rowstore.Executor) dataloader.BatchFunc[domain.PartnerSemesterKey, domain.PartnerTimeShare] {
	return func(ctx context.Context, keys []domain.PartnerSemesterKey) (map[domain.PartnerSemesterKey]dataloader.Result[domain.PartnerTimeShare], error) {
		wanted := make(map[domain.PartnerSemesterKey]bool, len(keys))
		var codes []string
		var years []int
		for _, k := range keys {
			wanted[k] = true
			if !slices.Contains(codes, k.PartnerCode) {
				codes = append(codes, k.PartnerCode)
			}
			if !slices.Contains(years, k.Semester.Year) {
				years = append(years, k.Semester.Year)
			}
		}
		rows, err := exec.Query(ctx, partnerTimeShareSQL, rowstore.Strings(codes), rowstore.Ints(years))
		if err != nil {
			return nil, fmt.Errorf("select partner time shares: %w", err)
		}
		out := make(map[domain.PartnerSemesterKey]dataloader.Result[domain.PartnerTimeShare], len(keys))
		for _, row := range rows {
			d := row.Decode()
			share := domain.PartnerTimeShare{
				PartnerCode:  d.String("Partner_Code"),
				SharePercent: d.Float64("SharePercent"),
				Semester:     domain.Semester{Year: d.Int("Year"), Half: d.Int("Semester")},
			}
			if err := d.Err(); err != nil {
				return nil, fmt.Errorf("decode partner time share: %w", err)
			}
			key := domain.PartnerSemesterKey{PartnerCode: share.PartnerCode, Semester: share.Semester}
			if wanted[key] {
				out[key] = dataloader.Ok(share)
			}
		}
		return out, nil
	}
}

package loaders

import (
	"context"
	"fmt"

	"saltapi/internal/dataloader"
	"saltapi/internal/infra/rowstore"
	"saltapi/pkg/domain"
)

// Only the current text revision of a proposal is selected.
const proposalSQL = `
SELECT pc.Proposal_Code, pt.Title, ptype.ProposalType, ps.Status, pgi.StatusComment,
       pir.InactiveReason, con.Leader_Id, con.Contact_Id, con.Astronomer_Id
FROM Proposal AS p
JOIN ProposalCode AS pc ON p.ProposalCode_Id = pc.ProposalCode_Id
JOIN ProposalText AS pt ON pt.ProposalCode_Id = p.ProposalCode_Id AND pt.Semester_Id = p.Semester_Id
JOIN ProposalGeneralInfo AS pgi ON pgi.ProposalCode_Id = p.ProposalCode_Id
JOIN ProposalType AS ptype ON pgi.ProposalType_Id = ptype.ProposalType_Id
JOIN ProposalStatus AS ps ON pgi.ProposalStatus_Id = ps.ProposalStatus_Id
LEFT JOIN ProposalInactiveReason AS pir ON pgi.ProposalInactiveReason_Id = pir.ProposalInactiveReason_Id
JOIN ProposalContact AS con ON con.ProposalCode_Id = p.ProposalCode_Id
WHERE p.Current = 1 AND pc.Proposal_Code IN (?)`

const proposalBlocksSQL = `
SELECT pc.Proposal_Code, b.Block_Id
FROM Block AS b
JOIN ProposalCode AS pc ON b.ProposalCode_Id = pc.ProposalCode_Id
JOIN BlockStatus AS bs ON b.BlockStatus_Id = bs.BlockStatus_Id
WHERE pc.Proposal_Code IN (?) AND bs.BlockStatus IN (?)
ORDER BY b.Block_Id`

const proposalVisitsSQL = `
SELECT pc.Proposal_Code, bv.BlockVisit_Id
FROM BlockVisit AS bv
JOIN Block AS b ON bv.Block_Id = b.Block_Id
JOIN ProposalCode AS pc ON b.ProposalCode_Id = pc.ProposalCode_Id
WHERE pc.Proposal_Code IN (?)
ORDER BY bv.BlockVisit_Id`

const proposalAllocationsSQL = `
SELECT pc.Proposal_Code, pa.Priority, s.Year, s.Semester, partner.Partner_Code, pa.TimeAlloc
FROM PriorityAlloc AS pa
JOIN MultiPartner AS mp ON pa.MultiPartner_Id = mp.MultiPartner_Id
JOIN ProposalCode AS pc ON mp.ProposalCode_Id = pc.ProposalCode_Id
JOIN Semester AS s ON mp.Semester_Id = s.Semester_Id
JOIN Partner AS partner ON mp.Partner_Id = partner.Partner_Id
WHERE pc.Proposal_Code IN (?) AND pa.TimeAlloc > 0
ORDER BY s.Year, s.Semester, partner.Partner_Code, pa.Priority`

// proposalBlockStatuses are the block states listed in a proposal's block set.
// Blocks in other states remain loadable by id.
var proposalBlockStatuses = []string{
	domain.BlockStatusActive.Raw(),
	domain.BlockStatusCompleted.Raw(),
	domain.BlockStatusOnHold.Raw(),
}

// NewProposalLoader returns a loader keyed by proposal code.
func NewProposalLoader(exec rowstore.Executor, opts ...Option) *dataloader.Loader[string, domain.Proposal] {
	cfg := newConfig(opts)
	return dataloader.New(domain.EntityProposal, proposalBatch(exec), domain.ValidateProposalCode, cfg.loaderOptions()...)
}

func proposalBatch(exec rowstore.Executor) dataloader.BatchFunc[string, domain.Proposal] {
	return func(ctx context.Context, codes []string) (map[string]dataloader.Result[domain.Proposal], error) {
		params := rowstore.Strings(codes)
		general, err := exec.Query(ctx, proposalSQL, params)
		if err != nil {
			return nil, fmt.Errorf("select proposals: %w", err)
		}
		blockRows, err := exec.Query(ctx, proposalBlocksSQL, params, rowstore.Strings(proposalBlockStatuses))
		if err != nil {
			return nil, fmt.Errorf("select proposal blocks: %w", err)
		}
		visitRows, err := exec.Query(ctx, proposalVisitsSQL, params)
		if err != nil {
			return nil, fmt.Errorf("select proposal visits: %w", err)
		}
		allocRows, err := exec.Query(ctx, proposalAllocationsSQL, params)
		if err != nil {
			return nil, fmt.Errorf("select proposal time allocations: %w", err)
		}

		blocks, err := groupBy(blockRows, stringColumn("Proposal_Code"), int64Column("Block_Id"))
		if err != nil {
			return nil, fmt.Errorf("decode proposal blocks: %w", err)
		}
		visits, err := groupBy(visitRows, stringColumn("Proposal_Code"), int64Column("BlockVisit_Id"))
		if err != nil {
			return nil, fmt.Errorf("decode proposal visits: %w", err)
		}
		allocations, err := groupBy(allocRows, stringColumn("Proposal_Code"), decodeTimeAllocation)
		if err != nil {
			return nil, fmt.Errorf("decode proposal time allocations: %w", err)
		}

		out := make(map[string]dataloader.Result[domain.Proposal], len(general))
		for _, row := range general {
			d := row.Decode()
			code := d.String("Proposal_Code")
			if err := d.Err(); err != nil {
				return nil, fmt.Errorf("decode proposal code: %w", err)
			}
			p, err := decodeProposal(d)
			if err != nil {
				out[code] = dataloader.Fail[domain.Proposal](fmt.Errorf("proposal %s: %w", code, err))
				continue
			}
			p.Code = code
			p.BlockIDs = orEmpty(blocks[code])
			p.ObservationIDs = orEmpty(visits[code])
			p.TimeAllocations = orEmpty(allocations[code])
			out[code] = dataloader.Ok(p)
		}
		return out, nil
	}
}

func decodeProposal(d *rowstore.Decoder) (domain.Proposal, error) {
	p := domain.Proposal{
		Title:                 d.String("Title"),
		StatusComment:         d.NullString("StatusComment"),
		PrincipalInvestigator: d.Int64("Leader_Id"),
		PrincipalContact:      d.Int64("Contact_Id"),
		LiaisonAstronomer:     d.NullInt64("Astronomer_Id"),
	}
	rawType, rawStatus, rawReason := d.String("ProposalType"), d.String("Status"), d.NullString("InactiveReason")
	if err := d.Err(); err != nil {
		return domain.Proposal{}, err
	}
	var err error
	if p.Type, err = domain.ParseProposalType(rawType); err != nil {
		return domain.Proposal{}, err
	}
	if p.Status, err = domain.ParseProposalStatus(rawStatus); err != nil {
		return domain.Proposal{}, err
	}
	if rawReason != nil {
		if p.InactiveReason, err = domain.ParseProposalInactiveReason(*rawReason); err != nil {
			return domain.Proposal{}, err
		}
	}
	return p, nil
}

func decodeTimeAllocation(d *rowstore.Decoder) domain.TimeAllocation {
	return domain.TimeAllocation{
		Priority:    d.Int("Priority"),
		Semester:    domain.Semester{Year: d.Int("Year"), Half: d.Int("Semester")},
		PartnerCode: d.String("Partner_Code"),
		Seconds:     d.Int64("TimeAlloc"),
	}
}

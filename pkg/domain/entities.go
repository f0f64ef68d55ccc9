// Package domain defines the read-only records, keys, and closed enumerations
// served by the SALT proposal query layer.
package domain

import "time"

// EntityType identifies the kind of record a loader resolves.
type EntityType string

// Supported entity identifiers used in errors, metrics, and log fields.
const (
	// EntityProposal identifies a proposal keyed by its proposal code.
	EntityProposal EntityType = "proposal"
	// EntityBlock identifies a block keyed by its numeric id.
	EntityBlock EntityType = "block"
	// EntityObservation identifies a block visit keyed by its numeric id.
	EntityObservation EntityType = "observation"
	// EntityInvestigator identifies an investigator keyed by its numeric id.
	EntityInvestigator EntityType = "investigator"
	// EntityPartnerTimeShare identifies a partner's share of telescope time in a semester.
	EntityPartnerTimeShare EntityType = "partner_time_share"
	// EntityObservingWindow identifies a block's window bucket for one window type.
	EntityObservingWindow EntityType = "observing_window"
)

// Proposal is a snapshot of a proposal assembled for a single query.
type Proposal struct {
	Code                  string                  `json:"proposal_code"`
	Title                 string                  `json:"title"`
	Type                  ProposalType            `json:"type"`
	Status                *ProposalStatus         `json:"status,omitempty"`
	StatusComment         *string                 `json:"status_comment,omitempty"`
	InactiveReason        *ProposalInactiveReason `json:"inactive_reason,omitempty"`
	PrincipalInvestigator int64                   `json:"principal_investigator"`
	PrincipalContact      int64                   `json:"principal_contact"`
	LiaisonAstronomer     *int64                  `json:"liaison_astronomer,omitempty"`
	BlockIDs              []int64                 `json:"blocks"`
	ObservationIDs        []int64                 `json:"observations"`
	TimeAllocations       []TimeAllocation        `json:"time_allocations"`
}

// Block is the smallest independently schedulable unit of a proposal.
//
// ObservingWindows carries the block's own id and is the addressing key for a
// window bucket request; the block itself never computes its windows.
type Block struct {
	ID               int64        `json:"id"`
	Code             string       `json:"block_code"`
	ProposalCode     string       `json:"proposal"`
	Name             string       `json:"name"`
	Status           *BlockStatus `json:"status,omitempty"`
	StatusReason     *string      `json:"status_reason,omitempty"`
	Semester         Semester     `json:"semester"`
	Length           int64        `json:"length"`
	Priority         int          `json:"priority"`
	ObservationIDs   []int64      `json:"observations"`
	ObservingWindows int64        `json:"-"`
}

// WindowKey returns the key addressing this block's bucket for the window type.
func (b Block) WindowKey(t WindowType) WindowKey {
	return WindowKey{BlockID: b.ObservingWindows, Type: t}
}

// Observation is one realized attempt (a block visit) to carry out a block.
type Observation struct {
	ID              int64              `json:"id"`
	BlockID         int64              `json:"block"`
	Night           time.Time          `json:"night"`
	Start           *time.Time         `json:"start,omitempty"`
	Status          *ObservationStatus `json:"status,omitempty"`
	RejectionReason *string            `json:"rejection_reason,omitempty"`
}

// Investigator is a person named on proposals.
type Investigator struct {
	ID         int64   `json:"id"`
	GivenName  string  `json:"given_name"`
	FamilyName string  `json:"family_name"`
	Email      *string `json:"email,omitempty"`
}

// PartnerTimeShare is a partner's percentage of the available time in a semester.
type PartnerTimeShare struct {
	PartnerCode  string   `json:"partner_code"`
	SharePercent float64  `json:"share_percent"`
	Semester     Semester `json:"semester"`
}

// TimeAllocation is the time a partner allocated to a proposal at one priority.
type TimeAllocation struct {
	Priority    int      `json:"priority"`
	Semester    Semester `json:"semester"`
	PartnerCode string   `json:"partner_code"`
	Seconds     int64    `json:"amount"`
}

// ObservingWindow is a contiguous interval during which a block's target is visible.
type ObservingWindow struct {
	VisibilityStart time.Time  `json:"visibility_start"`
	VisibilityEnd   time.Time  `json:"visibility_end"`
	Duration        int64      `json:"duration"`
	WindowType      WindowType `json:"window_type"`
}

// BlockObservingWindowBucket partitions a block's windows relative to a fixed now.
// Each slice is sorted ascending by visibility start.
type BlockObservingWindowBucket struct {
	Past    []ObservingWindow `json:"past_windows"`
	Tonight []ObservingWindow `json:"tonights_windows"`
	Future  []ObservingWindow `json:"future_windows"`
}

// Len returns the number of windows across all three buckets.
func (b BlockObservingWindowBucket) Len() int {
	return len(b.Past) + len(b.Tonight) + len(b.Future)
}

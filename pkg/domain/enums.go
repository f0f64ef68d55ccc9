package domain

import "strings"

// notSet is the raw status text the database uses for "no status".
const notSet = "not set"

// ProposalStatus enumerates proposal workflow states.
type ProposalStatus string

// Proposal statuses.
const (
	ProposalStatusAccepted              ProposalStatus = "accepted"
	ProposalStatusActive                ProposalStatus = "active"
	ProposalStatusCompleted             ProposalStatus = "completed"
	ProposalStatusDeleted               ProposalStatus = "deleted"
	ProposalStatusExpired               ProposalStatus = "expired"
	ProposalStatusInPreparation         ProposalStatus = "in_preparation"
	ProposalStatusInactive              ProposalStatus = "inactive"
	ProposalStatusRejected              ProposalStatus = "rejected"
	ProposalStatusSuperseded            ProposalStatus = "superseded"
	ProposalStatusUnderScientificReview ProposalStatus = "under_scientific_review"
	ProposalStatusUnderTechnicalReview  ProposalStatus = "under_technical_review"
)

// ProposalType enumerates proposal categories.
type ProposalType string

// Proposal types.
const (
	ProposalTypeCommissioning             ProposalType = "commissioning"
	ProposalTypeDirectorDiscretionaryTime ProposalType = "director_discretionary_time"
	ProposalTypeEngineering               ProposalType = "engineering"
	ProposalTypeGravitationalWaveEvent    ProposalType = "gravitational_wave_event"
	ProposalTypeKeyScienceProgram         ProposalType = "key_science_program"
	ProposalTypeLargeScienceProposal      ProposalType = "large_science_proposal"
	ProposalTypeScience                   ProposalType = "science"
	ProposalTypeScienceLongTerm           ProposalType = "science_long_term"
	ProposalTypeScienceVerification       ProposalType = "science_verification"
)

// ProposalInactiveReason explains why a proposal is inactive.
type ProposalInactiveReason string

// Inactive reasons.
const (
	InactiveAwaitingPIInitiation             ProposalInactiveReason = "awaiting_pi_initiation"
	InactiveOther                            ProposalInactiveReason = "other"
	InactiveTargetNotVisible                 ProposalInactiveReason = "target_not_visible"
	InactiveUndoable                         ProposalInactiveReason = "undoable"
	InactiveWaitingForFeedback               ProposalInactiveReason = "waiting_for_feedback"
	InactiveWaitingForInstrumentAvailability ProposalInactiveReason = "waiting_for_instrument_availability"
)

// BlockStatus enumerates block states. An absent status ("Not set" in the
// database) is represented by a nil *BlockStatus.
type BlockStatus string

// Block statuses.
const (
	BlockStatusActive     BlockStatus = "active"
	BlockStatusCompleted  BlockStatus = "completed"
	BlockStatusDeleted    BlockStatus = "deleted"
	BlockStatusExpired    BlockStatus = "expired"
	BlockStatusOnHold     BlockStatus = "on_hold"
	BlockStatusSuperseded BlockStatus = "superseded"
)

// ObservationStatus enumerates block visit states.
type ObservationStatus string

// Observation statuses.
const (
	ObservationStatusAccepted ObservationStatus = "accepted"
	ObservationStatusDeleted  ObservationStatus = "deleted"
	ObservationStatusInQueue  ObservationStatus = "in_queue"
	ObservationStatusRejected ObservationStatus = "rejected"
)

// WindowType qualifies how tightly visibility constraints were met.
type WindowType string

// Window types.
const (
	// WindowStrict means the Moon has the requested brightness for the whole window.
	WindowStrict WindowType = "strict"
	// WindowExtended means the Moon is brighter than requested during the window.
	WindowExtended WindowType = "extended"
	// WindowStrictExtended means the window is strict in part and extended in part.
	WindowStrictExtended WindowType = "strict_extended"
)

// enumMapping is a finite mapping from raw database text to a closed enumeration.
type enumMapping[T ~string] struct {
	kind   string
	values map[string]T
	raw    map[T]string
}

func newEnumMapping[T ~string](kind string, pairs map[string]T) enumMapping[T] {
	m := enumMapping[T]{kind: kind, values: make(map[string]T, len(pairs)), raw: make(map[T]string, len(pairs))}
	for text, v := range pairs {
		m.values[strings.ToLower(text)] = v
		m.raw[v] = text
	}
	return m
}

// parse maps raw text onto the enumeration. The literal "not set" (any case)
// yields nil; unmapped text yields an UnrecognizedValueError.
func (m enumMapping[T]) parse(raw string) (*T, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == notSet {
		return nil, nil
	}
	v, ok := m.values[key]
	if !ok {
		return nil, UnrecognizedValueError{Kind: m.kind, Value: raw}
	}
	return &v, nil
}

// required is parse for columns where absence is itself unrecognized.
func (m enumMapping[T]) required(raw string) (T, error) {
	v, err := m.parse(raw)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", UnrecognizedValueError{Kind: m.kind, Value: raw}
	}
	return *v, nil
}

var (
	proposalStatuses = newEnumMapping("proposal status", map[string]ProposalStatus{
		"Accepted":                ProposalStatusAccepted,
		"Active":                  ProposalStatusActive,
		"Completed":               ProposalStatusCompleted,
		"Deleted":                 ProposalStatusDeleted,
		"Expired":                 ProposalStatusExpired,
		"In preparation":          ProposalStatusInPreparation,
		"Inactive":                ProposalStatusInactive,
		"Rejected":                ProposalStatusRejected,
		"Superseded":              ProposalStatusSuperseded,
		"Under scientific review": ProposalStatusUnderScientificReview,
		"Under technical review":  ProposalStatusUnderTechnicalReview,
	})
	proposalTypes = newEnumMapping("proposal type", map[string]ProposalType{
		"Commissioning":                     ProposalTypeCommissioning,
		"Director Discretionary Time (DDT)": ProposalTypeDirectorDiscretionaryTime,
		"Engineering":                       ProposalTypeEngineering,
		"Gravitational Wave Event":          ProposalTypeGravitationalWaveEvent,
		"Key Science Program":               ProposalTypeKeyScienceProgram,
		"Large Science Proposal":            ProposalTypeLargeScienceProposal,
		"Science":                           ProposalTypeScience,
		"Science - Long Term":               ProposalTypeScienceLongTerm,
		"Science Verification":              ProposalTypeScienceVerification,
	})
	inactiveReasons = newEnumMapping("proposal inactive reason", map[string]ProposalInactiveReason{
		"ToO, awaiting PI initiation":         InactiveAwaitingPIInitiation,
		"Other":                               InactiveOther,
		"Target not visible":                  InactiveTargetNotVisible,
		"Undoable":                            InactiveUndoable,
		"Waiting for feedback":                InactiveWaitingForFeedback,
		"Waiting for instrument availability": InactiveWaitingForInstrumentAvailability,
	})
	blockStatuses = newEnumMapping("block status", map[string]BlockStatus{
		"Active":     BlockStatusActive,
		"Completed":  BlockStatusCompleted,
		"Deleted":    BlockStatusDeleted,
		"Expired":    BlockStatusExpired,
		"On Hold":    BlockStatusOnHold,
		"Superseded": BlockStatusSuperseded,
	})
	observationStatuses = newEnumMapping("observation status", map[string]ObservationStatus{
		"Accepted": ObservationStatusAccepted,
		"Deleted":  ObservationStatusDeleted,
		"In queue": ObservationStatusInQueue,
		"Rejected": ObservationStatusRejected,
	})
	windowTypes = newEnumMapping("window type", map[string]WindowType{
		"Strict":          WindowStrict,
		"Extended":        WindowExtended,
		"Strict+Extended": WindowStrictExtended,
	})
)

// ParseProposalStatus maps a raw proposal status column.
func ParseProposalStatus(raw string) (*ProposalStatus, error) { return proposalStatuses.parse(raw) }

// ParseProposalType maps a raw proposal type column. A proposal always has a type.
func ParseProposalType(raw string) (ProposalType, error) { return proposalTypes.required(raw) }

// ParseProposalInactiveReason maps a raw inactive reason column.
func ParseProposalInactiveReason(raw string) (*ProposalInactiveReason, error) {
	return inactiveReasons.parse(raw)
}

// ParseBlockStatus maps a raw block status column.
func ParseBlockStatus(raw string) (*BlockStatus, error) { return blockStatuses.parse(raw) }

// ParseObservationStatus maps a raw block visit status column.
func ParseObservationStatus(raw string) (*ObservationStatus, error) {
	return observationStatuses.parse(raw)
}

// ParseWindowType maps a raw window type column.
func ParseWindowType(raw string) (WindowType, error) { return windowTypes.required(raw) }

// Raw returns the database text for the window type, e.g. "Strict+Extended".
func (t WindowType) Raw() string { return windowTypes.raw[t] }

// Valid reports whether t is one of the known window types.
func (t WindowType) Valid() bool {
	_, ok := windowTypes.raw[t]
	return ok
}

// Raw returns the database text for the block status, e.g. "On Hold".
func (s BlockStatus) Raw() string { return blockStatuses.raw[s] }

// WindowTypes lists every window type in a stable order.
func WindowTypes() []WindowType {
	return []WindowType{WindowStrict, WindowExtended, WindowStrictExtended}
}

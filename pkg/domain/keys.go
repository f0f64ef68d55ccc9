package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var proposalCodePattern = regexp.MustCompile(`^\d{4}-[12]-[A-Z]+-\d{3}$`)

// PartnerSemesterKey addresses a partner's time share in one semester.
type PartnerSemesterKey struct {
	PartnerCode string
	Semester    Semester
}

func (k PartnerSemesterKey) String() string {
	return fmt.Sprintf("%s/%s", k.PartnerCode, k.Semester)
}

// WindowKey addresses a block's observing-window bucket for one window type.
type WindowKey struct {
	BlockID int64
	Type    WindowType
}

func (k WindowKey) String() string {
	return fmt.Sprintf("%d/%s", k.BlockID, k.Type)
}

// ValidateProposalCode checks codes of the form 2018-2-SCI-042.
func ValidateProposalCode(code string) error {
	if !proposalCodePattern.MatchString(code) {
		return ValidationError{Entity: EntityProposal, Key: code, Reason: "expected a code like 2018-2-SCI-042"}
	}
	return nil
}

// ValidateID checks that a numeric id is positive.
func ValidateID(entity EntityType, id int64) error {
	if id <= 0 {
		return ValidationError{Entity: entity, Key: id, Reason: "id must be positive"}
	}
	return nil
}

// ValidatePartnerSemesterKey checks the partner code and semester.
func ValidatePartnerSemesterKey(k PartnerSemesterKey) error {
	code := strings.TrimSpace(k.PartnerCode)
	switch {
	case code == "":
		return ValidationError{Entity: EntityPartnerTimeShare, Key: k, Reason: "partner code required"}
	case code != strings.ToUpper(code) || code != k.PartnerCode:
		return ValidationError{Entity: EntityPartnerTimeShare, Key: k, Reason: "partner code must be upper case without padding"}
	case !k.Semester.Valid():
		return ValidationError{Entity: EntityPartnerTimeShare, Key: k, Reason: "semester must have a positive year and half 1 or 2"}
	}
	return nil
}

// ValidateWindowKey checks the block id and window type.
func ValidateWindowKey(k WindowKey) error {
	if k.BlockID <= 0 {
		return ValidationError{Entity: EntityObservingWindow, Key: k, Reason: "block id must be positive"}
	}
	if !k.Type.Valid() {
		return ValidationError{Entity: EntityObservingWindow, Key: k, Reason: "unknown window type"}
	}
	return nil
}

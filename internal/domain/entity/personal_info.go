package entity

import (
	"errors"
	"fmt"
	"time"
)

// FilingStatus is the federal filing status. The zero value means unset.
type FilingStatus string

const (
	FilingStatusUnset           FilingStatus = ""
	FilingStatusSingle          FilingStatus = "single"
	FilingStatusMarriedJoint    FilingStatus = "married_joint"
	FilingStatusMarriedSeparate FilingStatus = "married_separate"
	FilingStatusHeadOfHousehold FilingStatus = "head_of_household"
	FilingStatusWidow           FilingStatus = "widow"
)

var validFilingStatuses = map[FilingStatus]bool{
	FilingStatusSingle:          true,
	FilingStatusMarriedJoint:    true,
	FilingStatusMarriedSeparate: true,
	FilingStatusHeadOfHousehold: true,
	FilingStatusWidow:           true,
}

var (
	ErrFilingStatusRequired = errors.New("filing status is required")
	ErrInvalidFilingStatus  = errors.New("invalid filing status")
	ErrNegativeDependents   = errors.New("dependent counts must not be negative")
)

// IsValid returns true for every status except unset and unknown values
func (s FilingStatus) IsValid() bool {
	return validFilingStatuses[s]
}

// IsSet returns true if a status was chosen
func (s FilingStatus) IsSet() bool {
	return s != FilingStatusUnset
}

func (s FilingStatus) String() string {
	return string(s)
}

// ParseFilingStatus converts user input into a FilingStatus
func ParseFilingStatus(raw string) (FilingStatus, error) {
	s := FilingStatus(raw)
	if !s.IsSet() {
		return FilingStatusUnset, ErrFilingStatusRequired
	}
	if !s.IsValid() {
		return FilingStatusUnset, fmt.Errorf("%w: %q", ErrInvalidFilingStatus, raw)
	}
	return s, nil
}

// PersonalInfo holds the filer attributes used by the tax computation.
// A later commit fully replaces the prior value.
type PersonalInfo struct {
	FilingStatus      FilingStatus `json:"filingStatus"`
	DependentChildren int          `json:"dependentChildren"`
	OtherDependents   int          `json:"otherDependents"`
	UpdatedAt         time.Time    `json:"-"`
}

// Validate checks that the info can be committed
func (p PersonalInfo) Validate() error {
	if !p.FilingStatus.IsSet() {
		return ErrFilingStatusRequired
	}
	if !p.FilingStatus.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFilingStatus, p.FilingStatus)
	}
	if p.DependentChildren < 0 || p.OtherDependents < 0 {
		return ErrNegativeDependents
	}
	return nil
}

// DefaultPersonalInfo is used for computation when nothing was committed
func DefaultPersonalInfo() PersonalInfo {
	return PersonalInfo{FilingStatus: FilingStatusSingle}
}

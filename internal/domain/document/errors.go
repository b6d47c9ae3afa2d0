package document

import (
	"errors"
	"fmt"

	"github.com/autodealer/backend/internal/domain/shared"
)

// Sentinel errors of the document ledger
var (
	// ErrSnapshotMissing is permanent: the document cannot be regenerated faithfully
	ErrSnapshotMissing = shared.NewDomainError("SNAPSHOT_MISSING", "Document has no vehicle or client snapshot and cannot be regenerated")

	// ErrMissingRegistrationPlate blocks administrative certificates for unregistered vehicles
	ErrMissingRegistrationPlate = &shared.DomainError{
		Code:    "MISSING_REGISTRATION_PLATE",
		Message: "Administrative certificates require a vehicle registration plate",
		Field:   "registration_plate",
	}

	// ErrAllocationConflict signals a lost race on a sequence; allocation may be retried
	ErrAllocationConflict = errors.New("document number allocation conflict")

	// ErrAllocationOutcomeUnknown means the increment may have been applied before
	// the allocator lost track of it; a number may have been consumed. Never retried.
	ErrAllocationOutcomeUnknown = errors.New("document number allocation outcome unknown")

	// ErrDuplicateNumber is returned by repositories when (prefix, year, sequence) is already taken
	ErrDuplicateNumber = errors.New("document number already exists")
)

// AllocationError is returned when no number could be allocated.
// No document number was consumed by the failed call.
type AllocationError struct {
	Prefix   string
	Year     int
	Attempts int
	Cause    error
}

// Error implements the error interface
func (e *AllocationError) Error() string {
	return fmt.Sprintf("could not allocate a %s number for %d after %d attempt(s): %v", e.Prefix, e.Year, e.Attempts, e.Cause)
}

// Unwrap returns the underlying cause
func (e *AllocationError) Unwrap() error {
	return e.Cause
}

// UncertainAllocation is returned when the allocator failed after the increment
// may have reached the sequence. A number may have been consumed without a
// document; the register must be checked before the sale is issued again.
type UncertainAllocation struct {
	Prefix string
	Year   int
	Cause  error
}

// Error implements the error interface
func (e *UncertainAllocation) Error() string {
	return fmt.Sprintf("a %s number for %d may have been consumed without a document; check the register before retrying: %v", e.Prefix, e.Year, e.Cause)
}

// Unwrap returns the underlying cause
func (e *UncertainAllocation) Unwrap() error {
	return e.Cause
}

// PersistenceFailure is returned when a number was allocated but the document
// could not be saved. The number is burned and tied to a void record when possible.
type PersistenceFailure struct {
	Number       Number
	Formatted    string
	VoidRecorded bool
	Cause        error
}

// Error implements the error interface
func (e *PersistenceFailure) Error() string {
	return fmt.Sprintf("document number %s issued but not saved; contact support: %v", e.Formatted, e.Cause)
}

// Unwrap returns the underlying cause
func (e *PersistenceFailure) Unwrap() error {
	return e.Cause
}

// NumberConsumed reports whether err means a document number was used up.
// It separates "nothing happened, fix input and retry" from "a number was consumed".
func NumberConsumed(err error) bool {
	var pf *PersistenceFailure
	return errors.As(err, &pf)
}

// NumberMaybeConsumed reports whether err leaves it unknown if a number was used up
func NumberMaybeConsumed(err error) bool {
	var ua *UncertainAllocation
	return errors.As(err, &ua)
}

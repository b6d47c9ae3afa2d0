package document

// Status represents the lifecycle of a document
type Status string

const (
	StatusDraft     Status = "draft"
	StatusFinalized Status = "finalized"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusFinalized, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status.
// Status only moves forward: draft -> finalized -> cancelled, or draft -> cancelled.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusFinalized || target == StatusCancelled
	case StatusFinalized:
		return target == StatusCancelled
	case StatusCancelled:
		return false
	}
	return false
}

package elevationprofile

import "fmt"

// A BoundsError indicates that a cell, an interpolation neighborhood, or a
// buffer index falls outside the extent of the grid or profile it refers to.
type BoundsError struct {
	What string
	Min  int
	Max  int
	Got  int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s %d outside [%d, %d]", e.What, e.Got, e.Min, e.Max)
}

// An InvariantViolationError indicates a fatal internal contract breach, such
// as two brunnel intervals covering the same profile sample after merging.
type InvariantViolationError struct {
	Message string
}

func (e *InvariantViolationError) Error() string {
	return "invariant violation: " + e.Message
}

// A DomainError indicates degenerate input: a zero-length path, non-monotonic
// distances, a zero run between consecutive samples, or a window larger than
// the profile.
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return "domain error: " + e.Message
}

// A ReferenceMismatchError indicates that two inputs are in different
// coordinate reference systems. Reprojection is the caller's responsibility.
type ReferenceMismatchError struct {
	Want int
	Got  int
}

func (e *ReferenceMismatchError) Error() string {
	return fmt.Sprintf("coordinate reference mismatch: EPSG:%d != EPSG:%d", e.Got, e.Want)
}

func invariantViolationf(format string, args ...any) error {
	return &InvariantViolationError{Message: fmt.Sprintf(format, args...)}
}

func domainErrorf(format string, args ...any) error {
	return &DomainError{Message: fmt.Sprintf(format, args...)}
}

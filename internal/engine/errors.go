package engine

import "fmt"

// ValidationError reports a malformed or out-of-range request parameter.
// It is returned before any simulation work starts; a run never produces
// partial results alongside one.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientDataError reports a price series too short for the requested
// SMA period. No fallback result is synthesized.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least %d price points, have %d", e.Need, e.Have)
}

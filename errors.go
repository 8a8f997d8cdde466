package rntuple

import (
	"errors"

	"github.com/segmentio/rntuple-go/profile"
)

var (
	// ErrOrderViolation is returned when a field description references a
	// parent field which does not appear before it in the description array.
	ErrOrderViolation = errors.New("field parent has not been constructed")

	// ErrStructuralInconsistency is returned when a column, alias column or
	// page list references a field or column which does not exist.
	ErrStructuralInconsistency = errors.New("dangling schema reference")

	// ErrMalformedFlags is returned when a description sets a flag without
	// carrying the data that the flag announces.
	ErrMalformedFlags = errors.New("malformed flags")

	// ErrUnsupportedLayout is returned for RNTuples with more than one
	// cluster group.
	ErrUnsupportedLayout = errors.New("unsupported layout")

	// ErrAlreadyMapped is returned when columns or pages are attached twice to
	// the same schema.
	ErrAlreadyMapped = errors.New("schema has already been mapped")
)

// ErrorKind returns a short label classifying err, suitable for use as a
// metric label. The function returns "other" for errors which do not wrap
// one of the errors declared by this package or the profile package, and an
// empty string if err is nil.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrOrderViolation):
		return "order_violation"
	case errors.Is(err, ErrStructuralInconsistency):
		return "structural_inconsistency"
	case errors.Is(err, ErrMalformedFlags):
		return "malformed_flags"
	case errors.Is(err, ErrUnsupportedLayout):
		return "unsupported_layout"
	case errors.Is(err, ErrAlreadyMapped):
		return "already_mapped"
	case errors.Is(err, profile.ErrOverlapViolation):
		return "overlap_violation"
	case errors.Is(err, profile.ErrImbalancedStack):
		return "imbalanced_stack"
	case errors.Is(err, profile.ErrOutOfRange):
		return "out_of_range"
	default:
		return "other"
	}
}

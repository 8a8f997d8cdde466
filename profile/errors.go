package profile

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOverlapViolation is returned when two spans claim overlapping bytes.
	ErrOverlapViolation = errors.New("overlapping spans")

	// ErrImbalancedStack is returned when frames were pushed and popped
	// unevenly, or when an event log does not close what it opens.
	ErrImbalancedStack = errors.New("imbalanced frame stack")

	// ErrOutOfRange is returned when a span has a negative offset or size, or
	// ends past the end of the profile.
	ErrOutOfRange = errors.New("span out of range")
)

// OverlapError carries the context of an overlap detected during rendering.
// The stacks are expressed as frame names, outermost first.
type OverlapError struct {
	Offset    int64
	Size      int64
	Cursor    int64
	SpanStack []string
	OpenStack []string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("span [%d,%d) with stack [%s] starts before offset %d where the span with stack [%s] ends: %v",
		e.Offset, e.Offset+e.Size,
		strings.Join(e.SpanStack, "; "),
		e.Cursor,
		strings.Join(e.OpenStack, "; "),
		ErrOverlapViolation,
	)
}

func (e *OverlapError) Unwrap() error { return ErrOverlapViolation }

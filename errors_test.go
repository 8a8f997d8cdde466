package rntuple_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/segmentio/rntuple-go"
	"github.com/segmentio/rntuple-go/profile"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		kind string
	}{
		{nil, ""},
		{fmt.Errorf("field 3: %w", rntuple.ErrOrderViolation), "order_violation"},
		{fmt.Errorf("column 1: %w", rntuple.ErrStructuralInconsistency), "structural_inconsistency"},
		{rntuple.ErrMalformedFlags, "malformed_flags"},
		{rntuple.ErrUnsupportedLayout, "unsupported_layout"},
		{rntuple.ErrAlreadyMapped, "already_mapped"},
		{&profile.OverlapError{Offset: 5, Size: 10, Cursor: 10}, "overlap_violation"},
		{fmt.Errorf("render: %w", profile.ErrImbalancedStack), "imbalanced_stack"},
		{profile.ErrOutOfRange, "out_of_range"},
		{errors.New("disk full"), "other"},
	}

	for _, test := range tests {
		assert.Equal(t, test.kind, rntuple.ErrorKind(test.err), "%v", test.err)
	}
}

package profile

import "fmt"

// Interval is a frame instance reconstructed from an event log.
type Interval struct {
	// Stack is the stack of frames from the outermost frame to the frame of
	// the interval, included.
	Stack []int
	Start int64
	End   int64
	// Leaf is true if no frame was opened inside the interval.
	Leaf bool
}

// Replay reconstructs the frame intervals encoded by a list of events, the way
// a viewer decodes an evented profile. Intervals are returned in the order
// they are closed.
//
// The function returns an error wrapping ErrImbalancedStack if a close event
// does not match the innermost open frame, or if frames are left open.
func Replay(events []Event) ([]Interval, error) {
	type openFrame struct {
		frame    int
		start    int64
		children int
	}

	var stack []openFrame
	var intervals []Interval

	for i, e := range events {
		switch e.Type {
		case Open:
			if n := len(stack); n > 0 {
				stack[n-1].children++
			}
			stack = append(stack, openFrame{frame: e.Frame, start: e.At})

		case Close:
			n := len(stack)
			if n == 0 || stack[n-1].frame != e.Frame {
				return nil, fmt.Errorf("event %d %s does not close the innermost open frame: %w", i, e, ErrImbalancedStack)
			}
			top := stack[n-1]
			frames := make([]int, n)
			for j := range stack {
				frames[j] = stack[j].frame
			}
			intervals = append(intervals, Interval{
				Stack: frames,
				Start: top.start,
				End:   e.At,
				Leaf:  top.children == 0,
			})
			stack = stack[:n-1]

		default:
			return nil, fmt.Errorf("event %d has unknown type %q", i, e.Type)
		}
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("%d frames are left open after the last event: %w", len(stack), ErrImbalancedStack)
	}
	return intervals, nil
}

// Leaves returns the leaf intervals encoded by a list of events, which are the
// spans that the events were rendered from.
func Leaves(events []Event) ([]Interval, error) {
	intervals, err := Replay(events)
	if err != nil {
		return nil, err
	}
	leaves := intervals[:0]
	for _, in := range intervals {
		if in.Leaf {
			leaves = append(leaves, in)
		}
	}
	return leaves, nil
}

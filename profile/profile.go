// Package profile renders labeled, possibly nested byte ranges into an evented
// profile: a flat, offset-ordered log of open and close events from which a
// flame graph viewer reconstructs the nesting.
//
// Byte offsets play the role of timestamps, so a file's layout can be
// inspected with the same tools as a call stack profile.
package profile

import "fmt"

// Frame is an entry of the frame table of a profile.
type Frame struct {
	Name string `json:"name"`
	// Secondary is rendered by viewers next to the name. The speedscope format
	// reserves the "file" property for it.
	Secondary string `json:"file,omitempty"`
}

func (f Frame) String() string {
	if f.Secondary == "" {
		return f.Name
	}
	return f.Name + " (" + f.Secondary + ")"
}

// Span is a leaf byte range recorded by a Builder, with the stack of frames
// which were open when it was recorded. The last frame of the stack is the
// leaf frame of the span.
type Span struct {
	Offset int64
	Size   int64
	Stack  []int
}

// End returns the offset of the first byte after the span.
func (s Span) End() int64 { return s.Offset + s.Size }

// EventType is the type of a profile event.
type EventType string

const (
	Open  EventType = "O"
	Close EventType = "C"
)

// Event opens or closes a frame at a byte offset.
type Event struct {
	Type  EventType `json:"type"`
	Frame int       `json:"frame"`
	At    int64     `json:"at"`
}

func (e Event) String() string {
	return fmt.Sprintf("%s(%d)@%d", e.Type, e.Frame, e.At)
}

// Gap is a byte range which no span covers, padding or checksums for example.
type Gap struct {
	Offset int64
	Size   int64
}

// Profile is the result of rendering the spans of a Builder.
type Profile struct {
	Frames     []Frame
	Events     []Event
	StartValue int64
	EndValue   int64
	// Gaps lists the uncovered byte ranges, in offset order. They are
	// diagnostics only and never appear in the events.
	Gaps []Gap
}

// GapBytes returns the total number of bytes not covered by any span.
func (p *Profile) GapBytes() int64 {
	n := int64(0)
	for _, g := range p.Gaps {
		n += g.Size
	}
	return n
}

// Counts returns the number of open and close events of p.
func (p *Profile) Counts() (opens, closes int) {
	for _, e := range p.Events {
		switch e.Type {
		case Open:
			opens++
		case Close:
			closes++
		}
	}
	return opens, closes
}

package profile

import (
	"fmt"
	"sort"
)

// Builder records nested scopes and leaf spans, and renders them into a
// Profile.
//
// The zero value is ready to use. Builder values are not safe for concurrent
// use; the frame table belongs to a single builder, programs processing
// several files concurrently use one builder per file.
type Builder struct {
	frames    []Frame
	shared    map[Frame]int
	stack     []int
	spans     []Span
	underflow int
}

// NewBuilder returns a new, empty builder.
func NewBuilder() *Builder {
	return &Builder{shared: make(map[Frame]int)}
}

func (b *Builder) newFrame(name, secondary string) int {
	id := len(b.frames)
	b.frames = append(b.frames, Frame{Name: name, Secondary: secondary})
	return id
}

// SharedFrame returns the id of the frame interned for the (name, secondary)
// pair, creating it if needed. The frame stack is not modified.
func (b *Builder) SharedFrame(name, secondary string) int {
	key := Frame{Name: name, Secondary: secondary}
	if id, ok := b.shared[key]; ok {
		return id
	}
	if b.shared == nil {
		b.shared = make(map[Frame]int)
	}
	id := b.newFrame(name, secondary)
	b.shared[key] = id
	return id
}

// PushFrame pushes a new frame on the stack and returns its id. Each call
// creates a distinct frame, even for names which were pushed before.
func (b *Builder) PushFrame(name, secondary string) int {
	id := b.newFrame(name, secondary)
	b.stack = append(b.stack, id)
	return id
}

// PushSharedFrame pushes the frame interned for the (name, secondary) pair on
// the stack and returns its id. Repeated calls with the same pair return the
// same id.
func (b *Builder) PushSharedFrame(name, secondary string) int {
	id := b.SharedFrame(name, secondary)
	b.stack = append(b.stack, id)
	return id
}

// PopFrame pops the frame at the top of the stack. Popping an empty stack is
// recorded and makes Render fail.
func (b *Builder) PopFrame() {
	if len(b.stack) == 0 {
		b.underflow++
		return
	}
	b.stack = b.stack[:len(b.stack)-1]
}

// AddSpan records a leaf span covering [offset, offset+size). Its stack is the
// current stack followed by the shared frame for name.
func (b *Builder) AddSpan(name string, offset, size int64) {
	leaf := b.SharedFrame(name, "")
	stack := make([]int, len(b.stack)+1)
	copy(stack, b.stack)
	stack[len(b.stack)] = leaf
	b.spans = append(b.spans, Span{Offset: offset, Size: size, Stack: stack})
}

// Depth returns the number of frames currently pushed.
func (b *Builder) Depth() int { return len(b.stack) }

// Frames returns the frame table. The slice must be treated as read-only.
func (b *Builder) Frames() []Frame { return b.frames }

// Spans returns the spans in the order they were recorded. The slice must be
// treated as read-only.
func (b *Builder) Spans() []Span { return b.spans }

// Render converts the recorded spans into a profile covering [0, totalSize).
//
// Spans are ordered by offset and must not overlap, otherwise the method
// returns an *OverlapError. Frames shared by consecutive spans stay open
// between them; leaf frames are always closed before the next span opens.
// All the frames pushed on the builder must have been popped.
//
// The builder is not modified and may render again after recording more
// spans.
func (b *Builder) Render(totalSize int64) (*Profile, error) {
	if len(b.stack) != 0 {
		return nil, fmt.Errorf("rendering with %d frames still pushed: %w", len(b.stack), ErrImbalancedStack)
	}
	if b.underflow != 0 {
		return nil, fmt.Errorf("rendering after %d pops of an empty stack: %w", b.underflow, ErrImbalancedStack)
	}

	spans := make([]Span, len(b.spans))
	copy(spans, b.spans)
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Offset < spans[j].Offset })

	p := &Profile{
		Frames:   make([]Frame, len(b.frames)),
		Events:   make([]Event, 0, 4*len(spans)),
		EndValue: totalSize,
	}
	copy(p.Frames, b.frames)

	cursor := int64(0)
	open := make([]int, 0, 16)

	for _, span := range spans {
		if span.Offset < 0 || span.Size < 0 {
			return nil, fmt.Errorf("span %s at offset %d has size %d: %w", b.stackString(span.Stack), span.Offset, span.Size, ErrOutOfRange)
		}
		if span.Offset < cursor {
			return nil, &OverlapError{
				Offset:    span.Offset,
				Size:      span.Size,
				Cursor:    cursor,
				SpanStack: b.frameNames(span.Stack),
				OpenStack: b.frameNames(open),
			}
		}
		if span.Offset > cursor {
			p.Gaps = append(p.Gaps, Gap{Offset: cursor, Size: span.Offset - cursor})
		}

		d := divergence(open, span.Stack)
		for i := len(open) - 1; i >= d; i-- {
			p.Events = append(p.Events, Event{Type: Close, Frame: open[i], At: cursor})
		}
		open = open[:d]
		for _, frame := range span.Stack[d:] {
			p.Events = append(p.Events, Event{Type: Open, Frame: frame, At: span.Offset})
			open = append(open, frame)
		}

		cursor = span.End()
	}

	for i := len(open) - 1; i >= 0; i-- {
		p.Events = append(p.Events, Event{Type: Close, Frame: open[i], At: cursor})
	}

	if cursor > totalSize {
		return nil, fmt.Errorf("spans end at offset %d past the total size %d: %w", cursor, totalSize, ErrOutOfRange)
	}
	if cursor < totalSize {
		p.Gaps = append(p.Gaps, Gap{Offset: cursor, Size: totalSize - cursor})
	}

	if err := checkEvents(p.Events); err != nil {
		return nil, err
	}
	return p, nil
}

// divergence returns the index of the first frame which differs between the
// open stack and the stack of the next span. When one stack is a prefix of the
// other the index of the last common frame is returned, so the leaf of the
// previous span is closed even if the next span has the same stack.
func divergence(open, next []int) int {
	n := len(open)
	if len(next) < n {
		n = len(next)
	}
	for i := 0; i < n; i++ {
		if open[i] != next[i] {
			return i
		}
	}
	if n == 0 {
		return 0
	}
	return n - 1
}

func checkEvents(events []Event) error {
	depth := 0
	at := int64(0)

	for i, e := range events {
		if e.At < at {
			return fmt.Errorf("event %d %s goes back from offset %d: %w", i, e, at, ErrImbalancedStack)
		}
		at = e.At

		switch e.Type {
		case Open:
			depth++
		case Close:
			depth--
		}
		if depth < 0 {
			return fmt.Errorf("event %d %s closes more frames than were opened: %w", i, e, ErrImbalancedStack)
		}
	}

	if depth != 0 {
		return fmt.Errorf("%d frames are left open after the last event: %w", depth, ErrImbalancedStack)
	}
	return nil
}

func (b *Builder) frameNames(stack []int) []string {
	names := make([]string, len(stack))
	for i, id := range stack {
		names[i] = b.frames[id].String()
	}
	return names
}

func (b *Builder) stackString(stack []int) string {
	return fmt.Sprint(b.frameNames(stack))
}

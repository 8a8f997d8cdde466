package profile_test

import (
	"errors"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentio/rntuple-go/profile"
)

func TestRenderSiblings(t *testing.T) {
	b := profile.NewBuilder()
	b.AddSpan("A", 0, 100)
	b.AddSpan("B", 100, 50)

	p, err := b.Render(150)
	require.NoError(t, err)

	a := b.SharedFrame("A", "")
	c := b.SharedFrame("B", "")
	assert.Equal(t, []profile.Event{
		{Type: profile.Open, Frame: a, At: 0},
		{Type: profile.Close, Frame: a, At: 100},
		{Type: profile.Open, Frame: c, At: 100},
		{Type: profile.Close, Frame: c, At: 150},
	}, p.Events)
	assert.Equal(t, int64(0), p.StartValue)
	assert.Equal(t, int64(150), p.EndValue)
	assert.Empty(t, p.Gaps)
}

func TestRenderNested(t *testing.T) {
	b := profile.NewBuilder()
	file := b.PushFrame("events.root", "")
	b.AddSpan("ROOTFile", 0, 100)
	tuple := b.PushFrame("RNTuple: Events", "")
	b.AddSpan("Header", 120, 30)
	b.AddSpan("Footer", 150, 10)
	b.PopFrame()
	b.PopFrame()

	p, err := b.Render(200)
	require.NoError(t, err)

	root := b.SharedFrame("ROOTFile", "")
	header := b.SharedFrame("Header", "")
	footer := b.SharedFrame("Footer", "")
	assert.Equal(t, []profile.Event{
		{Type: profile.Open, Frame: file, At: 0},
		{Type: profile.Open, Frame: root, At: 0},
		{Type: profile.Close, Frame: root, At: 100},
		{Type: profile.Open, Frame: tuple, At: 120},
		{Type: profile.Open, Frame: header, At: 120},
		{Type: profile.Close, Frame: header, At: 150},
		{Type: profile.Open, Frame: footer, At: 150},
		{Type: profile.Close, Frame: footer, At: 160},
		{Type: profile.Close, Frame: tuple, At: 160},
		{Type: profile.Close, Frame: file, At: 160},
	}, p.Events)
	assert.Equal(t, []profile.Gap{{Offset: 100, Size: 20}, {Offset: 160, Size: 40}}, p.Gaps)
	assert.Equal(t, int64(60), p.GapBytes())
}

func TestRenderRepeatedLeafIsClosed(t *testing.T) {
	b := profile.NewBuilder()
	b.PushSharedFrame("Column", "Real32")
	b.AddSpan("Page", 0, 10)
	b.AddSpan("Page", 10, 10)
	b.PopFrame()

	p, err := b.Render(20)
	require.NoError(t, err)

	column := b.SharedFrame("Column", "Real32")
	page := b.SharedFrame("Page", "")
	assert.Equal(t, []profile.Event{
		{Type: profile.Open, Frame: column, At: 0},
		{Type: profile.Open, Frame: page, At: 0},
		{Type: profile.Close, Frame: page, At: 10},
		{Type: profile.Open, Frame: page, At: 10},
		{Type: profile.Close, Frame: page, At: 20},
		{Type: profile.Close, Frame: column, At: 20},
	}, p.Events)
}

func TestRenderSortsSpans(t *testing.T) {
	b := profile.NewBuilder()
	b.AddSpan("B", 100, 50)
	b.AddSpan("A", 0, 100)

	p, err := b.Render(150)
	require.NoError(t, err)
	require.Len(t, p.Events, 4)
	assert.Equal(t, b.SharedFrame("A", ""), p.Events[0].Frame)
	assert.Equal(t, b.SharedFrame("B", ""), p.Events[3].Frame)
}

func TestRenderOverlap(t *testing.T) {
	b := profile.NewBuilder()
	b.PushFrame("file", "")
	b.AddSpan("A", 0, 10)
	b.AddSpan("B", 5, 10)
	b.PopFrame()

	_, err := b.Render(15)
	require.Error(t, err)
	assert.True(t, errors.Is(err, profile.ErrOverlapViolation))

	var overlap *profile.OverlapError
	require.True(t, errors.As(err, &overlap))
	assert.Equal(t, int64(5), overlap.Offset)
	assert.Equal(t, int64(10), overlap.Cursor)
	assert.Equal(t, []string{"file", "B"}, overlap.SpanStack)
	assert.Equal(t, []string{"file", "A"}, overlap.OpenStack)
}

func TestRenderImbalancedStack(t *testing.T) {
	tests := []struct {
		scenario string
		build    func(*profile.Builder)
	}{
		{
			scenario: "frame left pushed",
			build: func(b *profile.Builder) {
				b.PushFrame("file", "")
				b.AddSpan("A", 0, 10)
			},
		},

		{
			scenario: "pop of an empty stack",
			build: func(b *profile.Builder) {
				b.AddSpan("A", 0, 10)
				b.PopFrame()
			},
		},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			b := profile.NewBuilder()
			test.build(b)
			_, err := b.Render(10)
			assert.True(t, errors.Is(err, profile.ErrImbalancedStack), "unexpected error: %v", err)
		})
	}
}

func TestRenderOutOfRange(t *testing.T) {
	b := profile.NewBuilder()
	b.AddSpan("A", 0, 20)

	_, err := b.Render(10)
	assert.True(t, errors.Is(err, profile.ErrOutOfRange), "unexpected error: %v", err)
}

func TestRenderEmpty(t *testing.T) {
	p, err := new(profile.Builder).Render(42)
	require.NoError(t, err)
	assert.Empty(t, p.Events)
	assert.Equal(t, []profile.Gap{{Offset: 0, Size: 42}}, p.Gaps)
}

func TestPushSharedFrameIsIdempotent(t *testing.T) {
	b := profile.NewBuilder()

	first := b.PushSharedFrame("Page", "")
	b.PopFrame()
	other := b.PushSharedFrame("Page", "Real32")
	b.PopFrame()
	second := b.PushSharedFrame("Page", "")
	b.PopFrame()

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, b.Frames(), 2)
	assert.Equal(t, 0, b.Depth())

	unique := b.PushFrame("Page", "")
	b.PopFrame()
	assert.NotEqual(t, first, unique)
	assert.Len(t, b.Frames(), 3)
}

func TestReplayRejectsMismatchedClose(t *testing.T) {
	_, err := profile.Replay([]profile.Event{
		{Type: profile.Open, Frame: 0, At: 0},
		{Type: profile.Open, Frame: 1, At: 0},
		{Type: profile.Close, Frame: 0, At: 10},
	})
	assert.True(t, errors.Is(err, profile.ErrImbalancedStack))
}

var scopes = []string{"file", "object", "field", "column"}

// layoutFromSeeds records one span per seed. The seed selects the gap before
// the span, its size and the scopes it is nested in. The high bits of the seed
// select which scopes are pushed as unique frames instead of shared ones.
func layoutFromSeeds(seeds []uint32) *profile.Builder {
	b := profile.NewBuilder()
	offset := int64(0)

	for _, seed := range seeds {
		offset += int64(seed % 3)
		size := int64(seed>>2)%16 + 1
		depth := int(seed>>8) % (len(scopes) + 1)

		for i, name := range scopes[:depth] {
			if seed>>(16+i)&1 != 0 {
				b.PushFrame(name, "")
			} else {
				b.PushSharedFrame(name, "")
			}
		}
		b.AddSpan("Page", offset, size)
		for i := 0; i < depth; i++ {
			b.PopFrame()
		}

		offset += size
	}

	return b
}

func TestLayoutFromSeedsUniqueFrames(t *testing.T) {
	// Both spans are nested in a unique "file" frame and a shared "object"
	// frame.
	b := layoutFromSeeds([]uint32{0x10100, 0x10100})

	names := make([]string, len(b.Frames()))
	for i, frame := range b.Frames() {
		names[i] = frame.Name
	}
	assert.Equal(t, []string{"file", "object", "Page", "file"}, names)

	spans := b.Spans()
	require.Len(t, spans, 2)
	assert.Equal(t, []int{0, 1, 2}, spans[0].Stack)
	assert.Equal(t, []int{3, 1, 2}, spans[1].Stack)

	p, err := b.Render(spans[1].End())
	require.NoError(t, err)

	leaves, err := profile.Leaves(p.Events)
	require.NoError(t, err)
	require.Len(t, leaves, 2)
	assert.Equal(t, spans[0].Stack, leaves[0].Stack)
	assert.Equal(t, spans[1].Stack, leaves[1].Stack)
}

func TestRenderReplayRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("replaying rendered events yields the recorded spans", prop.ForAll(
		func(seeds []uint32) bool {
			b := layoutFromSeeds(seeds)
			spans := append([]profile.Span(nil), b.Spans()...)
			sort.SliceStable(spans, func(i, j int) bool { return spans[i].Offset < spans[j].Offset })

			total := int64(0)
			if n := len(spans); n > 0 {
				total = spans[n-1].End()
			}

			p, err := b.Render(total)
			if err != nil {
				return false
			}

			opens, closes := p.Counts()
			if opens != closes {
				return false
			}

			leaves, err := profile.Leaves(p.Events)
			if err != nil || len(leaves) != len(spans) {
				return false
			}

			for i, leaf := range leaves {
				span := spans[i]
				if leaf.Start != span.Offset || leaf.End != span.End() {
					return false
				}
				if len(leaf.Stack) != len(span.Stack) {
					return false
				}
				for j := range leaf.Stack {
					if leaf.Stack[j] != span.Stack[j] {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.UInt32()),
	))

	properties.TestingRun(t)
}

func TestPushSharedFrameProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("shared frames are interned by name and secondary", prop.ForAll(
		func(name, secondary string) bool {
			b := profile.NewBuilder()
			b.PushFrame(name, secondary)
			b.PopFrame()
			first := b.PushSharedFrame(name, secondary)
			b.PopFrame()
			second := b.PushSharedFrame(name, secondary)
			b.PopFrame()
			return first == second && b.Depth() == 0
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

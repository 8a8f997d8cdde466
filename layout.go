package rntuple

import (
	"fmt"
	"strconv"

	"github.com/segmentio/rntuple-go/format"
	"github.com/segmentio/rntuple-go/profile"
)

// WriteLayout records the byte ranges of f into b.
//
// The outermost frame covers the whole file. It holds spans for the file
// header, the key list, the streamer info and every key, and one frame per
// RNTuple holding its envelopes and, nested by field and column, its pages.
//
// The indexes map provides the index of each RNTuple by name. Indexes missing
// from the map are built on the fly. Projected fields are skipped since they
// do not own any bytes. A page claimed by several columns of an RNTuple is
// recorded under the first claimant, enumerating clusters then columns (see
// Page.Duplicate), and a page repeated across RNTuples is only recorded the
// first time it is seen.
//
// On error, the frames pushed by the function are popped before returning so
// the depth of b is left unchanged.
func WriteLayout(b *profile.Builder, f *format.File, indexes map[string]*Index, options ...LayoutOption) error {
	config := DefaultLayoutConfig()
	config.Apply(options...)
	if err := config.Validate(); err != nil {
		return err
	}

	w := &layoutWriter{
		builder: b,
		config:  config,
		seen:    make(map[pageKey]struct{}),
	}

	b.PushFrame(coalesceString(config.FileFrame, f.Name), "")
	b.AddSpan("ROOTFile", 0, f.Begin)
	b.AddSpan("TKeyList", f.KeyList.Offset, f.KeyList.Size)
	b.AddSpan("TStreamerInfo", f.StreamerInfo.Offset, f.StreamerInfo.Size)

	for i := range f.Keys {
		key := &f.Keys[i]
		b.AddSpan(key.Name+": "+key.ClassName, key.Offset, key.Size)

		if !key.IsRNTuple() {
			continue
		}

		rntuple := f.Lookup(key.Name)
		if rntuple == nil {
			b.PopFrame()
			return fmt.Errorf("%s: key %q holds an RNTuple anchor but the RNTuple is not described: %w",
				f.Name, key.Name, ErrStructuralInconsistency)
		}

		idx := indexes[key.Name]
		if idx == nil {
			var err error
			if idx, err = NewIndex(rntuple); err != nil {
				b.PopFrame()
				return fmt.Errorf("%s: %w", f.Name, err)
			}
		}

		w.writeRNTuple(rntuple, idx)
	}

	b.PopFrame()
	return nil
}

// RenderLayout records the layout of f into a new builder and renders it over
// the size of the file.
func RenderLayout(f *format.File, indexes map[string]*Index, options ...LayoutOption) (*profile.Profile, error) {
	b := profile.NewBuilder()
	if err := WriteLayout(b, f, indexes, options...); err != nil {
		return nil, err
	}
	p, err := b.Render(f.Size)
	if err != nil {
		return nil, fmt.Errorf("%s: rendering layout: %w", f.Name, err)
	}
	return p, nil
}

type layoutWriter struct {
	builder *profile.Builder
	config  *LayoutConfig
	seen    map[pageKey]struct{}
}

func (w *layoutWriter) writeRNTuple(rntuple *format.RNTuple, idx *Index) {
	b := w.builder
	b.PushFrame("RNTuple: "+rntuple.Name, "")
	b.AddSpan("HeaderEnvelope", rntuple.Header.Offset, rntuple.Header.Size)
	b.AddSpan("FooterEnvelope", rntuple.Footer.Offset, rntuple.Footer.Size)

	for _, group := range rntuple.ClusterGroups {
		b.AddSpan("PageListEnvelope", group.PageListLink.Offset, group.PageListLink.Size)
	}

	schema := idx.schema
	// Errors can only come from the callbacks, which never fail.
	_ = schema.walk(schema.roots, w.enterField, w.leaveField)

	b.PopFrame()
}

func (w *layoutWriter) enterField(f *Field, _ int) error {
	if f.Projected() {
		return SkipField
	}

	b := w.builder
	if w.config.UniqueFields {
		b.PushFrame("Field "+strconv.Itoa(f.id)+": "+f.name, f.typeName)
	} else {
		b.PushSharedFrame(f.name, f.typeName)
	}

	for _, c := range f.columns {
		if w.config.UniqueColumns {
			b.PushFrame("Column "+strconv.Itoa(c.id)+": "+c.typ.String(), "")
		} else {
			b.PushSharedFrame("Column "+c.typ.String(), "")
		}

		for _, cluster := range c.clusters {
			for _, page := range cluster.Pages {
				if page.Duplicate {
					continue
				}
				key := pageKey{offset: page.Offset, size: page.Size}
				if _, seen := w.seen[key]; seen {
					continue
				}
				w.seen[key] = struct{}{}
				b.AddSpan(w.config.PageFrame, page.Offset, page.Size)
			}
		}

		b.PopFrame()
	}

	return nil
}

func (w *layoutWriter) leaveField(*Field, int) error {
	w.builder.PopFrame()
	return nil
}

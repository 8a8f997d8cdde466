package rntuple

import (
	"fmt"

	"github.com/segmentio/rntuple-go/format"
)

// Index is the field, column, cluster and page index of one RNTuple.
//
// Index values are immutable once returned by NewIndex and are safe to use
// concurrently from multiple goroutines.
type Index struct {
	name   string
	schema *Schema
	report *PageReport
}

// NewIndex builds the index of the given RNTuple description.
//
// The construction runs in three stages: the field tree is built from the
// field descriptions, the physical and alias columns are attached to their
// fields, then the page locations of the cluster group are attached to their
// columns. Any inconsistency aborts the construction; no partial index is ever
// returned.
func NewIndex(rntuple *format.RNTuple) (*Index, error) {
	schema, err := BuildSchema(rntuple.Schema.Fields)
	if err != nil {
		return nil, fmt.Errorf("building field tree of %q: %w", rntuple.Name, err)
	}

	lookup, err := schema.MapColumns(rntuple.Schema.Columns, rntuple.Schema.AliasColumns)
	if err != nil {
		return nil, fmt.Errorf("mapping columns of %q: %w", rntuple.Name, err)
	}

	report, err := schema.MapPages(lookup, rntuple.PageLists())
	if err != nil {
		return nil, fmt.Errorf("mapping pages of %q: %w", rntuple.Name, err)
	}

	return &Index{
		name:   rntuple.Name,
		schema: schema,
		report: report,
	}, nil
}

// IndexFile builds the indexes of all the RNTuples of f, keyed by name.
//
// The RNTuples of a file are independent from each other, but the function
// aborts on the first error since the file description is then known to be
// inconsistent.
func IndexFile(f *format.File) (map[string]*Index, error) {
	indexes := make(map[string]*Index, len(f.RNTuples))

	for i := range f.RNTuples {
		idx, err := NewIndex(&f.RNTuples[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		indexes[idx.name] = idx
	}

	return indexes, nil
}

// Name returns the name of the indexed RNTuple.
func (idx *Index) Name() string { return idx.name }

// Schema returns the field tree of the RNTuple, with columns and pages
// attached.
func (idx *Index) Schema() *Schema { return idx.schema }

// Report returns the page mapping report of the RNTuple.
func (idx *Index) Report() *PageReport { return idx.report }

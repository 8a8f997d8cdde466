package rntuple

import (
	"fmt"
	"strings"

	"github.com/segmentio/rntuple-go/format"
)

// ColumnFlags is the decoded form of the flags of a column description.
type ColumnFlags struct {
	Deferred          bool
	FirstElementIndex int64
	// Suppressed is true when the column is deferred with a negative first
	// element index.
	Suppressed    bool
	HasValueRange bool
	MinValue      float64
	MaxValue      float64
}

func decodeColumnFlags(id int, desc *format.ColumnDescription) (ColumnFlags, error) {
	var flags ColumnFlags

	if desc.Flags.Has(format.ColumnDeferred) {
		if desc.FirstElementIndex == nil {
			return flags, fmt.Errorf("column %d is deferred but has no first element index: %w", id, ErrMalformedFlags)
		}
		flags.Deferred = true
		flags.FirstElementIndex = *desc.FirstElementIndex
		flags.Suppressed = flags.FirstElementIndex < 0
	}

	if desc.Flags.Has(format.ColumnHasValueRange) {
		if desc.MinValue == nil || desc.MaxValue == nil {
			return flags, fmt.Errorf("column %d announces a value range but has no bounds: %w", id, ErrMalformedFlags)
		}
		flags.HasValueRange = true
		flags.MinValue = *desc.MinValue
		flags.MaxValue = *desc.MaxValue
	}

	return flags, nil
}

// String returns the human-readable form of the flags, or an empty string if
// no flags are set.
func (f ColumnFlags) String() string {
	s := make([]string, 0, 2)
	if f.Deferred {
		suppressed := ""
		if f.Suppressed {
			suppressed = ", suppressed"
		}
		s = append(s, fmt.Sprintf("Deferred (first element ind: %d%s)", f.FirstElementIndex, suppressed))
	}
	if f.HasValueRange {
		s = append(s, fmt.Sprintf("Has Value Range (min: %g, max: %g)", f.MinValue, f.MaxValue))
	}
	return strings.Join(s, ", ")
}

// Column is a physical column attached to the field which owns it.
type Column struct {
	id                  int
	fieldID             int
	typ                 format.ColumnType
	bitsOnStorage       uint16
	flags               ColumnFlags
	representationIndex uint16
	clusters            []*ClusterPages
}

// ID returns the physical column id.
func (c *Column) ID() int { return c.id }

// FieldID returns the id of the field owning c.
func (c *Column) FieldID() int { return c.fieldID }

// Type returns the on-disk type of the column elements.
func (c *Column) Type() format.ColumnType { return c.typ }

// BitsOnStorage returns the size of one column element on disk, in bits.
func (c *Column) BitsOnStorage() int { return int(c.bitsOnStorage) }

// Flags returns the decoded column flags.
func (c *Column) Flags() ColumnFlags { return c.flags }

// RepresentationIndex returns the index of the column representation that c
// belongs to.
func (c *Column) RepresentationIndex() int { return int(c.representationIndex) }

// Clusters returns the page index of c in each cluster where it has pages,
// ordered by cluster id.
func (c *Column) Clusters() []*ClusterPages { return c.clusters }

// Cluster returns the page index of c in the cluster with the given id, or nil
// if c has no pages in this cluster.
func (c *Column) Cluster(id int) *ClusterPages {
	for _, cluster := range c.clusters {
		if cluster.ClusterID == id {
			return cluster
		}
	}
	return nil
}

// NumPages returns the number of pages of c across all clusters.
func (c *Column) NumPages() int {
	n := 0
	for _, cluster := range c.clusters {
		n += len(cluster.Pages)
	}
	return n
}

func (c *Column) String() string {
	return fmt.Sprintf("[%d] Type: %s, RepIndex: %d", c.id, c.typ, c.representationIndex)
}

// AliasColumn is a reference from a projected field to a physical column of
// its source field.
type AliasColumn struct {
	PhysicalColumnID int
	FieldID          int
}

// ColumnLookup maps physical column ids to the id of the field owning them.
//
// ColumnLookup values are read-only once returned by MapColumns.
type ColumnLookup []int

// FieldID returns the id of the field owning the column with the given id.
// The second return value is false if the column does not exist.
func (l ColumnLookup) FieldID(columnID int) (int, bool) {
	if columnID < 0 || columnID >= len(l) {
		return -1, false
	}
	return l[columnID], true
}

// Len returns the number of columns in the lookup.
func (l ColumnLookup) Len() int { return len(l) }

// MapColumns attaches physical columns and alias columns to the fields of s.
//
// Columns are visited in id order so each field receives its columns sorted by
// ascending column id. The method fails with an error wrapping
// ErrStructuralInconsistency if a column or alias column references a field
// or column which does not exist, and with an error wrapping
// ErrMalformedFlags if a column sets a flag without its companion value.
//
// On error, s is left unmodified. Columns may only be mapped once.
func (s *Schema) MapColumns(columns []format.ColumnDescription, aliases []format.AliasColumnDescription) (ColumnLookup, error) {
	if s.lookup != nil {
		return nil, fmt.Errorf("mapping columns: %w", ErrAlreadyMapped)
	}

	lookup := make(ColumnLookup, len(columns))
	attached := make([]*Column, len(columns))

	for id := range columns {
		desc := &columns[id]

		flags, err := decodeColumnFlags(id, desc)
		if err != nil {
			return nil, err
		}

		fieldID := int(desc.FieldID)
		if s.Field(fieldID) == nil {
			return nil, fmt.Errorf("column %d references field %d which is not in the schema of %d fields: %w",
				id, fieldID, len(s.fields), ErrStructuralInconsistency)
		}

		lookup[id] = fieldID
		attached[id] = &Column{
			id:                  id,
			fieldID:             fieldID,
			typ:                 desc.Type,
			bitsOnStorage:       desc.BitsOnStorage,
			flags:               flags,
			representationIndex: desc.RepresentationIndex,
		}
	}

	for i := range aliases {
		alias := &aliases[i]
		fieldID := int(alias.FieldID)
		columnID := int(alias.PhysicalColumnID)

		if s.Field(fieldID) == nil {
			return nil, fmt.Errorf("alias column %d references projected field %d which is not in the schema: %w",
				i, fieldID, ErrStructuralInconsistency)
		}
		if _, ok := lookup.FieldID(columnID); !ok {
			return nil, fmt.Errorf("alias column %d of field %d references physical column %d which does not exist: %w",
				i, fieldID, columnID, ErrStructuralInconsistency)
		}
	}

	// All references were validated, the schema can now be modified.
	for _, c := range attached {
		f := s.fields[c.fieldID]
		f.columns = append(f.columns, c)
	}
	for i := range aliases {
		f := s.fields[aliases[i].FieldID]
		f.aliasColumns = append(f.aliasColumns, AliasColumn{
			PhysicalColumnID: int(aliases[i].PhysicalColumnID),
			FieldID:          f.id,
		})
	}

	s.lookup = lookup
	s.columns = len(columns)
	return lookup, nil
}

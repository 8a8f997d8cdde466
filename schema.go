package rntuple

import (
	"errors"
	"fmt"

	"github.com/segmentio/rntuple-go/format"
)

// Schema is the field tree of an RNTuple.
//
// Projected fields are placed like any other field, as children of the parent
// declared in their description. Their source field is available from the
// field flags, and Projections returns the reverse relation.
type Schema struct {
	fields []*Field
	roots  []int

	columns     int
	lookup      ColumnLookup
	mappedPages bool
}

// BuildSchema constructs the field tree from the ordered list of field
// descriptions.
//
// A field whose parent id equals its own id is a top-level field. Every other
// field must reference a parent which appears earlier in the list, otherwise
// the function returns an error wrapping ErrOrderViolation.
func BuildSchema(fields []format.FieldDescription) (*Schema, error) {
	s := &Schema{
		fields: make([]*Field, 0, len(fields)),
	}

	for id := range fields {
		desc := &fields[id]
		parentID := int(desc.ParentFieldID)

		if parentID == id {
			s.fields = append(s.fields, newField(id, desc, Root()))
			s.roots = append(s.roots, id)
			continue
		}

		if parentID >= len(s.fields) {
			return nil, fmt.Errorf("field %d (%s) references parent field %d which has not been constructed: %w",
				id, desc.FieldName, parentID, ErrOrderViolation)
		}

		parent := s.fields[parentID]
		parent.children = append(parent.children, id)
		s.fields = append(s.fields, newField(id, desc, ChildOf(parentID)))
	}

	return s, nil
}

// NumFields returns the number of fields in s.
func (s *Schema) NumFields() int { return len(s.fields) }

// NumColumns returns the number of physical columns mapped onto s.
func (s *Schema) NumColumns() int { return s.columns }

// Field returns the field with the given id, or nil if there is none.
func (s *Schema) Field(id int) *Field {
	if id < 0 || id >= len(s.fields) {
		return nil
	}
	return s.fields[id]
}

// Fields returns all the fields of s, ordered by id.
//
// The method returns the same slice across calls, the program must treat it
// as a read-only value.
func (s *Schema) Fields() []*Field { return s.fields }

// Roots returns the ids of the top-level fields, in description order.
func (s *Schema) Roots() []int { return s.roots }

// Lookup returns the column id to field id lookup built by MapColumns.
func (s *Schema) Lookup() ColumnLookup { return s.lookup }

// Column returns the physical column with the given id, or nil if there is
// none.
func (s *Schema) Column(id int) *Column {
	fieldID, ok := s.lookup.FieldID(id)
	if !ok {
		return nil
	}
	for _, c := range s.fields[fieldID].columns {
		if c.id == id {
			return c
		}
	}
	return nil
}

// Projections returns the ids of the projected fields whose source is the
// field with the given id.
func (s *Schema) Projections(id int) []int {
	var projections []int
	for _, f := range s.fields {
		if f.flags.Projected && f.flags.SourceFieldID == id {
			projections = append(projections, f.id)
		}
	}
	return projections
}

// Path returns the names of the fields from the top-level field down to the
// field with the given id.
func (s *Schema) Path(id int) []string {
	var path []string
	for f := s.Field(id); f != nil; {
		path = append(path, f.name)
		parentID, ok := f.parent.ID()
		if !ok {
			break
		}
		f = s.fields[parentID]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// SkipField may be returned by the callback of Walk to skip the descendants of
// the field it was called for. It is never returned as an error by Walk.
var SkipField = errors.New("skip this field")

// Walk calls fn for each field of s in depth-first pre-order, starting with the
// top-level fields in description order. The depth of top-level fields is
// zero.
//
// The traversal uses an explicit stack, its memory usage does not depend on
// the nesting depth of the schema. If fn returns an error the walk stops and
// the error is returned.
func (s *Schema) Walk(fn func(f *Field, depth int) error) error {
	return s.walk(s.roots, fn, nil)
}

// walk traverses the subtrees rooted at the given fields. When leave is not
// nil it is called after all the descendants of a field have been visited.
func (s *Schema) walk(roots []int, enter func(*Field, int) error, leave func(*Field, int) error) error {
	type frame struct {
		field *Field
		depth int
		exit  bool
	}

	stack := make([]frame, 0, 64)
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{field: s.fields[roots[i]]})
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.exit {
			if err := leave(top.field, top.depth); err != nil {
				return err
			}
			continue
		}

		if err := enter(top.field, top.depth); err != nil {
			if err == SkipField {
				continue
			}
			return err
		}

		if leave != nil {
			top.exit = true
			stack = append(stack, top)
		}

		children := top.field.children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{field: s.fields[children[i]], depth: top.depth + 1})
		}
	}

	return nil
}

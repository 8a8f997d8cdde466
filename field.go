package rntuple

import (
	"fmt"
	"strings"

	"github.com/segmentio/rntuple-go/format"
)

// Parent is the link of a field to its parent. The zero value is not a valid
// parent; values are created by calling Root or ChildOf.
type Parent struct {
	id   int
	root bool
}

// Root returns the parent value of top-level fields.
func Root() Parent { return Parent{id: -1, root: true} }

// ChildOf returns the parent value of fields nested under the field with the
// given id.
func ChildOf(id int) Parent { return Parent{id: id} }

// IsRoot returns true if p is the parent value of a top-level field.
func (p Parent) IsRoot() bool { return p.root }

// ID returns the id of the parent field. The second return value is false if
// p is a root.
func (p Parent) ID() (int, bool) { return p.id, !p.root }

func (p Parent) String() string {
	if p.root {
		return "Root"
	}
	return fmt.Sprintf("ChildOf(%d)", p.id)
}

// FieldFlags is the decoded form of the flags of a field description.
type FieldFlags struct {
	Repetitive      bool
	ArraySize       uint64
	Projected       bool
	SourceFieldID   int
	HasTypeChecksum bool
	TypeChecksum    uint32
}

// decodeFieldFlags decodes the flags of a field description. Companion values
// missing from the description decode as zero values, the schema tree does not
// depend on them.
func decodeFieldFlags(desc *format.FieldDescription) FieldFlags {
	flags := FieldFlags{SourceFieldID: -1}

	if desc.Flags.Has(format.FieldRepetitive) {
		flags.Repetitive = true
		if desc.ArraySize != nil {
			flags.ArraySize = *desc.ArraySize
		}
	}

	if desc.Flags.Has(format.FieldProjected) {
		flags.Projected = true
		if desc.SourceFieldID != nil {
			flags.SourceFieldID = int(*desc.SourceFieldID)
		}
	}

	if desc.Flags.Has(format.FieldHasTypeChecksum) {
		flags.HasTypeChecksum = true
		if desc.TypeChecksum != nil {
			flags.TypeChecksum = *desc.TypeChecksum
		}
	}

	return flags
}

// String returns the human-readable form of the flags, or an empty string if
// no flags are set.
func (f FieldFlags) String() string {
	s := make([]string, 0, 3)
	if f.Repetitive {
		s = append(s, fmt.Sprintf("Repetitive (Array Size: %d)", f.ArraySize))
	}
	if f.Projected {
		s = append(s, fmt.Sprintf("Projected (Source Field ID: %d)", f.SourceFieldID))
	}
	if f.HasTypeChecksum {
		s = append(s, fmt.Sprintf("Type Checksum (%d)", f.TypeChecksum))
	}
	return strings.Join(s, ", ")
}

// Field is a node of the schema tree.
//
// Fields are created by BuildSchema and must be treated as read-only values
// once the index construction is complete.
type Field struct {
	id          int
	name        string
	typeName    string
	typeAlias   string
	description string
	version     uint32
	typeVersion uint32
	role        format.StructuralRole
	flags       FieldFlags
	parent      Parent
	children    []int

	columns      []*Column
	aliasColumns []AliasColumn

	// cached at construction
	typeString string
	flagString string
}

func newField(id int, desc *format.FieldDescription, parent Parent) *Field {
	flags := decodeFieldFlags(desc)

	f := &Field{
		id:          id,
		name:        desc.FieldName,
		typeName:    desc.TypeName,
		typeAlias:   desc.TypeAlias,
		description: desc.Description,
		version:     desc.FieldVersion,
		typeVersion: desc.TypeVersion,
		role:        desc.StructuralRole,
		flags:       flags,
		parent:      parent,
	}

	typeString := new(strings.Builder)
	typeString.WriteString(f.typeName)
	if f.typeAlias != "" {
		typeString.WriteString(", alias: ")
		typeString.WriteString(f.typeAlias)
	}
	if f.description != "" {
		typeString.WriteString(", desc: ")
		typeString.WriteString(f.description)
	}
	f.typeString = typeString.String()
	f.flagString = flags.String()
	return f
}

// ID returns the position of the field in the schema description.
func (f *Field) ID() int { return f.id }

// Name returns the field name.
func (f *Field) Name() string { return f.name }

// TypeName returns the declared type of the field.
func (f *Field) TypeName() string { return f.typeName }

// TypeAlias returns the type alias of the field, which may be empty.
func (f *Field) TypeAlias() string { return f.typeAlias }

// Description returns the free-form description of the field.
func (f *Field) Description() string { return f.description }

// Type returns the composed type string of the field: the declared type,
// followed by the alias and description when they are not empty.
func (f *Field) Type() string { return f.typeString }

// Version returns the field version.
func (f *Field) Version() uint32 { return f.version }

// TypeVersion returns the version of the field type.
func (f *Field) TypeVersion() uint32 { return f.typeVersion }

// Role returns the structural role of the field.
func (f *Field) Role() format.StructuralRole { return f.role }

// Flags returns the decoded flags of the field.
func (f *Field) Flags() FieldFlags { return f.flags }

// FlagString returns the human-readable form of the field flags.
func (f *Field) FlagString() string { return f.flagString }

// Projected returns true if f is a projected (virtual) field.
func (f *Field) Projected() bool { return f.flags.Projected }

// Parent returns the parent link of f.
func (f *Field) Parent() Parent { return f.parent }

// Children returns the ids of the child fields, in description order.
//
// The method returns the same slice across calls, the program must treat it
// as a read-only value.
func (f *Field) Children() []int { return f.children }

// Columns returns the physical columns of f, ordered by column id.
func (f *Field) Columns() []*Column { return f.columns }

// AliasColumns returns the alias columns attached to f.
func (f *Field) AliasColumns() []AliasColumn { return f.aliasColumns }

func (f *Field) String() string {
	return fmt.Sprintf("[%d] %s: %s", f.id, f.name, f.role)
}

package format

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldFlags is the bit set carried by field descriptions.
type FieldFlags uint32

const (
	FieldRepetitive      FieldFlags = 0x01
	FieldProjected       FieldFlags = 0x02
	FieldHasTypeChecksum FieldFlags = 0x04
)

// Has returns true if all the bits of mask are set in f.
func (f FieldFlags) Has(mask FieldFlags) bool { return f&mask == mask }

// ColumnFlags is the bit set carried by column descriptions.
type ColumnFlags uint32

const (
	ColumnDeferred      ColumnFlags = 0x01
	ColumnHasValueRange ColumnFlags = 0x02
)

// Has returns true if all the bits of mask are set in f.
func (f ColumnFlags) Has(mask ColumnFlags) bool { return f&mask == mask }

// StructuralRole describes how a field maps onto its columns and children.
type StructuralRole uint16

const (
	Leaf       StructuralRole = 0x00
	Collection StructuralRole = 0x01
	Record     StructuralRole = 0x02
	Variant    StructuralRole = 0x03
	Streamer   StructuralRole = 0x04
)

var structuralRoleNames = [...]string{
	Leaf:       "Leaf",
	Collection: "Collection",
	Record:     "Record",
	Variant:    "Variant",
	Streamer:   "Streamer",
}

func (r StructuralRole) String() string {
	if int(r) < len(structuralRoleNames) {
		return structuralRoleNames[r]
	}
	return "Unknown"
}

// Known returns true if r is one of the roles defined by the format.
func (r StructuralRole) Known() bool { return int(r) < len(structuralRoleNames) }

// MarshalJSON writes known roles by name and unknown ones by numeric code, so
// both survive a round trip through UnmarshalJSON.
func (r StructuralRole) MarshalJSON() ([]byte, error) {
	if !r.Known() {
		return strconv.AppendUint(nil, uint64(r), 10), nil
	}
	return strconv.AppendQuote(nil, r.String()), nil
}

func (r *StructuralRole) UnmarshalJSON(b []byte) error {
	code, err := parseEnum(b, "structural role", func(name string) (uint64, bool) {
		for i, s := range structuralRoleNames {
			if strings.EqualFold(s, name) {
				return uint64(i), true
			}
		}
		return 0, false
	})
	*r = StructuralRole(code)
	return err
}

// ColumnType is the on-disk type of the elements of a column.
type ColumnType uint16

const (
	Index64      ColumnType = 0x01
	Index32      ColumnType = 0x02
	Switch       ColumnType = 0x03
	Byte         ColumnType = 0x04
	Char         ColumnType = 0x05
	Bit          ColumnType = 0x06
	Real64       ColumnType = 0x07
	Real32       ColumnType = 0x08
	Real16       ColumnType = 0x09
	UInt64       ColumnType = 0x0A
	UInt32       ColumnType = 0x0B
	UInt16       ColumnType = 0x0C
	UInt8        ColumnType = 0x0D
	SplitIndex64 ColumnType = 0x0E
	SplitIndex32 ColumnType = 0x0F
	SplitReal64  ColumnType = 0x10
	SplitReal32  ColumnType = 0x11
	SplitUInt64  ColumnType = 0x12
	SplitUInt32  ColumnType = 0x13
	SplitUInt16  ColumnType = 0x14
	Int64        ColumnType = 0x16
	Int32        ColumnType = 0x17
	Int16        ColumnType = 0x18
	Int8         ColumnType = 0x19
	SplitInt64   ColumnType = 0x1A
	SplitInt32   ColumnType = 0x1B
	SplitInt16   ColumnType = 0x1C
	Real32Trunc  ColumnType = 0x1D
	Real32Quant  ColumnType = 0x1E
)

var columnTypeNames = map[ColumnType]string{
	Index64:      "Index64",
	Index32:      "Index32",
	Switch:       "Switch",
	Byte:         "Byte",
	Char:         "Char",
	Bit:          "Bit",
	Real64:       "Real64",
	Real32:       "Real32",
	Real16:       "Real16",
	UInt64:       "UInt64",
	UInt32:       "UInt32",
	UInt16:       "UInt16",
	UInt8:        "UInt8",
	SplitIndex64: "SplitIndex64",
	SplitIndex32: "SplitIndex32",
	SplitReal64:  "SplitReal64",
	SplitReal32:  "SplitReal32",
	SplitUInt64:  "SplitUInt64",
	SplitUInt32:  "SplitUInt32",
	SplitUInt16:  "SplitUInt16",
	Int64:        "Int64",
	Int32:        "Int32",
	Int16:        "Int16",
	Int8:         "Int8",
	SplitInt64:   "SplitInt64",
	SplitInt32:   "SplitInt32",
	SplitInt16:   "SplitInt16",
	Real32Trunc:  "Real32Trunc",
	Real32Quant:  "Real32Quant",
}

func (t ColumnType) String() string {
	if name, ok := columnTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ColumnType(0x%02X)", uint16(t))
}

// ParseColumnType returns the column type with the given name. The comparison
// is case insensitive.
func ParseColumnType(name string) (ColumnType, error) {
	for t, s := range columnTypeNames {
		if strings.EqualFold(s, name) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown column type: %q", name)
}

// Known returns true if t is one of the column types defined by the format.
func (t ColumnType) Known() bool {
	_, ok := columnTypeNames[t]
	return ok
}

func (t ColumnType) MarshalJSON() ([]byte, error) {
	if !t.Known() {
		return strconv.AppendUint(nil, uint64(t), 10), nil
	}
	return strconv.AppendQuote(nil, t.String()), nil
}

func (t *ColumnType) UnmarshalJSON(b []byte) error {
	code, err := parseEnum(b, "column type", func(name string) (uint64, bool) {
		c, err := ParseColumnType(name)
		return uint64(c), err == nil
	})
	*t = ColumnType(code)
	return err
}

// parseEnum decodes a JSON value holding either the name of an enumeration
// constant or its numeric code.
func parseEnum(b []byte, what string, lookup func(string) (uint64, bool)) (uint64, error) {
	s := string(b)
	if strings.HasPrefix(s, `"`) {
		name, err := strconv.Unquote(s)
		if err != nil {
			return 0, fmt.Errorf("decoding %s: %w", what, err)
		}
		code, ok := lookup(name)
		if !ok {
			return 0, fmt.Errorf("unknown %s: %q", what, name)
		}
		return code, nil
	}
	code, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("decoding %s: %w", what, err)
	}
	return code, nil
}

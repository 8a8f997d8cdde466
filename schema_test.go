package rntuple_test

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentio/rntuple-go"
	"github.com/segmentio/rntuple-go/format"
)

func field(parent uint32, name string) format.FieldDescription {
	return format.FieldDescription{ParentFieldID: parent, FieldName: name, TypeName: "float"}
}

func TestBuildSchema(t *testing.T) {
	schema, err := rntuple.BuildSchema([]format.FieldDescription{
		field(0, "evt"),
		field(0, "pt"),
		field(2, "hits"),
		field(2, "_0"),
		field(1, "eta"),
	})
	require.NoError(t, err)

	assert.Equal(t, 5, schema.NumFields())
	assert.Equal(t, []int{0, 2}, schema.Roots())
	assert.True(t, schema.Field(0).Parent().IsRoot())

	parent, ok := schema.Field(4).Parent().ID()
	assert.True(t, ok)
	assert.Equal(t, 1, parent)
	assert.Equal(t, "ChildOf(1)", schema.Field(4).Parent().String())
	assert.Equal(t, "Root", schema.Field(2).Parent().String())

	assert.Equal(t, []int{1}, schema.Field(0).Children())
	assert.Equal(t, []int{3}, schema.Field(2).Children())
	assert.Equal(t, []string{"evt", "pt", "eta"}, schema.Path(4))
	assert.Nil(t, schema.Field(5))
	assert.Nil(t, schema.Field(-1))
}

func TestBuildSchemaEmpty(t *testing.T) {
	schema, err := rntuple.BuildSchema(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, schema.NumFields())
	assert.Empty(t, schema.Roots())
}

func TestBuildSchemaOrderViolation(t *testing.T) {
	tests := []struct {
		scenario string
		fields   []format.FieldDescription
	}{
		{
			scenario: "parent after child",
			fields:   []format.FieldDescription{field(1, "pt"), field(1, "evt")},
		},

		{
			scenario: "parent out of range",
			fields:   []format.FieldDescription{field(0, "evt"), field(7, "pt")},
		},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			_, err := rntuple.BuildSchema(test.fields)
			assert.True(t, errors.Is(err, rntuple.ErrOrderViolation), "unexpected error: %v", err)
		})
	}
}

func TestBuildSchemaProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("well ordered descriptions always build", prop.ForAll(
		func(seeds []uint32) bool {
			fields := make([]format.FieldDescription, len(seeds))
			for i, seed := range seeds {
				// The parent is the field itself or one which appears before.
				fields[i] = field(seed%uint32(i+1), "f")
			}

			schema, err := rntuple.BuildSchema(fields)
			if err != nil || schema.NumFields() != len(fields) {
				return false
			}

			nodes := len(schema.Roots())
			for _, f := range schema.Fields() {
				nodes += len(f.Children())
			}
			return nodes == len(fields)
		},
		gen.SliceOf(gen.UInt32()),
	))

	properties.TestingRun(t)
}

func TestFieldDecoding(t *testing.T) {
	size := uint64(4)
	source := uint32(0)
	checksum := uint32(1234)

	schema, err := rntuple.BuildSchema([]format.FieldDescription{
		{
			FieldName:      "arr",
			TypeName:       "std::array<float,4>",
			TypeAlias:      "Vec4",
			Description:    "four floats",
			StructuralRole: format.Leaf,
			Flags:          format.FieldRepetitive | format.FieldHasTypeChecksum,
			ArraySize:      &size,
			TypeChecksum:   &checksum,
		},
		{
			FieldName:      "alias",
			TypeName:       "float",
			StructuralRole: format.Leaf,
			Flags:          format.FieldProjected,
			SourceFieldID:  &source,
			ParentFieldID:  1,
		},
		{
			FieldName:      "half",
			TypeName:       "float",
			StructuralRole: format.Leaf,
			Flags:          format.FieldRepetitive,
			ParentFieldID:  2,
		},
	})
	require.NoError(t, err)

	arr := schema.Field(0)
	assert.Equal(t, "std::array<float,4>, alias: Vec4, desc: four floats", arr.Type())
	assert.Equal(t, "Repetitive (Array Size: 4), Type Checksum (1234)", arr.FlagString())
	assert.Equal(t, "[0] arr: Leaf", arr.String())

	alias := schema.Field(1)
	assert.True(t, alias.Projected())
	assert.Equal(t, 0, alias.Flags().SourceFieldID)
	assert.Equal(t, "Projected (Source Field ID: 0)", alias.FlagString())
	assert.Equal(t, []int{1}, schema.Projections(0))

	half := schema.Field(2)
	assert.True(t, half.Flags().Repetitive)
	assert.Equal(t, uint64(0), half.Flags().ArraySize)
	assert.Equal(t, -1, half.Flags().SourceFieldID)
}

func TestWalk(t *testing.T) {
	schema, err := rntuple.BuildSchema([]format.FieldDescription{
		field(0, "a"),
		field(0, "a.b"),
		field(1, "a.b.c"),
		field(3, "d"),
		field(0, "a.e"),
		field(3, "d.f"),
	})
	require.NoError(t, err)

	type visit struct {
		name  string
		depth int
	}

	var visits []visit
	require.NoError(t, schema.Walk(func(f *rntuple.Field, depth int) error {
		visits = append(visits, visit{f.Name(), depth})
		return nil
	}))
	assert.Equal(t, []visit{
		{"a", 0}, {"a.b", 1}, {"a.b.c", 2}, {"a.e", 1}, {"d", 0}, {"d.f", 1},
	}, visits)

	visits = nil
	require.NoError(t, schema.Walk(func(f *rntuple.Field, depth int) error {
		visits = append(visits, visit{f.Name(), depth})
		if f.Name() == "a.b" {
			return rntuple.SkipField
		}
		return nil
	}))
	assert.Equal(t, []visit{
		{"a", 0}, {"a.b", 1}, {"a.e", 1}, {"d", 0}, {"d.f", 1},
	}, visits)

	stop := errors.New("stop")
	err = schema.Walk(func(f *rntuple.Field, depth int) error {
		if f.Name() == "a.e" {
			return stop
		}
		return nil
	})
	assert.Equal(t, stop, err)
}

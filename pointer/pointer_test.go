package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/schemagraph/pointer"
)

func TestMake_NormalizesRootAndEscapes(t *testing.T) {
	assert.Equal(t, pointer.Pointer("#/properties/a"), pointer.Make("#", "properties", "a"))
	assert.Equal(t, pointer.Pointer("#/properties/a"), pointer.Make("properties", "a"))
	assert.Equal(t, pointer.Root, pointer.Make())
	assert.Equal(t, pointer.Pointer("#/$defs/a~1b~0c"), pointer.Make("$defs", "a/b~c"))
}

func TestSegmentsAndLast_Unescape(t *testing.T) {
	p := pointer.Make("properties", "a/b")
	assert.Equal(t, []string{"properties", "a/b"}, pointer.Segments(p))
	assert.Equal(t, "a/b", pointer.Last(p))
	assert.Nil(t, pointer.Segments(pointer.Root))
	assert.Equal(t, "", pointer.Last(pointer.Root))
	assert.Equal(t, pointer.Root, pointer.Dir(pointer.Root))
}

func TestIsDescendant(t *testing.T) {
	cases := []struct {
		ancestor, candidate pointer.Pointer
		want                bool
	}{
		{"#/properties/a", "#/properties/a", true},
		{"#/properties/a", "#/properties/a/properties/b", true},
		{"#/properties/a", "#/properties/ab", false},
		{"#", "#/properties/a", true},
		{"#/properties/a/properties/b", "#/properties/a", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, pointer.IsDescendant(c.ancestor, c.candidate), "%s under %s", c.candidate, c.ancestor)
	}
}

func TestRewritePrefix(t *testing.T) {
	got := pointer.RewritePrefix("#/properties/a/properties/c", "#/properties/a", "#/properties/b")
	assert.Equal(t, pointer.Pointer("#/properties/b/properties/c"), got)

	unchanged := pointer.RewritePrefix("#/properties/ab", "#/properties/a", "#/properties/b")
	assert.Equal(t, pointer.Pointer("#/properties/ab"), unchanged)
}

func TestReplaceLast(t *testing.T) {
	assert.Equal(t, pointer.Pointer("#/$defs/Bar"), pointer.ReplaceLast("#/$defs/Foo", "Bar"))
	assert.Equal(t, pointer.Root, pointer.ReplaceLast(pointer.Root, "x"))
}

func TestUnique_SmallestFreeSuffix(t *testing.T) {
	taken := map[pointer.Pointer]bool{
		"#/properties/name":  true,
		"#/properties/name0": true,
		"#/properties/name2": true,
	}
	l := pointer.LookupFunc(func(p pointer.Pointer) bool { return taken[p] })
	assert.Equal(t, pointer.Pointer("#/properties/name1"), pointer.Unique(l, "#/properties/name"))
	assert.Equal(t, pointer.Pointer("#/properties/other"), pointer.Unique(l, "#/properties/other"))
}

func TestChildPointerLayout(t *testing.T) {
	assert.Equal(t, pointer.Pointer("#/properties/x/properties/a"), pointer.Property("#/properties/x", false, "a"))
	assert.Equal(t, pointer.Pointer("#/properties/x/items/properties/a"), pointer.Property("#/properties/x", true, "a"))
	assert.Equal(t, pointer.Pointer("#/properties/x/anyOf/2"), pointer.CombinationItem("#/properties/x", false, "anyOf", 2))
	assert.Equal(t, pointer.Pointer("#/properties/x/items/oneOf/0"), pointer.CombinationItem("#/properties/x", true, "oneOf", 0))
	assert.Equal(t, pointer.Pointer("#/definitions/Foo"), pointer.Definition(pointer.Definitions, "Foo"))
	assert.Equal(t, "anyOf", pointer.Category("#/properties/x/anyOf/2"))

	idx, ok := pointer.Index("#/properties/x/anyOf/2")
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	_, ok = pointer.Index(pointer.CombinationTemp("#/properties/x", false, "anyOf", 0))
	assert.False(t, ok)
}

func TestIsDefinition(t *testing.T) {
	assert.True(t, pointer.IsDefinition("#/$defs/Foo"))
	assert.True(t, pointer.IsDefinition("#/definitions/Foo"))
	assert.False(t, pointer.IsDefinition("#/$defs/Foo/properties/a"))
	assert.False(t, pointer.IsDefinition("#/properties/Foo"))
}

func TestParse(t *testing.T) {
	p, err := pointer.Parse("#/properties/a")
	require.NoError(t, err)
	assert.Equal(t, pointer.Pointer("#/properties/a"), p)

	_, err = pointer.Parse("https://example.com/schema.json")
	require.ErrorIs(t, err, pointer.ErrInvalid)
	assert.False(t, pointer.IsLocal("#anchor"))
	assert.True(t, pointer.IsLocal("#"))
}

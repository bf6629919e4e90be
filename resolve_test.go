package schemagraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schemagraph "github.com/reoring/schemagraph"
	"github.com/reoring/schemagraph/pointer"
)

func TestFindIncomingReferences(t *testing.T) {
	s, def := step(t)(schemagraph.New().AddDefinition("A"))
	s, x := step(t)(s.AddField(def, "x", schemagraph.TypeString))
	s, r1 := step(t)(s.AddReference(pointer.Root, "r1", def))
	s, r2 := step(t)(s.AddReference(pointer.Root, "r2", x))
	s, _ = step(t)(s.AddReference(pointer.Root, "r3", ""))

	assert.Equal(t, []pointer.Pointer{r1, r2}, schemagraph.FindIncomingReferences(s, def))
	assert.Equal(t, []pointer.Pointer{r2}, schemagraph.FindIncomingReferences(s, x))
	assert.Empty(t, schemagraph.FindIncomingReferences(s, r1))
}

func TestResolve(t *testing.T) {
	s, def := step(t)(schemagraph.New().AddDefinition("A"))
	s, r := step(t)(s.AddReference(pointer.Root, "r", def))
	s, unset := step(t)(s.AddReference(pointer.Root, "u", ""))

	n, err := schemagraph.Resolve(s, r)
	require.NoError(t, err)
	assert.Equal(t, def, n.Pointer)

	n, err = schemagraph.Resolve(s, def)
	require.NoError(t, err)
	assert.Equal(t, def, n.Pointer)

	_, err = schemagraph.Resolve(s, unset)
	assert.ErrorIs(t, err, schemagraph.ErrDanglingReference)
	_, err = schemagraph.Resolve(s, "#/properties/none")
	assert.ErrorIs(t, err, schemagraph.ErrNotFound)
}

func TestResolve_ChainFails(t *testing.T) {
	b := schemagraph.NewBuilder()
	b.Put(&schemagraph.Node{Pointer: pointer.Root, Shape: &schemagraph.Field{
		Type:     schemagraph.TypeObject,
		Children: []pointer.Pointer{"#/$defs/A", "#/$defs/B", "#/$defs/C"},
	}})
	b.Put(&schemagraph.Node{Pointer: "#/$defs/A", Shape: &schemagraph.Field{Type: schemagraph.TypeString}})
	b.Put(&schemagraph.Node{Pointer: "#/$defs/B", Shape: &schemagraph.Reference{Ref: "#/$defs/A"}})
	b.Put(&schemagraph.Node{Pointer: "#/$defs/C", Shape: &schemagraph.Reference{Ref: "#/$defs/B"}})
	s, err := b.Build()
	require.NoError(t, err)

	_, err = schemagraph.Resolve(s, "#/$defs/C")
	assert.ErrorIs(t, err, schemagraph.ErrReferenceChain)
	n, err := schemagraph.Resolve(s, "#/$defs/B")
	require.NoError(t, err)
	assert.Equal(t, pointer.Pointer("#/$defs/A"), n.Pointer)
}

func TestReachable_CycleSafe(t *testing.T) {
	s, def := step(t)(schemagraph.New().AddDefinition("A"))
	s, x := step(t)(s.AddField(def, "x", schemagraph.TypeString))
	s, self := step(t)(s.AddReference(def, "self", def))
	s, a := step(t)(s.AddReference(pointer.Root, "a", def))

	assert.Equal(t, []pointer.Pointer{def, self, x, a}, schemagraph.Reachable(s, a))
	assert.Equal(t, []pointer.Pointer{def, self, x}, schemagraph.Reachable(s, def))
}

func TestUnusedDefinitions(t *testing.T) {
	s, a := step(t)(schemagraph.New().AddDefinition("A"))
	s, b := step(t)(s.AddDefinition("B"))
	s, c := step(t)(s.AddDefinition("C"))
	s, d := step(t)(s.AddDefinition("D"))
	s, dx := step(t)(s.AddField(d, "x", schemagraph.TypeString))
	s, _ = step(t)(s.AddReference(pointer.Root, "useA", a))
	s, _ = step(t)(s.AddReference(b, "useC", c))
	s, _ = step(t)(s.AddReference(pointer.Root, "intoD", dx))

	assert.Equal(t, []pointer.Pointer{b, c}, schemagraph.UnusedDefinitions(s))
	assert.Empty(t, schemagraph.UnusedDefinitions(schemagraph.New()))
}

package schemagraph

import (
	"slices"

	"github.com/reoring/schemagraph/pointer"
)

// ObjectKind tags the variant carried by a Node.
type ObjectKind int

const (
	KindField ObjectKind = iota
	KindReference
	KindCombination
)

func (k ObjectKind) String() string {
	switch k {
	case KindField:
		return "field"
	case KindReference:
		return "reference"
	case KindCombination:
		return "combination"
	}
	return "unknown"
}

// FieldType is the primitive JSON Schema type of a Field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeInteger FieldType = "integer"
	TypeBoolean FieldType = "boolean"
	TypeObject  FieldType = "object"
	TypeArray   FieldType = "array"
	TypeNull    FieldType = "null"
)

// Valid reports whether t is one of the JSON Schema primitive types.
func (t FieldType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeObject, TypeArray, TypeNull:
		return true
	}
	return false
}

// CombinationKind is the combinator keyword of a Combination.
type CombinationKind string

const (
	AllOf CombinationKind = "allOf"
	AnyOf CombinationKind = "anyOf"
	OneOf CombinationKind = "oneOf"
)

// CombinationKinds lists the combinators in keyword-precedence order.
var CombinationKinds = []CombinationKind{AllOf, AnyOf, OneOf}

func (k CombinationKind) Valid() bool {
	return k == AllOf || k == AnyOf || k == OneOf
}

// Shape is the variant part of a Node: *Field, *Reference or *Combination.
type Shape interface {
	Kind() ObjectKind
	cloneShape() Shape
}

// Field is a node with a primitive type. Only object fields own children.
type Field struct {
	Type FieldType
	// Implicit is set when the document carried no usable "type" keyword;
	// the serializer then omits "type".
	Implicit bool
	Children []pointer.Pointer
	// RequiredOrder is the author's ordering of the "required" array. A
	// non-nil empty slice records an explicit empty array.
	RequiredOrder []string
	// ExtraRequired keeps required names that have no matching property.
	ExtraRequired []string
}

func (*Field) Kind() ObjectKind { return KindField }

func (f *Field) cloneShape() Shape {
	c := *f
	c.Children = slices.Clone(f.Children)
	c.RequiredOrder = slices.Clone(f.RequiredOrder)
	c.ExtraRequired = slices.Clone(f.ExtraRequired)
	return &c
}

// Reference points at another node. Ref == "" means unset.
type Reference struct {
	Ref pointer.Pointer
	// Mirrored is the type of the referenced node, kept for display. It is
	// recomputed after every mutation and never edited directly.
	Mirrored string
}

func (*Reference) Kind() ObjectKind { return KindReference }

func (r *Reference) cloneShape() Shape {
	c := *r
	return &c
}

// Combination is an allOf/anyOf/oneOf node whose children are positional.
type Combination struct {
	Combinator CombinationKind
	Children   []pointer.Pointer
}

func (*Combination) Kind() ObjectKind { return KindCombination }

func (c *Combination) cloneShape() Shape {
	cc := *c
	cc.Children = slices.Clone(c.Children)
	return &cc
}

// Keyword is one schema keyword kept verbatim.
type Keyword struct {
	Name  string
	Value any
}

// Keywords is an ordered keyword list.
type Keywords []Keyword

// Get returns the value of name.
func (ks Keywords) Get(name string) (any, bool) {
	for _, k := range ks {
		if k.Name == name {
			return k.Value, true
		}
	}
	return nil, false
}

// With returns a copy with name set to v, keeping its position when present.
func (ks Keywords) With(name string, v any) Keywords {
	out := slices.Clone(ks)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = v
			return out
		}
	}
	return append(out, Keyword{Name: name, Value: v})
}

// Without returns a copy without name.
func (ks Keywords) Without(name string) Keywords {
	return slices.DeleteFunc(slices.Clone(ks), func(k Keyword) bool { return k.Name == name })
}

// Node is one addressable unit of the schema graph.
type Node struct {
	Pointer     pointer.Pointer
	Shape       Shape
	IsRequired  bool
	IsArray     bool
	Title       string
	Description string
	// Enum is nil when the node has no "enum" keyword.
	Enum []any
	// Restrictions holds every non-structural keyword of the node body.
	Restrictions Keywords
	// ArrayRestrictions holds the keywords of the array wrapper when IsArray.
	ArrayRestrictions Keywords
	// KeywordOrder and ItemKeywordOrder record the author's key order of the
	// node (or of its array wrapper and items) for stable re-serialization.
	KeywordOrder     []string
	ItemKeywordOrder []string
}

// Kind returns the variant tag.
func (n *Node) Kind() ObjectKind { return n.Shape.Kind() }

// Name is the last pointer segment.
func (n *Node) Name() string { return pointer.Last(n.Pointer) }

// FieldType returns the primitive type of a Field, the combinator of a
// Combination, or the mirrored type of a Reference.
func (n *Node) FieldType() string {
	switch s := n.Shape.(type) {
	case *Field:
		return string(s.Type)
	case *Combination:
		return string(s.Combinator)
	case *Reference:
		return s.Mirrored
	}
	return ""
}

// Children returns the ordered child pointers (nil for references).
func (n *Node) Children() []pointer.Pointer {
	switch s := n.Shape.(type) {
	case *Field:
		return s.Children
	case *Combination:
		return s.Children
	}
	return nil
}

// Ref returns the referenced pointer of a Reference.
func (n *Node) Ref() (pointer.Pointer, bool) {
	if r, ok := n.Shape.(*Reference); ok {
		return r.Ref, true
	}
	return "", false
}

// Clone returns a deep copy. Keyword and enum values are shared; they are
// treated as immutable.
func (n *Node) Clone() *Node {
	c := *n
	if n.Shape != nil {
		c.Shape = n.Shape.cloneShape()
	}
	c.Enum = cloneEnum(n.Enum)
	c.Restrictions = slices.Clone(n.Restrictions)
	c.ArrayRestrictions = slices.Clone(n.ArrayRestrictions)
	c.KeywordOrder = slices.Clone(n.KeywordOrder)
	c.ItemKeywordOrder = slices.Clone(n.ItemKeywordOrder)
	return &c
}

func cloneEnum(e []any) []any {
	if e == nil {
		return nil
	}
	return append(make([]any, 0, len(e)), e...)
}

func (n *Node) setChildren(children []pointer.Pointer) {
	switch s := n.Shape.(type) {
	case *Field:
		s.Children = children
	case *Combination:
		s.Children = children
	}
}

// acceptsProperties reports whether named children can be added.
func (n *Node) acceptsProperties() bool {
	f, ok := n.Shape.(*Field)
	return ok && f.Type == TypeObject
}

// childPointer computes where the i-th child c of n belongs given n's current
// pointer, shape and array flag.
func childPointer(n *Node, i int, c pointer.Pointer) pointer.Pointer {
	if pointer.IsDefinition(c) {
		return c
	}
	if comb, ok := n.Shape.(*Combination); ok {
		return pointer.CombinationItem(n.Pointer, n.IsArray, string(comb.Combinator), i)
	}
	return pointer.Property(n.Pointer, n.IsArray, pointer.Last(c))
}

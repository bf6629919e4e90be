package schemagraph

import (
	"slices"

	"github.com/reoring/schemagraph/pointer"
)

// DefaultName is used for new properties and definitions created without a
// name.
const DefaultName = "name"

// keywords owned by the node model; SetRestriction refuses them.
var structuralKeywords = map[string]bool{
	"type": true, "properties": true, "required": true, "items": true, "$ref": true,
	"allOf": true, "anyOf": true, "oneOf": true, "$defs": true, "definitions": true,
	"title": true, "description": true, "enum": true,
}

// keywords that describe the array wrapper rather than its items.
var arrayKeywords = map[string]bool{
	"minItems": true, "maxItems": true, "uniqueItems": true, "contains": true,
	"minContains": true, "maxContains": true, "prefixItems": true,
	"additionalItems": true, "unevaluatedItems": true,
}

// IsStructuralKeyword reports whether key is represented by the node model
// itself rather than kept as a restriction.
func IsStructuralKeyword(key string) bool { return structuralKeywords[key] }

// AddProperty appends an object field called name (DefaultName when empty)
// to parent and returns its pointer. Under an object field the name is made
// unique among siblings; under a combination the child is the next item.
func (s *Store) AddProperty(parent pointer.Pointer, name string) (*Store, pointer.Pointer, error) {
	return s.AddField(parent, name, TypeObject)
}

// AddCombinationItem appends a string field to the combination at parent.
func (s *Store) AddCombinationItem(parent pointer.Pointer) (*Store, pointer.Pointer, error) {
	n, ok := s.nodes[parent]
	if !ok {
		return nil, "", notFound(parent)
	}
	if n.Kind() != KindCombination {
		return nil, "", NewError(CodeInvalidParent, parent, "not a combination")
	}
	return s.AddField(parent, "", TypeString)
}

// AddField appends a field of type typ to parent.
func (s *Store) AddField(parent pointer.Pointer, name string, typ FieldType) (*Store, pointer.Pointer, error) {
	if !typ.Valid() {
		return nil, "", NewError(CodeInvalidValue, parent, "unknown type "+string(typ), "type", typ)
	}
	return s.addChild(parent, name, &Field{Type: typ})
}

// AddCombination appends an empty combination of kind to parent.
func (s *Store) AddCombination(parent pointer.Pointer, name string, kind CombinationKind) (*Store, pointer.Pointer, error) {
	if !kind.Valid() {
		return nil, "", NewError(CodeInvalidValue, parent, "unknown combinator "+string(kind), "kind", kind)
	}
	return s.addChild(parent, name, &Combination{Combinator: kind})
}

// AddReference appends a reference to ref under parent. ref may be "".
func (s *Store) AddReference(parent pointer.Pointer, name string, ref pointer.Pointer) (*Store, pointer.Pointer, error) {
	if ref != "" {
		if err := s.checkRefTarget("", ref); err != nil {
			return nil, "", err
		}
	}
	return s.addChild(parent, name, &Reference{Ref: ref})
}

// AddDefinition creates an empty object definition under the store's
// definitions keyword.
func (s *Store) AddDefinition(name string) (*Store, pointer.Pointer, error) {
	if name == "" {
		name = DefaultName
	}
	p := pointer.Unique(s, pointer.Definition(s.defsKeyword, name))
	next := s.clone()
	next.nodes[p] = &Node{Pointer: p, Shape: &Field{Type: TypeObject}}
	root := next.nodes[pointer.Root]
	root.setChildren(append(slices.Clone(root.Children()), p))
	root.Restrictions = root.Restrictions.Without(s.defsKeyword)
	next.commit()
	return next, p, nil
}

func (s *Store) addChild(parent pointer.Pointer, name string, shape Shape) (*Store, pointer.Pointer, error) {
	pn, ok := s.nodes[parent]
	if !ok {
		return nil, "", notFound(parent)
	}
	if name == "" {
		name = DefaultName
	}
	var p pointer.Pointer
	switch sh := pn.Shape.(type) {
	case *Combination:
		p = pointer.CombinationItem(parent, pn.IsArray, string(sh.Combinator), len(sh.Children))
	case *Field:
		if sh.Type != TypeObject {
			return nil, "", NewError(CodeInvalidParent, parent, string(sh.Type)+" fields have no properties")
		}
		p = pointer.Unique(s, pointer.Property(parent, pn.IsArray, name))
	default:
		return nil, "", NewError(CodeInvalidParent, parent, "references have no children")
	}
	next := s.clone()
	next.nodes[p] = &Node{Pointer: p, Shape: shape}
	parentNode := next.nodes[parent]
	parentNode.setChildren(append(slices.Clone(parentNode.Children()), p))
	if f, ok := parentNode.Shape.(*Field); ok {
		parentNode.Restrictions = parentNode.Restrictions.Without("properties")
		f.adoptRequired("", pointer.Last(p))
	}
	next.commit()
	return next, p, nil
}

// DeleteProperty removes the node at p with its subtree and returns the
// removed pointer so callers can drop a selection on it. Items after a
// removed combination item are shifted down; refs into them follow.
func (s *Store) DeleteProperty(p pointer.Pointer) (*Store, pointer.Pointer, error) {
	if p == pointer.Root {
		return nil, "", NewError(CodeRootDeletion, p, "the root cannot be deleted")
	}
	if !s.Has(p) {
		return nil, "", notFound(p)
	}
	if refs := s.externalReferrers(p, true); len(refs) > 0 {
		return nil, "", NewError(CodeInUse, p, "referenced by other nodes", "referrers", refs)
	}
	next := s.clone()
	parent := next.removeSubtree(p)
	if pn := next.nodes[parent]; pn != nil && pn.Kind() == KindCombination {
		if err := next.syncChildren(parent); err != nil {
			return nil, "", err
		}
	}
	next.commit()
	return next, p, nil
}

// DeleteCombinationItem is DeleteProperty restricted to combination items.
// A combination may be left with no items.
func (s *Store) DeleteCombinationItem(p pointer.Pointer) (*Store, pointer.Pointer, error) {
	if !s.Has(p) {
		return nil, "", notFound(p)
	}
	if pn := s.nodes[s.parentOf(p)]; pn == nil || pn.Kind() != KindCombination {
		return nil, "", NewError(CodeInvalidParent, p, "not a combination item")
	}
	return s.DeleteProperty(p)
}

// RenamePropertyName renames the last segment of p. An empty or unchanged
// name is a no-op that returns s itself. A taken name gets a numeric suffix.
func (s *Store) RenamePropertyName(p pointer.Pointer, name string) (*Store, pointer.Pointer, error) {
	if p == pointer.Root {
		return nil, "", NewError(CodeRootDeletion, p, "the root cannot be renamed")
	}
	if !s.Has(p) {
		return nil, "", notFound(p)
	}
	if name == "" || name == pointer.Last(p) {
		return s, p, nil
	}
	parent := s.nodes[s.parentOf(p)]
	if parent == nil {
		return nil, "", NewError(CodeInvalidParent, p, "detached node")
	}
	if parent.Kind() == KindCombination {
		return nil, "", NewError(CodeInvalidParent, p, "combination items are positional")
	}
	siblings := pointer.LookupFunc(func(q pointer.Pointer) bool { return slices.Contains(parent.Children(), q) })
	target := pointer.Unique(siblings, pointer.ReplaceLast(p, name))
	next := s.clone()
	if err := next.renamePrefix(p, target); err != nil {
		return nil, "", err
	}
	if f, ok := next.nodes[parent.Pointer].Shape.(*Field); ok && !pointer.IsDefinition(p) {
		f.adoptRequired(pointer.Last(p), pointer.Last(target))
	}
	next.commit()
	return next, target, nil
}

// Promote moves the inline node at p to a new definition named after its
// last segment and leaves a reference to it at p. It returns the definition
// pointer. Refs that pointed into p now point into the definition.
func (s *Store) Promote(p pointer.Pointer) (*Store, pointer.Pointer, error) {
	if p == pointer.Root {
		return nil, "", NewError(CodeRootDeletion, p, "the root cannot be promoted")
	}
	n, ok := s.nodes[p]
	switch {
	case !ok:
		return nil, "", notFound(p)
	case n.Kind() == KindReference:
		return nil, "", NewError(CodeInvalidParent, p, "already a reference")
	case pointer.IsDefinition(p):
		return nil, "", NewError(CodeInvalidParent, p, "already a definition")
	}
	def := pointer.Unique(s, pointer.Definition(s.defsKeyword, pointer.Last(p)))

	next := s.clone()
	parent := next.parentOf(p)
	if err := next.renamePrefix(p, def); err != nil {
		return nil, "", err
	}
	pn := next.nodes[parent]
	children := slices.Clone(pn.Children())
	children[slices.Index(children, def)] = p
	pn.setChildren(children)
	root := next.nodes[pointer.Root]
	root.setChildren(append(slices.Clone(root.Children()), def))

	dn := next.nodes[def]
	ref := &Node{
		Pointer:    p,
		Shape:      &Reference{Ref: def},
		IsRequired: dn.IsRequired,
		IsArray:    dn.IsArray,
	}
	dn.IsRequired = false
	if dn.IsArray {
		ref.ArrayRestrictions, dn.ArrayRestrictions = dn.ArrayRestrictions, nil
		ref.KeywordOrder = dn.KeywordOrder
		dn.KeywordOrder, dn.ItemKeywordOrder = dn.ItemKeywordOrder, nil
		dn.IsArray = false
		if err := next.syncChildren(def); err != nil {
			return nil, "", err
		}
	}
	next.nodes[p] = ref
	next.commit()
	return next, def, nil
}

// SetCombinatorKind switches the combination at p to kind; item pointers and
// refs into them follow.
func (s *Store) SetCombinatorKind(p pointer.Pointer, kind CombinationKind) (*Store, error) {
	n, ok := s.nodes[p]
	if !ok {
		return nil, notFound(p)
	}
	c, ok := n.Shape.(*Combination)
	if !ok {
		return nil, NewError(CodeInvalidParent, p, "not a combination")
	}
	if !kind.Valid() {
		return nil, NewError(CodeInvalidValue, p, "unknown combinator "+string(kind), "kind", kind)
	}
	if c.Combinator == kind {
		return s, nil
	}
	next := s.clone()
	nn := next.nodes[p]
	old := nn.Shape.(*Combination).Combinator
	nn.Shape.(*Combination).Combinator = kind
	nn.Restrictions = nn.Restrictions.Without(string(kind))
	if nn.IsArray {
		nn.ItemKeywordOrder = replaceKey(nn.ItemKeywordOrder, string(old), string(kind))
	} else {
		nn.KeywordOrder = replaceKey(nn.KeywordOrder, string(old), string(kind))
	}
	if err := next.syncChildren(p); err != nil {
		return nil, err
	}
	next.commit()
	return next, nil
}

// SetReference turns p into a reference to ref ("" leaves it unset). The
// node's children and type-specific keywords are dropped.
func (s *Store) SetReference(p, ref pointer.Pointer) (*Store, error) {
	if p == pointer.Root {
		return nil, NewError(CodeInvalidParent, p, "the root cannot be a reference")
	}
	n, ok := s.nodes[p]
	if !ok {
		return nil, notFound(p)
	}
	if ref != "" {
		if err := s.checkRefTarget(p, ref); err != nil {
			return nil, err
		}
	}
	if n.Kind() != KindReference {
		if refs := s.externalReferrers(p, false); len(refs) > 0 {
			return nil, NewError(CodeInUse, p, "descendants are referenced by other nodes", "referrers", refs)
		}
		if refs := exact(s, p); len(refs) > 0 {
			return nil, NewError(CodeReferenceChain, p, "other references point at this node", "referrers", refs)
		}
	}
	next := s.clone()
	for _, c := range slices.Clone(next.nodes[p].Children()) {
		next.removeSubtree(c)
	}
	nn := next.nodes[p]
	if r, ok := nn.Shape.(*Reference); ok {
		r.Ref = ref
	} else {
		nn.Shape = &Reference{Ref: ref}
		nn.Enum = nil
		nn.Restrictions = nil
	}
	next.commit()
	return next, nil
}

// SetRequired flags a property of an object as required.
func (s *Store) SetRequired(p pointer.Pointer, required bool) (*Store, error) {
	if !s.Has(p) {
		return nil, notFound(p)
	}
	if p == pointer.Root || pointer.IsDefinition(p) {
		return nil, NewError(CodeInvalidParent, p, "only properties can be required")
	}
	if pn := s.nodes[s.parentOf(p)]; pn == nil || !pn.acceptsProperties() {
		return nil, NewError(CodeInvalidParent, p, "only properties can be required")
	}
	next, err := s.update(p, func(n *Node) { n.IsRequired = required })
	if err != nil {
		return nil, err
	}
	pn := next.nodes[next.parentOf(p)]
	pn.Restrictions = pn.Restrictions.Without("required")
	return next, nil
}

// SetTitle sets the title of p ("" removes it).
func (s *Store) SetTitle(p pointer.Pointer, title string) (*Store, error) {
	return s.update(p, func(n *Node) {
		n.Title = title
		n.dropOwned("title")
	})
}

// SetDescription sets the description of p ("" removes it).
func (s *Store) SetDescription(p pointer.Pointer, desc string) (*Store, error) {
	return s.update(p, func(n *Node) {
		n.Description = desc
		n.dropOwned("description")
	})
}

// SetEnum replaces the allowed values of p; nil removes the keyword.
func (s *Store) SetEnum(p pointer.Pointer, values []any) (*Store, error) {
	return s.update(p, func(n *Node) {
		n.Enum = cloneEnum(values)
		n.Restrictions = n.Restrictions.Without("enum")
	})
}

// SetRestriction stores keyword key with value on p. Array keywords of an
// array node go to its wrapper.
func (s *Store) SetRestriction(p pointer.Pointer, key string, value any) (*Store, error) {
	if key == "" || structuralKeywords[key] {
		return nil, NewError(CodeInvalidValue, p, "keyword "+key+" cannot be set as a restriction", "key", key)
	}
	return s.update(p, func(n *Node) {
		if n.IsArray && arrayKeywords[key] {
			n.ArrayRestrictions = n.ArrayRestrictions.With(key, value)
			return
		}
		n.Restrictions = n.Restrictions.With(key, value)
	})
}

// DeleteRestriction removes keyword key from p.
func (s *Store) DeleteRestriction(p pointer.Pointer, key string) (*Store, error) {
	return s.update(p, func(n *Node) {
		n.Restrictions = n.Restrictions.Without(key)
		n.ArrayRestrictions = n.ArrayRestrictions.Without(key)
	})
}

// SetFieldType retypes the field at p. Leaving object drops its properties,
// which fails with InUse while any of them is referenced from outside.
func (s *Store) SetFieldType(p pointer.Pointer, typ FieldType) (*Store, error) {
	n, ok := s.nodes[p]
	if !ok {
		return nil, notFound(p)
	}
	f, ok := n.Shape.(*Field)
	if !ok {
		return nil, NewError(CodeInvalidParent, p, "only fields have a primitive type")
	}
	if !typ.Valid() {
		return nil, NewError(CodeInvalidValue, p, "unknown type "+string(typ), "type", typ)
	}
	if p == pointer.Root && typ != TypeObject {
		return nil, NewError(CodeInvalidParent, p, "the root is an object")
	}
	if f.Type == typ && !f.Implicit {
		return s, nil
	}
	if typ != TypeObject {
		if refs := s.externalReferrers(p, false); len(refs) > 0 {
			return nil, NewError(CodeInUse, p, "properties are referenced by other nodes", "referrers", refs)
		}
	}
	next := s.clone()
	if typ != TypeObject {
		for _, c := range slices.Clone(next.nodes[p].Children()) {
			next.removeSubtree(c)
		}
	}
	nn := next.nodes[p]
	nf := nn.Shape.(*Field)
	nf.Type, nf.Implicit = typ, false
	nn.Restrictions = nn.Restrictions.Without("type")
	if typ != TypeObject {
		nf.RequiredOrder, nf.ExtraRequired = nil, nil
	}
	next.commit()
	return next, nil
}

// SetArray wraps p in an array (items carry the node body) or unwraps it.
// Child pointers gain or lose the "items" segment; refs follow.
func (s *Store) SetArray(p pointer.Pointer, on bool) (*Store, error) {
	if p == pointer.Root {
		return nil, NewError(CodeInvalidParent, p, "the root cannot be an array")
	}
	n, ok := s.nodes[p]
	if !ok {
		return nil, notFound(p)
	}
	if n.IsArray == on {
		return s, nil
	}
	next := s.clone()
	nn := next.nodes[p]
	nn.IsArray = on
	if on {
		nn.KeywordOrder, nn.ItemKeywordOrder = nil, nn.KeywordOrder
	} else {
		nn.KeywordOrder, nn.ItemKeywordOrder = nn.ItemKeywordOrder, nil
		nn.ArrayRestrictions = nil
	}
	if err := next.syncChildren(p); err != nil {
		return nil, err
	}
	next.commit()
	return next, nil
}

// MoveNode moves p to position index among the children of target (an
// object field or a combination); index is clamped. Within the same parent
// this is a reorder. It returns the node's new pointer.
func (s *Store) MoveNode(p, target pointer.Pointer, index int) (*Store, pointer.Pointer, error) {
	if p == pointer.Root {
		return nil, "", NewError(CodeRootDeletion, p, "the root cannot be moved")
	}
	if !s.Has(p) {
		return nil, "", notFound(p)
	}
	tn, ok := s.nodes[target]
	if !ok {
		return nil, "", notFound(target)
	}
	if pointer.IsDescendant(p, target) {
		return nil, "", NewError(CodeInvalidParent, target, "cannot move "+string(p)+" below itself")
	}
	if pointer.IsDefinition(p) {
		return nil, "", NewError(CodeInvalidParent, p, "definitions stay at the root")
	}
	if tn.Kind() != KindCombination && !tn.acceptsProperties() {
		return nil, "", NewError(CodeInvalidParent, target, "target cannot hold children")
	}

	next := s.clone()
	parent := next.parentOf(p)
	if parent == target {
		pn := next.nodes[parent]
		children := slices.DeleteFunc(slices.Clone(pn.Children()), func(c pointer.Pointer) bool { return c == p })
		pn.setChildren(slices.Insert(children, clamp(index, len(children)), p))
		if err := next.syncChildren(parent); err != nil {
			return nil, "", err
		}
		next.commit()
		return next, next.follow(p), nil
	}

	var dest pointer.Pointer
	if tn.Kind() == KindCombination {
		dest = pointer.Child(target, "~move")
	} else {
		dest = pointer.Unique(next, pointer.Property(target, tn.IsArray, pointer.Last(p)))
	}
	next.detach(p)
	if err := next.renamePrefix(p, dest); err != nil {
		return nil, "", err
	}
	tnn := next.nodes[target]
	children := slices.Clone(tnn.Children())
	tnn.setChildren(slices.Insert(children, clamp(index, len(children)), dest))
	if f, ok := tnn.Shape.(*Field); ok {
		tnn.Restrictions = tnn.Restrictions.Without("properties")
		f.adoptRequired("", pointer.Last(dest))
	} else {
		next.nodes[dest].IsRequired = false
	}
	if err := next.syncChildren(target); err != nil {
		return nil, "", err
	}
	if pn := next.nodes[next.follow(parent)]; pn != nil && pn.Kind() == KindCombination {
		if err := next.syncChildren(pn.Pointer); err != nil {
			return nil, "", err
		}
	}
	next.commit()
	return next, next.follow(p), nil
}

// update applies fn to a copy of the node at p.
func (s *Store) update(p pointer.Pointer, fn func(*Node)) (*Store, error) {
	if !s.Has(p) {
		return nil, notFound(p)
	}
	next := s.clone()
	fn(next.nodes[p])
	next.commit()
	return next, nil
}

// externalReferrers lists references from outside the subtree of p that
// point at p (when self is set) or strictly below it.
func (s *Store) externalReferrers(p pointer.Pointer, self bool) []pointer.Pointer {
	var out []pointer.Pointer
	for _, r := range FindIncomingReferences(s, p) {
		if pointer.IsDescendant(p, r) {
			continue
		}
		if ref, _ := s.nodes[r].Ref(); ref == p && !self {
			continue
		}
		out = append(out, r)
	}
	return out
}

// exact lists references outside p whose ref is exactly p.
func exact(s *Store, p pointer.Pointer) []pointer.Pointer {
	var out []pointer.Pointer
	for _, r := range FindIncomingReferences(s, p) {
		if ref, _ := s.nodes[r].Ref(); ref == p && !pointer.IsDescendant(p, r) {
			out = append(out, r)
		}
	}
	return out
}

// dropOwned removes a verbatim copy of key, which the node model now holds:
// on the wrapper of an array node, on the body otherwise.
func (n *Node) dropOwned(key string) {
	if n.IsArray {
		n.ArrayRestrictions = n.ArrayRestrictions.Without(key)
		return
	}
	n.Restrictions = n.Restrictions.Without(key)
}

// adoptRequired keeps the "required" bookkeeping of f in step when the
// property old is renamed to name, or when name is added (old == ""). A
// required name that had no property now belongs to the new one, whose own
// flag decides whether it stays listed. A renamed property keeps its slot.
func (f *Field) adoptRequired(old, name string) {
	if slices.Contains(f.ExtraRequired, name) {
		f.ExtraRequired = slices.DeleteFunc(slices.Clone(f.ExtraRequired), func(e string) bool { return e == name })
		if old != "" {
			f.RequiredOrder = slices.DeleteFunc(slices.Clone(f.RequiredOrder), func(e string) bool { return e == old })
		}
		return
	}
	if old == "" {
		return
	}
	order := slices.Clone(f.RequiredOrder)
	for i, e := range order {
		if e == old {
			order[i] = name
		}
	}
	f.RequiredOrder = order
}

func replaceKey(keys []string, old, repl string) []string {
	out := slices.Clone(keys)
	if i := slices.Index(out, old); i >= 0 {
		out[i] = repl
	}
	return out
}

func clamp(i, n int) int {
	return max(0, min(i, n))
}

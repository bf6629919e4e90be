package schemagraph

import (
	"fmt"
	"slices"
	"sort"

	"github.com/reoring/schemagraph/pointer"
)

// Store maps pointers to nodes. It is a persistent value: every mutation
// returns a new Store and leaves the receiver untouched, so a Store can be
// shared freely between readers.
type Store struct {
	nodes       map[pointer.Pointer]*Node
	defsKeyword string
	// moves records the renames (to != "") and removals (to == "") performed
	// by the mutation that produced this store, in order.
	moves []move
}

type move struct{ from, to pointer.Pointer }

// Option configures a new Store.
type Option func(*Store)

// WithDefinitionsKeyword selects "$defs" (default) or "definitions" as the
// keyword new definitions are created under.
func WithDefinitionsKeyword(kw string) Option {
	return func(s *Store) {
		if kw == pointer.Definitions {
			s.defsKeyword = kw
		}
	}
}

func newEmpty(opts ...Option) *Store {
	s := &Store{nodes: map[pointer.Pointer]*Node{}, defsKeyword: pointer.Defs}
	for _, o := range opts {
		o(s)
	}
	return s
}

// New returns a store holding only an implicit object root.
func New(opts ...Option) *Store {
	s := newEmpty(opts...)
	s.nodes[pointer.Root] = &Node{Pointer: pointer.Root, Shape: &Field{Type: TypeObject, Implicit: true}}
	return s
}

// DefinitionsKeyword is "$defs" or "definitions".
func (s *Store) DefinitionsKeyword() string { return s.defsKeyword }

// Has reports whether p is a node of s. It makes Store a pointer.Lookup.
func (s *Store) Has(p pointer.Pointer) bool {
	_, ok := s.nodes[p]
	return ok
}

// Get returns a copy of the node at p.
func (s *Store) Get(p pointer.Pointer) (*Node, error) {
	n, ok := s.nodes[p]
	if !ok {
		return nil, notFound(p)
	}
	return n.Clone(), nil
}

// Root returns a copy of the root node.
func (s *Store) Root() *Node { return s.nodes[pointer.Root].Clone() }

// Children resolves the children of p in order.
func (s *Store) Children(p pointer.Pointer) ([]*Node, error) {
	n, ok := s.nodes[p]
	if !ok {
		return nil, notFound(p)
	}
	out := make([]*Node, 0, len(n.Children()))
	for _, c := range n.Children() {
		cn, ok := s.nodes[c]
		if !ok {
			return nil, notFound(c).Wrap(fmt.Errorf("listed as a child of %s", p))
		}
		out = append(out, cn.Clone())
	}
	return out, nil
}

// Pointers returns every pointer in lexical order.
func (s *Store) Pointers() []pointer.Pointer {
	out := make([]pointer.Pointer, 0, len(s.nodes))
	for p := range s.nodes {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len is the number of nodes, root included.
func (s *Store) Len() int { return len(s.nodes) }

// Definitions returns the definition pointers in document order.
func (s *Store) Definitions() []pointer.Pointer {
	var out []pointer.Pointer
	for _, c := range s.nodes[pointer.Root].Children() {
		if pointer.IsDefinition(c) {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits the tree depth-first in children order, starting at the root.
// A non-nil error from fn stops the walk and is returned.
func (s *Store) Walk(fn func(depth int, n *Node) error) error {
	var visit func(p pointer.Pointer, depth int) error
	visit = func(p pointer.Pointer, depth int) error {
		n, ok := s.nodes[p]
		if !ok {
			return notFound(p)
		}
		if err := fn(depth, n.Clone()); err != nil {
			return err
		}
		for _, c := range n.Children() {
			if err := visit(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(pointer.Root, 0)
}

// Follow maps a pointer that was valid before the mutation producing s to
// its pointer in s. It returns false when that mutation removed the node.
func (s *Store) Follow(p pointer.Pointer) (pointer.Pointer, bool) {
	for _, m := range s.moves {
		if !pointer.IsDescendant(m.from, p) {
			continue
		}
		if m.to == "" {
			return "", false
		}
		p = pointer.RewritePrefix(p, m.from, m.to)
	}
	return p, s.Has(p)
}

// Set inserts or replaces n. Children of n must exist and must not be owned
// by another node; a reference must resolve. A new node is appended to the
// children of the node its pointer names as parent. On a replacement, old
// children that n no longer lists are removed with their subtrees, and kept
// children are renamed to match the layout of n (array wrapper, combinator);
// refs follow. The resulting graph must pass Validate.
func (s *Store) Set(n *Node) (*Store, error) {
	if n == nil || n.Shape == nil {
		return nil, NewError(CodeInvalidValue, "", "node without shape")
	}
	if _, err := pointer.Parse(string(n.Pointer)); err != nil {
		return nil, NewError(CodeInvalidValue, n.Pointer, "malformed pointer").Wrap(err)
	}
	for _, c := range n.Children() {
		if !s.Has(c) {
			return nil, notFound(c)
		}
		if owner := s.parentOf(c); owner != "" && owner != n.Pointer {
			return nil, NewError(CodeInvalidParent, c, "already owned by "+string(owner), "owner", owner)
		}
	}
	if ref, ok := n.Ref(); ok && ref != "" {
		if err := s.checkRefTarget(n.Pointer, ref); err != nil {
			return nil, err
		}
	}

	old, replacing := s.nodes[n.Pointer]
	if replacing && n.Kind() == KindReference && old.Kind() != KindReference {
		if refs := exact(s, n.Pointer); len(refs) > 0 {
			return nil, NewError(CodeReferenceChain, n.Pointer, "other references point at this node", "referrers", refs)
		}
	}
	next := s.clone()
	next.nodes[n.Pointer] = n.Clone()
	if replacing {
		var dropped []pointer.Pointer
		for _, c := range old.Children() {
			if !slices.Contains(n.Children(), c) {
				dropped = append(dropped, c)
			}
		}
		within := func(r pointer.Pointer) bool {
			return slices.ContainsFunc(dropped, func(d pointer.Pointer) bool { return pointer.IsDescendant(d, r) })
		}
		for _, c := range dropped {
			if refs := slices.DeleteFunc(s.externalReferrers(c, true), within); len(refs) > 0 {
				return nil, NewError(CodeInUse, c, "referenced by other nodes", "referrers", refs)
			}
		}
		for _, c := range dropped {
			next.removeSubtree(c)
		}
		if err := next.syncChildren(n.Pointer); err != nil {
			return nil, err
		}
	} else {
		parent := parentGuess(n.Pointer)
		pn, ok := next.nodes[parent]
		if !ok {
			return nil, notFound(parent)
		}
		pn.setChildren(append(slices.Clone(pn.Children()), n.Pointer))
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	next.commit()
	return next, nil
}

// RenamePrefix moves the node at from, with its subtree, to the pointer to.
// The parent's children entry and every ref into the subtree follow.
func (s *Store) RenamePrefix(from, to pointer.Pointer) (*Store, error) {
	next := s.clone()
	if err := next.renamePrefix(from, to); err != nil {
		return nil, err
	}
	next.commit()
	return next, nil
}

// Validate checks the structural invariants of the graph: a field root,
// pointer layout, single ownership, no dangling children or refs.
func (s *Store) Validate() error {
	root, ok := s.nodes[pointer.Root]
	if !ok {
		return notFound(pointer.Root)
	}
	if !root.acceptsProperties() || root.IsArray {
		return NewError(CodeInvalidParent, pointer.Root, "root must be an object field")
	}
	owner := make(map[pointer.Pointer]pointer.Pointer, len(s.nodes))
	for _, p := range s.Pointers() {
		n := s.nodes[p]
		if n.Pointer != p {
			return NewError(CodeInvalidValue, p, "node stored under "+string(p)+" claims "+string(n.Pointer))
		}
		if n.Shape == nil {
			return NewError(CodeInvalidValue, p, "node without shape")
		}
		if f, ok := n.Shape.(*Field); ok && f.Type != TypeObject && len(f.Children) > 0 {
			return NewError(CodeInvalidParent, p, "only object fields own properties")
		}
		for i, c := range n.Children() {
			if _, ok := s.nodes[c]; !ok {
				return notFound(c).Wrap(fmt.Errorf("listed as a child of %s", p))
			}
			if prev, dup := owner[c]; dup {
				return NewError(CodeInvalidParent, c, fmt.Sprintf("owned by both %s and %s", prev, p))
			}
			owner[c] = p
			if pointer.IsDefinition(c) && p != pointer.Root {
				return NewError(CodeInvalidParent, c, "definitions belong to the root")
			}
			if want := childPointer(n, i, c); want != c {
				return NewError(CodeInvalidValue, c, "expected pointer "+string(want), "want", want)
			}
		}
		if ref, ok := n.Ref(); ok && ref != "" && !s.Has(ref) {
			return NewError(CodeDanglingReference, p, "ref "+string(ref)+" does not resolve", "ref", ref)
		}
	}
	for p := range s.nodes {
		if _, owned := owner[p]; !owned && p != pointer.Root {
			return NewError(CodeInvalidParent, p, "node has no parent")
		}
	}
	return nil
}

// Builder assembles a store node by node, for decoders that know the whole
// graph up front. Nothing is checked until Build.
type Builder struct{ s *Store }

// NewBuilder returns an empty builder; Put the root before Build.
func NewBuilder(opts ...Option) *Builder { return &Builder{s: newEmpty(opts...)} }

// Put adds or replaces n. The builder takes ownership of n.
func (b *Builder) Put(n *Node) { b.s.nodes[n.Pointer] = n }

// Build validates the graph and returns it as a Store.
func (b *Builder) Build() (*Store, error) {
	if err := b.s.Validate(); err != nil {
		return nil, err
	}
	s := b.s.clone()
	s.commit()
	return s, nil
}

func (s *Store) clone() *Store {
	next := &Store{nodes: make(map[pointer.Pointer]*Node, len(s.nodes)), defsKeyword: s.defsKeyword}
	for p, n := range s.nodes {
		next.nodes[p] = n.Clone()
	}
	return next
}

// commit refreshes the denormalized state after a mutation.
func (s *Store) commit() { s.syncMirrors() }

// syncMirrors copies the type of each reference's final target into the
// reference. Broken or cyclic chains mirror "".
func (s *Store) syncMirrors() {
	for _, n := range s.nodes {
		r, ok := n.Shape.(*Reference)
		if !ok {
			continue
		}
		r.Mirrored = ""
		seen := map[pointer.Pointer]bool{n.Pointer: true}
		for ref := r.Ref; ref != "" && !seen[ref]; {
			seen[ref] = true
			t, ok := s.nodes[ref]
			if !ok {
				break
			}
			next, isRef := t.Ref()
			if !isRef {
				r.Mirrored = t.FieldType()
				break
			}
			ref = next
		}
	}
}

// parentOf returns the owner of p, or "" for the root and detached nodes.
func (s *Store) parentOf(p pointer.Pointer) pointer.Pointer {
	if dir := s.nodes[parentGuess(p)]; dir != nil && slices.Contains(dir.Children(), p) {
		return dir.Pointer
	}
	for q, n := range s.nodes {
		if slices.Contains(n.Children(), p) {
			return q
		}
	}
	return ""
}

// parentGuess strips the layout segments of p to find its usual owner.
func parentGuess(p pointer.Pointer) pointer.Pointer {
	if pointer.IsDefinition(p) {
		return pointer.Root
	}
	q := pointer.Dir(pointer.Dir(p))
	if pointer.Last(q) == pointer.Items {
		q = pointer.Dir(q)
	}
	return q
}

func (s *Store) subtree(p pointer.Pointer) []pointer.Pointer {
	var out []pointer.Pointer
	for q := range s.nodes {
		if pointer.IsDescendant(p, q) {
			out = append(out, q)
		}
	}
	return out
}

// detach removes p from its parent's children and returns the parent.
func (s *Store) detach(p pointer.Pointer) pointer.Pointer {
	parent := s.parentOf(p)
	if parent == "" {
		return ""
	}
	pn := s.nodes[parent]
	pn.setChildren(slices.DeleteFunc(slices.Clone(pn.Children()), func(c pointer.Pointer) bool { return c == p }))
	return parent
}

// removeSubtree deletes p and its descendants and detaches p.
func (s *Store) removeSubtree(p pointer.Pointer) pointer.Pointer {
	parent := s.detach(p)
	for _, q := range s.subtree(p) {
		delete(s.nodes, q)
	}
	s.moves = append(s.moves, move{from: p})
	return parent
}

// renamePrefix rewrites keys, children and refs in place. On error s is
// left as it was.
func (s *Store) renamePrefix(from, to pointer.Pointer) error {
	switch {
	case from == pointer.Root || to == pointer.Root:
		return NewError(CodeRootDeletion, from, "the root keeps its pointer")
	case !s.Has(from):
		return notFound(from)
	case from == to:
		return nil
	case pointer.IsDescendant(from, to):
		return NewError(CodeInvalidParent, to, "cannot move "+string(from)+" below itself")
	}
	keys := s.subtree(from)
	for _, k := range keys {
		nk := pointer.RewritePrefix(k, from, to)
		if s.Has(nk) && !pointer.IsDescendant(from, nk) {
			return NewError(CodeNameCollision, nk, "target pointer is taken")
		}
	}

	parent := s.parentOf(from)
	moved := make([]*Node, 0, len(keys))
	for _, k := range keys {
		n := s.nodes[k]
		delete(s.nodes, k)
		n.Pointer = pointer.RewritePrefix(k, from, to)
		children := slices.Clone(n.Children())
		for i, c := range children {
			children[i] = pointer.RewritePrefix(c, from, to)
		}
		n.setChildren(children)
		moved = append(moved, n)
	}
	for _, n := range moved {
		s.nodes[n.Pointer] = n
	}
	if parent != "" {
		pn := s.nodes[parent]
		children := slices.Clone(pn.Children())
		if i := slices.Index(children, from); i >= 0 {
			children[i] = to
		}
		pn.setChildren(children)
	}
	for _, n := range s.nodes {
		if r, ok := n.Shape.(*Reference); ok && r.Ref != "" {
			r.Ref = pointer.RewritePrefix(r.Ref, from, to)
		}
	}
	s.moves = append(s.moves, move{from: from, to: to})
	return nil
}

// follow applies the moves recorded so far to p.
func (s *Store) follow(p pointer.Pointer) pointer.Pointer {
	for _, m := range s.moves {
		if m.to != "" && pointer.IsDescendant(m.from, p) {
			p = pointer.RewritePrefix(p, m.from, m.to)
		}
	}
	return p
}

// syncChildren renames every child of p whose pointer no longer matches the
// layout of p (combination index, kind or array wrapper). Renames go through
// scratch pointers first so that shifted combination items never collide.
func (s *Store) syncChildren(p pointer.Pointer) error {
	n, ok := s.nodes[p]
	if !ok {
		return notFound(p)
	}
	children := slices.Clone(n.Children())
	targets := make([]pointer.Pointer, len(children))
	scratch := make([]pointer.Pointer, len(children))
	for i, c := range children {
		targets[i] = childPointer(n, i, c)
		if targets[i] == c {
			continue
		}
		scratch[i] = pointer.Child(p, fmt.Sprintf("~tmp%d", i))
		if err := s.renamePrefix(c, scratch[i]); err != nil {
			return err
		}
	}
	for i, tmp := range scratch {
		if tmp == "" {
			continue
		}
		if err := s.renamePrefix(tmp, targets[i]); err != nil {
			return err
		}
	}
	return nil
}

// checkRefTarget validates ref as the target of the reference at p.
func (s *Store) checkRefTarget(p, ref pointer.Pointer) error {
	t, ok := s.nodes[ref]
	if !ok {
		return NewError(CodeDanglingReference, p, "ref "+string(ref)+" does not resolve", "ref", ref)
	}
	if pointer.IsDescendant(p, ref) {
		return NewError(CodeDanglingReference, p, "a reference cannot point into itself", "ref", ref)
	}
	if t.Kind() == KindReference {
		return NewError(CodeReferenceChain, p, "ref "+string(ref)+" is itself a reference", "ref", ref)
	}
	return nil
}

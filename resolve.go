package schemagraph

import (
	"sort"

	"github.com/reoring/schemagraph/pointer"
)

// FindIncomingReferences returns, sorted, the references whose ref equals
// target or points below it.
func FindIncomingReferences(s *Store, target pointer.Pointer) []pointer.Pointer {
	var out []pointer.Pointer
	for p, n := range s.nodes {
		if ref, ok := n.Ref(); ok && ref != "" && pointer.IsDescendant(target, ref) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Resolve follows one ref hop. Non-reference nodes resolve to themselves.
func Resolve(s *Store, p pointer.Pointer) (*Node, error) {
	n, ok := s.nodes[p]
	if !ok {
		return nil, notFound(p)
	}
	ref, isRef := n.Ref()
	if !isRef {
		return n.Clone(), nil
	}
	if ref == "" {
		return nil, NewError(CodeDanglingReference, p, "reference is unset", "ref", ref)
	}
	t, ok := s.nodes[ref]
	if !ok {
		return nil, NewError(CodeDanglingReference, p, "ref "+string(ref)+" does not resolve", "ref", ref)
	}
	if t.Kind() == KindReference {
		return nil, NewError(CodeReferenceChain, p, "ref "+string(ref)+" is itself a reference", "ref", ref)
	}
	return t.Clone(), nil
}

// IsInUse reports whether a reference outside the subtree of p points at p
// or into it; such a node cannot be deleted.
func IsInUse(s *Store, p pointer.Pointer) bool {
	return len(s.externalReferrers(p, true)) > 0
}

// Reachable returns, sorted, every node reachable from "from" through
// children and ref edges, "from" included. Cycles are fine.
func Reachable(s *Store, from pointer.Pointer) []pointer.Pointer {
	seen := s.reach(map[pointer.Pointer]bool{}, from)
	out := make([]pointer.Pointer, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// UnusedDefinitions returns the definitions that cannot be reached from the
// root's properties, in document order. A definition used only by another
// unused definition is unused as well.
func UnusedDefinitions(s *Store) []pointer.Pointer {
	seen := map[pointer.Pointer]bool{pointer.Root: true}
	for _, c := range s.nodes[pointer.Root].Children() {
		if !pointer.IsDefinition(c) {
			s.reach(seen, c)
		}
	}
	var out []pointer.Pointer
	for _, d := range s.Definitions() {
		if !seen[d] {
			out = append(out, d)
		}
	}
	return out
}

func (s *Store) reach(seen map[pointer.Pointer]bool, from pointer.Pointer) map[pointer.Pointer]bool {
	stack := []pointer.Pointer{from}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, ok := s.nodes[p]
		if !ok || seen[p] {
			continue
		}
		seen[p] = true
		stack = append(stack, n.Children()...)
		if ref, ok := n.Ref(); ok && ref != "" {
			// A ref into a definition's interior keeps the whole definition.
			for _, d := range s.Definitions() {
				if pointer.IsDescendant(d, ref) {
					stack = append(stack, d)
				}
			}
			stack = append(stack, ref)
		}
	}
	return seen
}

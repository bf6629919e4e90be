package jsonschema

import (
	"slices"
	"sort"

	schemagraph "github.com/reoring/schemagraph"
	"github.com/reoring/schemagraph/pointer"
)

// canonical key order for keywords that have no recorded position.
var bodyRank = map[string]int{
	"$schema": 0, "$id": 1, "$ref": 2, "type": 3, "title": 4, "description": 5, "enum": 6,
	"allOf": 7, "anyOf": 7, "oneOf": 7, "properties": 8, "required": 9, "items": 10,
	pointer.Defs: 20, pointer.Definitions: 21,
}

var wrapperRank = map[string]int{"type": 0, "title": 1, "description": 2, "items": 3}

// restrictionRank places unranked keywords between "items" and the
// definitions.
const restrictionRank = 15

// Serialize writes s back as a JSON Schema document. Properties and
// definitions are keyed by the last pointer segment of each node, "required"
// is rebuilt from the required flags, combinator items keep their order and
// every "$ref" is the pointer string of its target.
func Serialize(s *schemagraph.Store) (*Object, error) {
	return serializeNode(s, s.Root())
}

func serializeNode(s *schemagraph.Store, n *schemagraph.Node) (*Object, error) {
	var body []Member
	add := func(k string, v any) { body = append(body, Member{Key: k, Value: v}) }
	bodyHint := n.KeywordOrder
	if n.IsArray {
		bodyHint = n.ItemKeywordOrder
	}

	switch sh := n.Shape.(type) {
	case *schemagraph.Reference:
		if sh.Ref != "" {
			add("$ref", string(sh.Ref))
		}
	case *schemagraph.Combination:
		items := make([]any, 0, len(sh.Children))
		for _, c := range sh.Children {
			o, err := child(s, c)
			if err != nil {
				return nil, err
			}
			items = append(items, o)
		}
		add(string(sh.Combinator), items)
	case *schemagraph.Field:
		if !sh.Implicit {
			add("type", string(sh.Type))
		}
		props := &Object{}
		defs := map[string]*Object{}
		var required []string
		for _, c := range sh.Children {
			o, err := child(s, c)
			if err != nil {
				return nil, err
			}
			if pointer.IsDefinition(c) {
				kw := pointer.Category(c)
				if defs[kw] == nil {
					defs[kw] = &Object{}
				}
				defs[kw].Set(pointer.Last(c), o)
				continue
			}
			props.Set(pointer.Last(c), o)
			if cn, err := s.Get(c); err == nil && cn.IsRequired {
				required = append(required, pointer.Last(c))
			}
		}
		if props.Len() > 0 || kept(n.Restrictions, bodyHint, "properties") {
			add("properties", props)
		}
		if req := requiredList(sh, required); len(req) > 0 || sh.RequiredOrder != nil {
			add("required", req)
		}
		for _, kw := range []string{pointer.Defs, pointer.Definitions} {
			if d := defs[kw]; d != nil || (n.Pointer == pointer.Root && kept(n.Restrictions, bodyHint, kw)) {
				if d == nil {
					d = &Object{}
				}
				add(kw, d)
			}
		}
	}

	if !n.IsArray {
		if n.Title != "" {
			add("title", n.Title)
		}
		if n.Description != "" {
			add("description", n.Description)
		}
	}
	if n.Enum != nil {
		add("enum", slices.Clone(n.Enum))
	}
	body = appendKeywords(body, n.Restrictions)
	out := ordered(body, bodyHint, bodyRank)
	if !n.IsArray {
		return out, nil
	}

	wrapper := []Member{{Key: "type", Value: "array"}}
	if n.Title != "" {
		wrapper = append(wrapper, Member{Key: "title", Value: n.Title})
	}
	if n.Description != "" {
		wrapper = append(wrapper, Member{Key: "description", Value: n.Description})
	}
	wrapper = append(wrapper, Member{Key: "items", Value: out})
	wrapper = appendKeywords(wrapper, n.ArrayRestrictions)
	return ordered(wrapper, n.KeywordOrder, wrapperRank), nil
}

// appendKeywords adds the verbatim keywords ks to members. A keyword the node
// model already emitted is skipped: the model holds the edited value.
func appendKeywords(members []Member, ks schemagraph.Keywords) []Member {
	for _, k := range ks {
		if slices.ContainsFunc(members, func(m Member) bool { return m.Key == k.Name }) {
			continue
		}
		members = append(members, Member{Key: k.Name, Value: k.Value})
	}
	return members
}

// kept reports whether an empty collection under key must be written back
// because the document had one there.
func kept(ks schemagraph.Keywords, hint []string, key string) bool {
	if _, ok := ks.Get(key); ok {
		return false
	}
	return slices.Contains(hint, key)
}

func child(s *schemagraph.Store, p pointer.Pointer) (*Object, error) {
	n, err := s.Get(p)
	if err != nil {
		return nil, err
	}
	return serializeNode(s, n)
}

// requiredList keeps the recorded order of "required" for names that are
// still required and appends newly required properties.
func requiredList(f *schemagraph.Field, required []string) []any {
	valid := map[string]bool{}
	for _, r := range required {
		valid[r] = true
	}
	for _, e := range f.ExtraRequired {
		valid[e] = true
	}
	out := []any{}
	emitted := map[string]bool{}
	for _, name := range f.RequiredOrder {
		if valid[name] {
			out = append(out, name)
			emitted[name] = true
		}
	}
	for _, name := range append(required, f.ExtraRequired...) {
		if !emitted[name] {
			out = append(out, name)
			emitted[name] = true
		}
	}
	return out
}

// ordered lays members out with hinted keys first, in hint order, and the
// rest by rank. Members of equal rank keep their relative order.
func ordered(members []Member, hint []string, rank map[string]int) *Object {
	pos := make(map[string]int, len(hint))
	for i, k := range hint {
		if _, dup := pos[k]; !dup {
			pos[k] = i
		}
	}
	key := func(m Member) (int, int) {
		if i, ok := pos[m.Key]; ok {
			return 0, i
		}
		if r, ok := rank[m.Key]; ok {
			return 1, r
		}
		return 1, restrictionRank
	}
	sort.SliceStable(members, func(a, b int) bool {
		ga, ra := key(members[a])
		gb, rb := key(members[b])
		if ga != gb {
			return ga < gb
		}
		return ra < rb
	})
	return NewObject(members...)
}

package jsonschema

import (
	"fmt"

	schemagraph "github.com/reoring/schemagraph"
	"github.com/reoring/schemagraph/pointer"
)

// Parse builds a node store from a JSON Schema document.
//
// Properties and definitions become nodes; "$ref" with a local pointer
// becomes a Reference, a single allOf/anyOf/oneOf array a Combination,
// anything else a Field. An object with "type": "array" and an object
// "items" is one array node whose body is the items schema. Every keyword
// the node model does not own is kept verbatim as a restriction, together
// with the author's key order, so Serialize(Parse(doc)) reproduces doc.
//
// opts apply when the document does not say which definitions keyword it
// uses.
func Parse(doc *Object, opts ...schemagraph.Option) (*schemagraph.Store, error) {
	if doc == nil {
		return nil, schemagraph.NewError(schemagraph.CodeInvalidDocument, pointer.Root, "no document")
	}
	if doc.Has(pointer.Defs) || doc.Has(pointer.Definitions) || doc.Has("$schema") {
		opts = append(opts, schemagraph.WithDefinitionsKeyword(DetectSettings(doc).DefinitionsKeyword))
	}
	p := &parser{b: schemagraph.NewBuilder(opts...)}
	if _, err := p.node(pointer.Root, doc, true); err != nil {
		return nil, err
	}
	return p.b.Build()
}

type parser struct{ b *schemagraph.Builder }

func (p *parser) node(at pointer.Pointer, obj *Object, root bool) (*schemagraph.Node, error) {
	n := &schemagraph.Node{Pointer: at, KeywordOrder: obj.Keys()}
	body := obj
	if !root && isArrayWrapper(obj) {
		items, _ := obj.Get("items")
		body = items.(*Object)
		n.IsArray = true
		n.ItemKeywordOrder = body.Keys()
		for _, m := range obj.Members() {
			switch m.Key {
			case "type", "items":
			case "title", "description":
				if s, ok := m.Value.(string); ok && s != "" {
					if m.Key == "title" {
						n.Title = s
					} else {
						n.Description = s
					}
					continue
				}
				n.ArrayRestrictions = append(n.ArrayRestrictions, schemagraph.Keyword{Name: m.Key, Value: m.Value})
			default:
				n.ArrayRestrictions = append(n.ArrayRestrictions, schemagraph.Keyword{Name: m.Key, Value: m.Value})
			}
		}
	}

	consumed := map[string]bool{}
	ref, isRef := localRef(body)
	var kind schemagraph.CombinationKind
	if !root && !isRef {
		var err error
		if kind, err = combinator(body, at); err != nil {
			return nil, err
		}
	}
	switch {
	case !root && isRef:
		n.Shape = &schemagraph.Reference{Ref: ref}
		consumed["$ref"] = true
	case !root && kind != "":
		c := &schemagraph.Combination{Combinator: kind}
		n.Shape = c
		consumed[string(kind)] = true
		items, _ := body.Get(string(kind))
		for i, item := range items.([]any) {
			cp := pointer.CombinationItem(at, n.IsArray, string(kind), i)
			sub, ok := item.(*Object)
			if !ok {
				return nil, notASchema(cp, item)
			}
			if _, err := p.node(cp, sub, false); err != nil {
				return nil, err
			}
			c.Children = append(c.Children, cp)
		}
	default:
		f, err := p.field(n, body, root, consumed)
		if err != nil {
			return nil, err
		}
		n.Shape = f
	}

	for _, m := range body.Members() {
		if consumed[m.Key] {
			continue
		}
		switch m.Key {
		case "title", "description":
			if s, ok := m.Value.(string); ok && s != "" && !n.IsArray {
				if m.Key == "title" {
					n.Title = s
				} else {
					n.Description = s
				}
				continue
			}
		case "enum":
			if vs, ok := m.Value.([]any); ok {
				n.Enum = vs
				continue
			}
		}
		n.Restrictions = append(n.Restrictions, schemagraph.Keyword{Name: m.Key, Value: m.Value})
	}
	p.b.Put(n)
	return n, nil
}

// field fills the Field shape of n from body and parses its properties (and,
// at the root, its definitions).
func (p *parser) field(n *schemagraph.Node, body *Object, root bool, consumed map[string]bool) (*schemagraph.Field, error) {
	f := &schemagraph.Field{}
	raw, _ := body.Get("type")
	t := schemagraph.FieldType(stringOf(raw))
	props, _ := body.Get("properties")
	propsObj, propsOK := props.(*Object)
	switch {
	case t.Valid() && (!root || t == schemagraph.TypeObject):
		f.Type = t
		consumed["type"] = true
	case root || propsOK:
		f.Type, f.Implicit = schemagraph.TypeObject, true
	default:
		f.Type, f.Implicit = schemagraph.TypeString, true
	}
	if f.Type != schemagraph.TypeObject {
		return f, nil
	}

	children := map[string]*schemagraph.Node{}
	for _, m := range body.Members() {
		switch {
		case m.Key == "properties" && propsOK:
			consumed[m.Key] = true
			for _, pm := range propsObj.Members() {
				cp := pointer.Property(n.Pointer, n.IsArray, pm.Key)
				po, ok := pm.Value.(*Object)
				if !ok {
					return nil, notASchema(cp, pm.Value)
				}
				c, err := p.node(cp, po, false)
				if err != nil {
					return nil, err
				}
				children[pm.Key] = c
				f.Children = append(f.Children, cp)
			}
		case root && (m.Key == pointer.Defs || m.Key == pointer.Definitions):
			defs, ok := m.Value.(*Object)
			if !ok {
				continue
			}
			consumed[m.Key] = true
			for _, dm := range defs.Members() {
				dp := pointer.Definition(m.Key, dm.Key)
				do, ok := dm.Value.(*Object)
				if !ok {
					return nil, notASchema(dp, dm.Value)
				}
				if _, err := p.node(dp, do, false); err != nil {
					return nil, err
				}
				f.Children = append(f.Children, dp)
			}
		}
	}

	if names, ok := requiredNames(body); ok {
		consumed["required"] = true
		f.RequiredOrder = names
		for _, name := range names {
			if c, ok := children[name]; ok {
				c.IsRequired = true
				continue
			}
			f.ExtraRequired = append(f.ExtraRequired, name)
		}
	}
	return f, nil
}

func isArrayWrapper(obj *Object) bool {
	t, _ := obj.Get("type")
	items, _ := obj.Get("items")
	_, ok := items.(*Object)
	return t == "array" && ok
}

// combinator returns the single combinator keyword of body, "" if none.
func combinator(body *Object, at pointer.Pointer) (schemagraph.CombinationKind, error) {
	var found []schemagraph.CombinationKind
	for _, k := range schemagraph.CombinationKinds {
		if v, ok := body.Get(string(k)); ok {
			if _, isArr := v.([]any); isArr {
				found = append(found, k)
			}
		}
	}
	switch len(found) {
	case 0:
		return "", nil
	case 1:
		return found[0], nil
	}
	return "", schemagraph.NewError(schemagraph.CodeInvalidDocument, at,
		fmt.Sprintf("more than one combinator: %v", found))
}

func localRef(body *Object) (pointer.Pointer, bool) {
	v, ok := body.Get("$ref")
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || !pointer.IsLocal(s) {
		return "", false
	}
	return pointer.Pointer(s), true
}

func requiredNames(body *Object) ([]string, bool) {
	v, ok := body.Get("required")
	if !ok {
		return nil, false
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	names := make([]string, 0, len(arr))
	for _, e := range arr {
		s, ok := e.(string)
		if !ok {
			return nil, false
		}
		names = append(names, s)
	}
	return names, true
}

func notASchema(at pointer.Pointer, v any) error {
	return schemagraph.NewError(schemagraph.CodeInvalidDocument, at, fmt.Sprintf("expected a schema object, got %T", v))
}

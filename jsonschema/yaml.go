package jsonschema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	schemagraph "github.com/reoring/schemagraph"
	"github.com/reoring/schemagraph/pointer"
)

// DecodeYAML reads the first YAML document of r into an Object. Mapping
// order is kept, duplicate keys fail with their positions, and numbers become
// j.Number so that a YAML schema serializes like its JSON twin. Limits apply
// as for DecodeJSON.
func DecodeYAML(r io.Reader, limits ...Limits) (*Object, error) {
	l := lastLimits(limits)
	r, err := l.limited(r)
	if err != nil {
		return nil, err
	}
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, schemagraph.NewError(schemagraph.CodeInvalidDocument, "", "empty YAML document")
		}
		return nil, schemagraph.NewError(schemagraph.CodeInvalidDocument, "", "malformed YAML").Wrap(err)
	}
	y := &yamlReader{limits: l}
	v, err := y.value(&root, pointer.Root)
	if err != nil {
		return nil, err
	}
	o, ok := v.(*Object)
	if !ok {
		return nil, schemagraph.NewError(schemagraph.CodeInvalidDocument, pointer.Root, "top level is not a mapping")
	}
	return o, nil
}

type yamlReader struct {
	limits Limits
	depth  int
}

func (y *yamlReader) value(n *yaml.Node, at pointer.Pointer) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return y.value(n.Content[0], at)
	case yaml.AliasNode:
		return y.value(n.Alias, at)
	case yaml.MappingNode, yaml.SequenceNode:
		y.depth++
		defer func() { y.depth-- }()
		if err := y.limits.checkDepth(y.depth, at); err != nil {
			return nil, err
		}
		if n.Kind == yaml.SequenceNode {
			return y.sequence(n, at)
		}
		return y.mapping(n, at)
	case yaml.ScalarNode:
		return scalarFromYAML(n, at)
	}
	return nil, nil
}

func (y *yamlReader) mapping(n *yaml.Node, at pointer.Pointer) (*Object, error) {
	o := &Object{}
	first := make(map[string][2]int, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		key := k.Value
		if pos, dup := first[key]; dup {
			return nil, &DuplicateKeyError{Key: key, Pointer: at, FirstLine: pos[0], FirstCol: pos[1], Line: k.Line, Col: k.Column}
		}
		first[key] = [2]int{k.Line, k.Column}
		val, err := y.value(v, pointer.Child(at, key))
		if err != nil {
			return nil, err
		}
		o.Set(key, val)
	}
	return o, nil
}

func (y *yamlReader) sequence(n *yaml.Node, at pointer.Pointer) ([]any, error) {
	arr := make([]any, 0, len(n.Content))
	for i, c := range n.Content {
		v, err := y.value(c, pointer.Child(at, strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	return arr, nil
}

func scalarFromYAML(n *yaml.Node, at pointer.Pointer) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, yamlValueError(n, at, err)
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return j.Number(strconv.FormatInt(i, 10)), nil
		}
		bi, ok := new(big.Int).SetString(strings.ReplaceAll(n.Value, "_", ""), 0)
		if !ok {
			return nil, yamlValueError(n, at, fmt.Errorf("integer %q out of range", n.Value))
		}
		return j.Number(bi.String()), nil
	case "!!float":
		if j.Valid([]byte(n.Value)) {
			return j.Number(n.Value), nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, yamlValueError(n, at, err)
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, yamlValueError(n, at, fmt.Errorf("%s has no JSON form", n.Value))
		}
		return j.Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
	default:
		// !!str, !!timestamp, !!binary and custom tags keep their text.
		return n.Value, nil
	}
}

func yamlValueError(n *yaml.Node, at pointer.Pointer, err error) error {
	return schemagraph.NewError(schemagraph.CodeInvalidDocument, at,
		fmt.Sprintf("bad YAML scalar at %d:%d", n.Line, n.Column)).Wrap(err)
}

// EncodeYAML writes o as a block-style YAML document with two-space indent.
func EncodeYAML(o *Object) ([]byte, error) {
	n, err := toYAML(o)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toYAML(v any) (*yaml.Node, error) {
	v, err := normalize(v)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(x)}, nil
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: x}, nil
	case j.Number:
		tag := "!!int"
		if strings.ContainsAny(string(x), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(x)}, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range x {
			c, err := toYAML(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, c)
		}
		if len(x) == 0 {
			n.Style = yaml.FlowStyle
		}
		return n, nil
	case *Object:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, m := range x.Members() {
			c, err := toYAML(m.Value)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Key}, c)
		}
		if x.Len() == 0 {
			n.Style = yaml.FlowStyle
		}
		return n, nil
	}
	return nil, fmt.Errorf("jsonschema: cannot encode %T as YAML", v)
}

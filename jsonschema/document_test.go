package jsonschema_test

import (
	"errors"
	"strings"
	"testing"

	j "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schemagraph "github.com/reoring/schemagraph"
	"github.com/reoring/schemagraph/jsonschema"
	"github.com/reoring/schemagraph/pointer"
)

func TestDecodeJSON_KeepsOrderAndNumbers(t *testing.T) {
	o := decode(t, `{"z":1,"a":{"y":2.50,"b":[true,null,"s"]}}`)
	assert.Equal(t, []string{"z", "a"}, o.Keys())

	z, _ := o.Get("z")
	assert.Equal(t, j.Number("1"), z)

	a, _ := o.Get("a")
	inner := a.(*jsonschema.Object)
	assert.Equal(t, []string{"y", "b"}, inner.Keys())
	assert.Equal(t, `{"z":1,"a":{"y":2.50,"b":[true,null,"s"]}}`, encode(t, o))
}

func TestDecodeJSON_Errors(t *testing.T) {
	cases := map[string]string{
		"malformed":     `{"a":`,
		"not an object": `[1,2]`,
		"trailing data": `{} {}`,
		"empty input":   ``,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := jsonschema.DecodeJSON(strings.NewReader(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, schemagraph.ErrInvalidDocument), "got %v", err)
		})
	}
}

func TestDecodeJSON_DuplicateKey(t *testing.T) {
	_, err := jsonschema.DecodeJSON(strings.NewReader(`{"properties":{"a":{},"a":{}}}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, schemagraph.ErrInvalidDocument))

	var dup *jsonschema.DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "a", dup.Key)
	assert.Equal(t, pointer.Pointer("#/properties"), dup.Pointer)
}

func TestDecodeYAML_DuplicateKeyHasPositions(t *testing.T) {
	doc := "type: object\nproperties:\n  a: {}\n  a: {}\n"
	_, err := jsonschema.DecodeYAML(strings.NewReader(doc))
	require.Error(t, err)
	assert.True(t, errors.Is(err, schemagraph.ErrInvalidDocument))

	var dup *jsonschema.DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, 3, dup.FirstLine)
	assert.Equal(t, 4, dup.Line)
	assert.Contains(t, dup.Error(), "at 4:3")
}

func TestDecodeYAML_Errors(t *testing.T) {
	for name, doc := range map[string]string{
		"empty":        "",
		"sequence":     "- a\n- b\n",
		"malformed":    "a: [1, 2\n",
		"infinite num": "maximum: .inf\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := jsonschema.DecodeYAML(strings.NewReader(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, schemagraph.ErrInvalidDocument), "got %v", err)
		})
	}
}

func TestYAML_SerializesLikeJSON(t *testing.T) {
	const yamlDoc = `type: object
properties:
  id:
    type: string
    minLength: 1
  price:
    type: number
    maximum: 1.5
  tags:
    type: array
    items:
      type: string
required: [id]
`
	const jsonDoc = `{"type":"object","properties":{"id":{"type":"string","minLength":1},"price":{"type":"number","maximum":1.5},"tags":{"type":"array","items":{"type":"string"}}},"required":["id"]}`

	y, err := jsonschema.DecodeYAML(strings.NewReader(yamlDoc))
	require.NoError(t, err)
	fromYAML, err := jsonschema.Parse(y)
	require.NoError(t, err)

	assert.Equal(t, jsonDoc, serialize(t, fromYAML))
	assert.Equal(t, serialize(t, parse(t, jsonDoc)), serialize(t, fromYAML))
}

func TestEncodeYAML_RoundTrips(t *testing.T) {
	in := decode(t, orderSchema)
	out, err := jsonschema.EncodeYAML(in)
	require.NoError(t, err)

	back, err := jsonschema.DecodeYAML(strings.NewReader(string(out)))
	require.NoError(t, err)
	assert.Equal(t, encode(t, in), encode(t, back))
}

func TestEncodeYAML_EmptyCollectionsAreFlow(t *testing.T) {
	o := jsonschema.NewObject(
		jsonschema.Member{Key: "type", Value: "object"},
		jsonschema.Member{Key: "properties", Value: jsonschema.NewObject()},
	)
	out, err := jsonschema.EncodeYAML(o)
	require.NoError(t, err)
	assert.Equal(t, "type: object\nproperties: {}\n", string(out))
}

func TestEncodeJSON_Indent(t *testing.T) {
	out, err := jsonschema.EncodeJSON(decode(t, `{"a":{"b":1}}`), 2)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": {\n    \"b\": 1\n  }\n}\n", string(out))
}

func TestObject_SetDelete(t *testing.T) {
	o := jsonschema.NewObject()
	o.Set("b", 1)
	o.Set("a", 2)
	o.Set("b", 3)
	assert.Equal(t, []string{"b", "a"}, o.Keys())
	v, _ := o.Get("b")
	assert.Equal(t, 3, v)

	o.Delete("b")
	assert.Equal(t, []string{"a"}, o.Keys())
	assert.False(t, o.Has("b"))
	assert.Equal(t, 1, o.Len())
}

func TestObject_JSONMethods(t *testing.T) {
	var o jsonschema.Object
	require.NoError(t, j.Unmarshal([]byte(`{"b":1,"a":"x"}`), &o))
	assert.Equal(t, []string{"b", "a"}, o.Keys())

	b, err := j.Marshal(&o)
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":"x"}`, string(b))
}

func TestEqual(t *testing.T) {
	a := decode(t, `{"x":1.0,"y":[1,{"p":true}]}`)
	b := decode(t, `{"y":[1,{"p":true}],"x":1}`)
	assert.True(t, jsonschema.Equal(a, b))
	assert.False(t, jsonschema.Equal(a, decode(t, `{"x":1,"y":[{"p":true},1]}`)))
	assert.True(t, jsonschema.Equal(j.Number("10"), 10))
	assert.False(t, jsonschema.Equal("1", j.Number("1")))
}

func TestSettings(t *testing.T) {
	cases := []struct {
		url  string
		want jsonschema.Settings
	}{
		{"https://json-schema.org/draft/2020-12/schema", jsonschema.Settings{Draft: "2020-12", DefinitionsKeyword: "$defs"}},
		{"https://json-schema.org/draft/2019-09/schema", jsonschema.Settings{Draft: "2019-09", DefinitionsKeyword: "$defs"}},
		{"http://json-schema.org/draft-07/schema#", jsonschema.Settings{Draft: "draft-07", DefinitionsKeyword: "definitions"}},
		{"http://json-schema.org/draft-04/schema#", jsonschema.Settings{Draft: "draft-04", DefinitionsKeyword: "definitions"}},
		{"", jsonschema.Settings{DefinitionsKeyword: "$defs"}},
		{"https://example.com/custom", jsonschema.Settings{DefinitionsKeyword: "$defs"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, jsonschema.SettingsFor(tc.url), tc.url)
	}

	doc := decode(t, `{"definitions":{}}`)
	assert.Equal(t, "definitions", jsonschema.DetectSettings(doc).DefinitionsKeyword)
}

func TestCheckShape(t *testing.T) {
	require.NoError(t, jsonschema.CheckShape(decode(t, orderSchema)))

	for name, doc := range map[string]string{
		"required not a list":   `{"required":5}`,
		"properties not object": `{"properties":[1]}`,
		"type not a string":     `{"type":7}`,
		"minLength not int":     `{"minLength":"x"}`,
	} {
		t.Run(name, func(t *testing.T) {
			err := jsonschema.CheckShape(decode(t, doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, schemagraph.ErrInvalidDocument))
		})
	}

	typed, err := jsonschema.Typed(decode(t, orderSchema))
	require.NoError(t, err)
	assert.Equal(t, "object", typed.Type)
	assert.Contains(t, typed.Properties, "lines")
	assert.Equal(t, []string{"id", "customer", "legacy"}, typed.Required)
}

func TestDecode_Limits(t *testing.T) {
	deep := `{"a":{"b":{"c":[1]}}}`
	_, err := jsonschema.DecodeJSON(strings.NewReader(deep), jsonschema.Limits{MaxDepth: 4})
	require.NoError(t, err)

	_, err = jsonschema.DecodeJSON(strings.NewReader(deep), jsonschema.Limits{MaxDepth: 3})
	require.Error(t, err)
	e, ok := schemagraph.AsError(err)
	require.True(t, ok)
	assert.Equal(t, schemagraph.CodeInvalidDocument, e.Code)
	assert.Equal(t, pointer.Pointer("#/a/b/c"), e.Pointer)

	_, err = jsonschema.DecodeJSON(strings.NewReader(deep), jsonschema.Limits{MaxBytes: 5})
	assert.True(t, errors.Is(err, schemagraph.ErrInvalidDocument))
	_, err = jsonschema.DecodeJSON(strings.NewReader(deep), jsonschema.Limits{MaxBytes: int64(len(deep))})
	require.NoError(t, err)

	_, err = jsonschema.DecodeYAML(strings.NewReader("a:\n  b:\n    c: [1]\n"), jsonschema.Limits{MaxDepth: 2})
	e, ok = schemagraph.AsError(err)
	require.True(t, ok)
	assert.Equal(t, pointer.Pointer("#/a/b"), e.Pointer)
}

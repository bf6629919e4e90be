package jsonschema

import (
	j "github.com/goccy/go-json"
	gschema "github.com/google/jsonschema-go/jsonschema"

	schemagraph "github.com/reoring/schemagraph"
	"github.com/reoring/schemagraph/pointer"
)

// CheckShape reports whether o has the keyword types of a JSON Schema, for
// example "properties" being an object of schemas and "required" a list of
// strings. It does not resolve references or validate instances.
func CheckShape(o *Object) error {
	_, err := Typed(o)
	return err
}

// Typed decodes o into a jsonschema-go Schema for callers that want typed
// keyword access.
func Typed(o *Object) (*gschema.Schema, error) {
	raw, err := o.MarshalJSON()
	if err != nil {
		return nil, schemagraph.NewError(schemagraph.CodeInvalidDocument, pointer.Root, "cannot encode document").Wrap(err)
	}
	var s gschema.Schema
	if err := j.Unmarshal(raw, &s); err != nil {
		return nil, schemagraph.NewError(schemagraph.CodeInvalidDocument, pointer.Root, "not a JSON Schema").Wrap(err)
	}
	return &s, nil
}

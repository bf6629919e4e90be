// Package schemagraph holds a JSON Schema document as a graph of nodes keyed
// by JSON Pointer and edits it structurally.
//
// A Store maps pointers to Nodes. Each node is a Field (a primitive or object
// type, objects owning properties), a Reference ("$ref" to another node) or a
// Combination (allOf, anyOf or oneOf over item nodes). Definitions are
// children of the root under "#/$defs" or "#/definitions".
//
// Stores are persistent: every mutator returns a new Store and leaves the
// receiver untouched, failing with an *Error whose Unwrap matches one of the
// Err* sentinels. Renames rewrite the pointers of the whole subtree and every
// "$ref" into it, so references never dangle after an edit:
//
//	s := schemagraph.New()
//	s, p, err := s.AddProperty(pointer.Root, "address")
//	s, def, err := s.Promote(p)  // p is now {"$ref": def}
//	s, _, err = s.RenamePropertyName(def, "Address")
//
// Session wraps a Store for an interactive editor: it applies Edits, keeps
// the selected node in step with renames and logs through zap.
//
// Reading and writing JSON Schema text lives in package jsonschema.
package schemagraph

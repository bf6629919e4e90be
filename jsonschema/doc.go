// Package jsonschema reads and writes JSON Schema documents for the node
// graph in package schemagraph.
//
// Documents are held as *Object, an ordered JSON object, so that key order
// survives a round trip. DecodeJSON and DecodeYAML produce one, EncodeJSON
// and EncodeYAML write one back. Parse turns an Object into a
// *schemagraph.Store and Serialize does the reverse; for any document Parse
// accepts, Serialize(Parse(doc)) equals doc.
package jsonschema

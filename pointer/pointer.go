// Package pointer builds and manipulates the JSON-Pointer-like paths that
// address nodes of a schema graph (for example "#/properties/a",
// "#/$defs/Foo" or "#/properties/x/anyOf/2").
//
// Every segment is escaped per RFC 6901 ('~' -> "~0", '/' -> "~1"), so a
// pointer is always a plain string that can be compared, prefixed and used
// verbatim as a "$ref" value.
package pointer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Pointer identifies one node of a schema graph.
type Pointer string

// Root is the fixed pointer of the document root.
const Root Pointer = "#"

// Category segments used in node pointers.
const (
	Properties  = "properties"
	Items       = "items"
	Defs        = "$defs"
	Definitions = "definitions"
)

// ErrInvalid is returned by Parse for strings that are not local pointers.
var ErrInvalid = errors.New("pointer: invalid pointer")

// Lookup reports whether a pointer is taken.
type Lookup interface {
	Has(p Pointer) bool
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(p Pointer) bool

func (f LookupFunc) Has(p Pointer) bool { return f(p) }

// Parse validates s as a local pointer ("#" or "#/...").
func Parse(s string) (Pointer, error) {
	if s == string(Root) || strings.HasPrefix(s, string(Root)+"/") {
		return Pointer(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalid, s)
}

// IsLocal reports whether s has the shape of a local pointer.
func IsLocal(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Make joins unescaped segments with '/'. A leading "#" (or empty) segment is
// treated as the root marker, so Make("#", "properties", "a") and
// Make("properties", "a") are equal.
func Make(segments ...string) Pointer {
	if len(segments) > 0 && (segments[0] == string(Root) || segments[0] == "") {
		segments = segments[1:]
	}
	return Child(Root, segments...)
}

// Child appends unescaped segments to p.
func Child(p Pointer, segments ...string) Pointer {
	if len(segments) == 0 {
		return p
	}
	b := &strings.Builder{}
	b.WriteString(string(p))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(escape(s))
	}
	return Pointer(b.String())
}

// Segments returns the unescaped segments of p. The root has none.
func Segments(p Pointer) []string {
	s := strings.TrimPrefix(string(p), string(Root))
	if s == "" {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(s, "/"), "/")
	for i := range parts {
		parts[i] = unescape(parts[i])
	}
	return parts
}

// Last returns the unescaped last segment of p ("" for the root).
func Last(p Pointer) string {
	i := strings.LastIndexByte(string(p), '/')
	if i < 0 {
		return ""
	}
	return unescape(string(p[i+1:]))
}

// Dir drops the last segment of p. Dir(Root) is Root.
func Dir(p Pointer) Pointer {
	i := strings.LastIndexByte(string(p), '/')
	if i < 0 {
		return Root
	}
	return p[:i]
}

// Category returns the segment preceding the last one, e.g. "properties" for
// "#/properties/a" or "anyOf" for "#/properties/x/anyOf/0".
func Category(p Pointer) string {
	return Last(Dir(p))
}

// IsDescendant reports whether candidate equals ancestor or lies below it.
func IsDescendant(ancestor, candidate Pointer) bool {
	if candidate == ancestor {
		return true
	}
	return strings.HasPrefix(string(candidate), string(ancestor)+"/")
}

// ReplaceLast swaps the last segment of p for name.
func ReplaceLast(p Pointer, name string) Pointer {
	if p == Root {
		return p
	}
	return Child(Dir(p), name)
}

// RewritePrefix moves p from below oldPrefix to below newPrefix. Pointers
// outside oldPrefix are returned unchanged.
func RewritePrefix(p, oldPrefix, newPrefix Pointer) Pointer {
	if !IsDescendant(oldPrefix, p) {
		return p
	}
	return newPrefix + p[len(oldPrefix):]
}

// Unique returns desired when it is free, otherwise desired with the smallest
// numeric suffix (0, 1, 2, ...) that is not taken.
func Unique(l Lookup, desired Pointer) Pointer {
	if !l.Has(desired) {
		return desired
	}
	for i := 0; ; i++ {
		c := desired + Pointer(strconv.Itoa(i))
		if !l.Has(c) {
			return c
		}
	}
}

// Property returns the pointer of property name under parent.
func Property(parent Pointer, isArray bool, name string) Pointer {
	if isArray {
		return Child(parent, Items, Properties, name)
	}
	return Child(parent, Properties, name)
}

// CombinationItem returns the pointer of the index-th item of the combinator
// kind under parent.
func CombinationItem(parent Pointer, isArray bool, kind string, index int) Pointer {
	return CombinationChild(parent, isArray, kind, strconv.Itoa(index))
}

// CombinationChild returns the pointer of the item called name under the
// combinator kind of parent.
func CombinationChild(parent Pointer, isArray bool, kind, name string) Pointer {
	if isArray {
		return Child(parent, Items, kind, name)
	}
	return Child(parent, kind, name)
}

// CombinationTemp returns a scratch pointer under a combinator that can never
// collide with an indexed item.
func CombinationTemp(parent Pointer, isArray bool, kind string, n int) Pointer {
	return CombinationChild(parent, isArray, kind, "~tmp"+strconv.Itoa(n))
}

// Definition returns the pointer of a named definition under keyword
// ("$defs" or "definitions").
func Definition(keyword, name string) Pointer {
	return Child(Root, keyword, name)
}

// IsDefinition reports whether p addresses a top-level definition.
func IsDefinition(p Pointer) bool {
	segs := Segments(p)
	return len(segs) == 2 && (segs[0] == Defs || segs[0] == Definitions)
}

// Index parses the last segment of p as a combinator index.
func Index(p Pointer) (int, bool) {
	i, err := strconv.Atoi(Last(p))
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// escape '~' -> '~0', '/' -> '~1' per RFC6901
func escape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}

func unescape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
}
